package config

import (
	stderrors "errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config contains runtime configuration required by the relay.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`

	// APIKeys maps an inbound X-API-Key to the site it authenticates.
	APIKeys map[string]string `yaml:"-"`
	// APIKeysRaw is the "site:key,site:key" form used in the file and env.
	APIKeysRaw string `yaml:"api_keys"`

	Collector CollectorConfig `yaml:"collector"`
	Session   SessionConfig   `yaml:"session"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type CollectorConfig struct {
	TrackingHost   string        `yaml:"tracking_host"`
	// ServerSideHost receives POST /events traffic; it is a separate ingestion host upstream.
	ServerSideHost string        `yaml:"server_side_host"`
	APIKey         string        `yaml:"api_key"`
	ServerToken    string        `yaml:"server_token"`
	Timeout        time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	Backend       string        `yaml:"backend"`
	DBURL         string        `yaml:"db_url"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type TrackingConfig struct {
	Commerce       bool          `yaml:"commerce"`
	CheckoutWindow time.Duration `yaml:"checkout_window"`
	AbandonAfter   time.Duration `yaml:"abandon_after"`
	// Autocapture and CookieLess only shape the browser pixel configuration.
	Autocapture    bool          `yaml:"autocapture"`
	CookieLess     bool          `yaml:"cookie_less"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

const (
	DefaultTrackingHost   = "https://events.usermaven.com"
	DefaultServerSideHost = "https://eventcollectors.usermaven.com"
)

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTPAddr: ":8080",
		LogLevel: "INFO",
		Collector: CollectorConfig{
			TrackingHost:   DefaultTrackingHost,
			ServerSideHost: DefaultServerSideHost,
			Timeout:        10 * time.Second,
		},
		Session: SessionConfig{
			Backend: "memory",
			TTL:     48 * time.Hour,
		},
		Tracking: TrackingConfig{
			Commerce:       true,
			CheckoutWindow: 5 * time.Minute,
			AbandonAfter:   time.Hour,
		},
		RateLimit: RateLimitConfig{RPS: 50, Burst: 100},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, then environment variables, each layer overriding the previous.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	keys, err := ParseAPIKeys(cfg.APIKeysRaw)
	if err != nil {
		return Config{}, err
	}
	// Local dev fallback so the relay runs out-of-the-box.
	if len(keys) == 0 {
		keys["relay-key-123"] = "site1"
	}
	cfg.APIKeys = keys

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), cfg); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("HTTP_ADDR", &cfg.HTTPAddr)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("API_KEYS", &cfg.APIKeysRaw)

	setString("TRACKING_HOST", &cfg.Collector.TrackingHost)
	setString("SERVER_SIDE_HOST", &cfg.Collector.ServerSideHost)
	setString("COLLECTOR_API_KEY", &cfg.Collector.APIKey)
	setString("COLLECTOR_SERVER_TOKEN", &cfg.Collector.ServerToken)

	setString("SESSION_BACKEND", &cfg.Session.Backend)
	setString("DB_URL", &cfg.Session.DBURL)
	setString("REDIS_ADDR", &cfg.Session.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.Session.RedisPassword)

	var errs []error
	errs = append(errs,
		setDuration("COLLECTOR_TIMEOUT", &cfg.Collector.Timeout),
		setDuration("SESSION_TTL", &cfg.Session.TTL),
		setDuration("CHECKOUT_WINDOW", &cfg.Tracking.CheckoutWindow),
		setDuration("ABANDON_AFTER", &cfg.Tracking.AbandonAfter),
		setInt("REDIS_DB", &cfg.Session.RedisDB),
		setInt("RATE_LIMIT_BURST", &cfg.RateLimit.Burst),
		setFloat("RATE_LIMIT_RPS", &cfg.RateLimit.RPS),
		setBool("TRACK_COMMERCE", &cfg.Tracking.Commerce),
		setBool("AUTOCAPTURE", &cfg.Tracking.Autocapture),
		setBool("COOKIELESS", &cfg.Tracking.CookieLess),
	)
	return stderrors.Join(errs...)
}

func (c Config) validate() error {
	switch strings.ToLower(c.Session.Backend) {
	case "memory":
	case "postgres":
		if c.Session.DBURL == "" {
			return errors.New("DB_URL required for postgres session backend")
		}
	case "redis":
		if c.Session.RedisAddr == "" {
			return errors.New("REDIS_ADDR required for redis session backend")
		}
	default:
		return errors.Errorf("SESSION_BACKEND must be memory, postgres or redis, got %q", c.Session.Backend)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// ParseAPIKeys parses "site1:key1,site2:key2" into key -> site.
func ParseAPIKeys(raw string) (map[string]string, error) {
	apiKeys := map[string]string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, errors.New(`API_KEYS must be "site:key,site:key"`)
		}
		site := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if site == "" || key == "" {
			return nil, errors.New(`API_KEYS must be "site:key,site:key"`)
		}
		apiKeys[key] = site
	}
	return apiKeys, nil
}

func setString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(key string, dst *time.Duration) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return errors.Wrap(err, key)
	}
	*dst = d
	return nil
}

func setInt(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrap(err, key)
	}
	*dst = n
	return nil
}

func setFloat(key string, dst *float64) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return errors.Wrap(err, key)
	}
	*dst = f
	return nil
}

func setBool(key string, dst *bool) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return errors.Wrap(err, key)
	}
	*dst = b
	return nil
}
