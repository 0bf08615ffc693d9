// Package session stores the per-visitor flags used to suppress duplicate events.
// The flags belong to the host session; the relay only reads and writes them.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Store is the host session storage seen by the tracker.
type Store interface {
	// Get returns the flag value and whether it exists and has not expired.
	Get(ctx context.Context, session, key string) (string, bool, error)
	// Set writes a flag that expires after ttl. ttl <= 0 means no expiry.
	Set(ctx context.Context, session, key, value string, ttl time.Duration) error
	// CompareAndSet writes value only when the flag currently holds old. An
	// empty old requires the flag to be absent or expired. It reports whether
	// the write happened; concurrent callers racing on the same old value see
	// exactly one true.
	CompareAndSet(ctx context.Context, session, key, old, value string, ttl time.Duration) (bool, error)
	// Delete removes the given flags, or every flag of the session when keys is empty.
	Delete(ctx context.Context, session string, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	DBURL         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open builds the configured backend and verifies it is reachable.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendPostgres:
		st, err := NewPostgresStore(ctx, opts.DBURL)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	default:
		return nil, errors.Errorf("unknown session backend %q", opts.Backend)
	}
}

// Key namespaces a host session id by site so two sites never share flags.
func Key(site, sessionID string) string {
	if sessionID == "" {
		return ""
	}
	return site + ":" + sessionID
}
