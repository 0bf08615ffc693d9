package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/PratikDhanave/commerce-event-relay/internal/collector"
	"github.com/PratikDhanave/commerce-event-relay/internal/config"
	"github.com/PratikDhanave/commerce-event-relay/internal/httpserver"
	"github.com/PratikDhanave/commerce-event-relay/internal/log"
	"github.com/PratikDhanave/commerce-event-relay/internal/session"
	"github.com/PratikDhanave/commerce-event-relay/internal/tracking"
)

// main boots the relay: env → config → logger → session store → collector → HTTP server.
func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	if err := log.Init(cfg.LogLevel); err != nil {
		stdlog.Fatal(err)
	}
	logger := log.GetLogger()

	ctx := context.Background()

	store, err := session.Open(ctx, session.Options{
		Backend:       cfg.Session.Backend,
		DBURL:         cfg.Session.DBURL,
		RedisAddr:     cfg.Session.RedisAddr,
		RedisPassword: cfg.Session.RedisPassword,
		RedisDB:       cfg.Session.RedisDB,
	})
	if err != nil {
		logger.Fatal("failed to open session store", log.String("backend", cfg.Session.Backend), log.Error(err))
	}
	defer store.Close()

	// No scheduler runs in the relay; expired postgres rows are purged once per boot.
	if pg, ok := store.(*session.PostgresStore); ok {
		if n, err := pg.PurgeExpired(ctx); err != nil {
			logger.Warn("failed to purge expired session flags", log.Error(err))
		} else {
			logger.Info("purged expired session flags", log.Int("rows", int(n)))
		}
	}

	client := collector.New(
		cfg.Collector.TrackingHost,
		cfg.Collector.APIKey,
		cfg.Collector.ServerToken,
		collector.WithTimeout(cfg.Collector.Timeout),
		collector.WithServerSideHost(cfg.Collector.ServerSideHost),
	)
	if _, err := client.EndpointURL(); err != nil {
		// Boot anyway: every send reports false until credentials are fixed.
		logger.Warn("collector is not configured; events will not be delivered", log.Error(err))
	}

	tracker := tracking.New(client, store, tracking.Options{
		CheckoutWindow: cfg.Tracking.CheckoutWindow,
		AbandonAfter:   cfg.Tracking.AbandonAfter,
		FlagTTL:        cfg.Session.TTL,
	})

	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Store:     store,
		Tracker:   tracker,
		Sender:    client,
		CookieKey: client.APIKey(),
		Pixel:     client.Pixel(cfg.Tracking.Autocapture, cfg.Tracking.CookieLess),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server started",
			log.String("addr", cfg.HTTPAddr),
			log.String("session_backend", cfg.Session.Backend),
			log.Bool("commerce", cfg.Tracking.Commerce))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", log.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", log.Error(err))
	}
	logger.Info("server stopped")
}
