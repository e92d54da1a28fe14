package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-print"
	guard "github.com/goliatone/go-route-guard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	registerServeFlags(cmd.Flags())

	return cmd
}

func setupLogging(format string) (*slog.Logger, error) {
	var handler slog.Handler

	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	case "text":
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'json' or 'text'", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func runServe(ctx context.Context, cfg *serveConfig) error {
	logger, err := setupLogging(cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	users, err := newDirectory(cfg.Users)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sessions, closeSessions, err := newSessionBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	portal, err := newPortal(portalConfig{
		Guard:      cfg.Guard,
		Users:      users,
		Sessions:   sessions,
		SessionTTL: cfg.SessionTTL,
		Registry:   reg,
		Logger:     guard.SlogLogger(logger),
	})
	if err != nil {
		return err
	}

	logger.Info("starting portal",
		"addr", cfg.Addr,
		"sessions", sessions.Name(),
		"guard", print.MaybePrettyJSON(cfg.Guard),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- portal.app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down portal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return portal.app.ShutdownWithContext(shutdownCtx)
}

// newSessionBackend picks Redis sessions when an address is configured and
// signed tokens otherwise.
func newSessionBackend(cfg *serveConfig, logger *slog.Logger) (sessionBackend, func(), error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}

		backend := redisBackend{sessions: guard.NewRedisSessions(client,
			guard.WithRedisLogger(guard.SlogLogger(logger)),
		)}
		return backend, func() { _ = client.Close() }, nil
	}

	key := []byte(cfg.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		logger.Info("no signing key configured, sessions end on restart")
	}

	backend := tokenBackend{tokens: guard.NewTokenService(key,
		guard.WithIssuer("guard-demo"),
		guard.WithTokenTTL(cfg.SessionTTL),
		guard.WithTokenLogger(guard.SlogLogger(logger)),
	)}
	return backend, func() {}, nil
}
