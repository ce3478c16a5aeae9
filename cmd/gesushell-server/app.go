package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gesushell/adapters/jsonfile"
	mem "gesushell/adapters/memory"
	"gesushell/adapters/redisdoc"
	sqlxAdapter "gesushell/adapters/sqlx"
	"gesushell/api/httpapi"
	"gesushell/config"
	"gesushell/core"
	"gesushell/engine"
	"gesushell/gesu"
	"gesushell/leaderboard"
	"gesushell/realtime"
	syncsvc "gesushell/sync"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Board   *leaderboard.SkipList
	Shell   *gesu.Shell
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideBoard() *leaderboard.SkipList {
	return leaderboard.NewSkipList()
}

func provideStorage(cfg *config.Config) (engine.Storage, error) {
	return setupStorage(cfg)
}

func provideShell(ctx context.Context, cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, board *leaderboard.SkipList, storage engine.Storage) (*gesu.Shell, error) {
	user, err := core.NormalizeUserID(core.UserID(cfg.User))
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", cfg.User, err)
	}
	opts := []gesu.Option{
		gesu.WithStorage(storage),
		gesu.WithUser(user),
		gesu.WithLogger(logger),
		gesu.WithRealtime(hub),
		gesu.WithLeaderboard(board),
	}
	if cfg.Sync.Enabled {
		docs, err := redisdoc.New(cfg.Sync.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect sync backend: %w", err)
		}
		opts = append(opts, gesu.WithSync(docs, syncsvc.WithDebounce(cfg.Sync.Debounce)))
	}
	return gesu.New(ctx, opts...), nil
}

func provideHandler(sh *gesu.Shell, cfg *config.Config) http.Handler {
	return httpapi.NewMux(sh.Store, sh.Sync, sh.Hub, sh.Board, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(cfg *config.Config) (engine.Storage, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "file":
		return jsonfile.New(cfg.Storage.File.Dir)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
