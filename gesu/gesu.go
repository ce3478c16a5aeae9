// Package gesu is the one-import entry point: it assembles the store, the
// optional cloud reconciler, the realtime bridge, and the leaderboard feed
// behind a small options builder.
package gesu

import (
	"context"
	"log/slog"

	"gesushell/adapters/memory"
	"gesushell/core"
	"gesushell/engine"
	"gesushell/leaderboard"
	"gesushell/realtime"
	syncsvc "gesushell/sync"
)

// Option configures the Shell builder.
type Option func(*config)

type config struct {
	storage  engine.Storage
	user     core.UserID
	clock    core.Clock
	logger   *slog.Logger
	hub      *realtime.Hub
	board    leaderboard.Board
	docs     syncsvc.DocumentStore
	syncOpts []syncsvc.Option
}

// WithStorage sets the persistence adapter (defaults to in-memory).
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithUser sets the local player (defaults to core.DefaultUser).
func WithUser(u core.UserID) Option { return func(c *config) { c.user = u } }

// WithClock injects a time source, mainly for tests.
func WithClock(clk core.Clock) Option { return func(c *config) { c.clock = clk } }

// WithLogger overrides the logger for the store and the sync service.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithRealtime wires a hub to receive all store events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithLeaderboard feeds a board from XP events.
func WithLeaderboard(b leaderboard.Board) Option { return func(c *config) { c.board = b } }

// WithSync enables cloud reconciliation against a remote document store.
func WithSync(docs syncsvc.DocumentStore, opts ...syncsvc.Option) Option {
	return func(c *config) {
		c.docs = docs
		c.syncOpts = opts
	}
}

// Shell bundles the assembled pieces. Close detaches bridges and stops sync.
type Shell struct {
	Store *engine.Store
	Sync  *syncsvc.Service
	Hub   *realtime.Hub
	Board leaderboard.Board

	detach []func()
}

// New builds a Shell. Zero options give a working offline in-memory setup.
func New(ctx context.Context, opts ...Option) *Shell {
	cfg := &config{user: core.DefaultUser}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = memory.New()
	}

	var storeOpts []engine.StoreOption
	if cfg.clock != nil {
		storeOpts = append(storeOpts, engine.WithClock(cfg.clock))
	}
	if cfg.logger != nil {
		storeOpts = append(storeOpts, engine.WithLogger(cfg.logger))
	}
	store := engine.NewStore(ctx, cfg.storage, cfg.user, storeOpts...)

	sh := &Shell{Store: store, Hub: cfg.hub, Board: cfg.board}

	if cfg.hub != nil {
		sh.detach = append(sh.detach, realtime.BridgeBus(store.Bus(), cfg.hub))
	}
	if cfg.board != nil {
		sh.detach = append(sh.detach, leaderboard.Attach(store.Bus(), cfg.board))
	}
	if cfg.docs != nil {
		syncOpts := cfg.syncOpts
		if cfg.clock != nil {
			syncOpts = append([]syncsvc.Option{syncsvc.WithClock(cfg.clock)}, syncOpts...)
		}
		if cfg.logger != nil {
			syncOpts = append([]syncsvc.Option{syncsvc.WithLogger(cfg.logger)}, syncOpts...)
		}
		sh.Sync = syncsvc.New(store, cfg.docs, syncOpts...)
	}

	return sh
}

// Start begins cloud reconciliation if sync is configured.
func (s *Shell) Start(ctx context.Context) error {
	if s.Sync == nil {
		return nil
	}
	return s.Sync.Start(ctx)
}

// Close stops sync and detaches the realtime and leaderboard bridges.
func (s *Shell) Close() {
	if s.Sync != nil {
		s.Sync.Stop()
	}
	for _, d := range s.detach {
		d()
	}
	s.detach = nil
}
