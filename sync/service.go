// Package sync keeps the local gamification store convergent with a remote
// per-user document. Local state stays fully functional with zero remote
// connectivity; remote failures only ever surface in the sync status.
package sync

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"gesushell/core"
	"gesushell/engine"
)

// DefaultDebounce coalesces bursts of local mutations into one remote write.
const DefaultDebounce = 2 * time.Second

// Status mirrors the reconciliation state for display.
type Status struct {
	Online     bool      `json:"online"`
	IsSyncing  bool      `json:"is_syncing"`
	LastSyncAt time.Time `json:"last_sync_at"`
	Error      string    `json:"error,omitempty"`
}

// Service reconciles the store with a DocumentStore: debounced push on local
// change, merge-based pull on remote change.
type Service struct {
	store  *engine.Store
	docs   DocumentStore
	clock  core.Clock
	logger *slog.Logger

	writerID string
	debounce time.Duration

	mu             sync.Mutex
	status         Status
	applyingRemote bool
	timer          *time.Timer
	unsubLocal     func()
	unsubRemote    func()
	started        bool
}

// Option configures a Service.
type Option func(*Service)

func WithClock(c core.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebounce overrides the local-change coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithWriterID fixes the writer id (random by default).
func WithWriterID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.writerID = id
		}
	}
}

// New creates a reconciliation service for the store's user. Call Start to
// attach the listeners and Stop to tear them down.
func New(store *engine.Store, docs DocumentStore, opts ...Option) *Service {
	if store == nil || docs == nil {
		panic("sync.New requires non-nil store and document store")
	}
	s := &Service{
		store:    store,
		docs:     docs,
		clock:    core.SystemClock(),
		logger:   slog.Default(),
		writerID: randomWriterID(),
		debounce: DefaultDebounce,
		status:   Status{Online: true},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func randomWriterID() string {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return "writer-0"
	}
	return hex.EncodeToString(b[:])
}

// WriterID returns this process's writer id.
func (s *Service) WriterID() string { return s.writerID }

// Status returns a copy of the current sync status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start attaches the remote-change listener and the debounced local-change
// pusher. Safe to call once; subsequent calls are no-ops.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	unsubRemote, err := s.docs.Subscribe(ctx, s.store.User(), s.onRemoteChange)
	if err != nil {
		s.mu.Lock()
		s.started = false
		s.status.Error = err.Error()
		s.mu.Unlock()
		return err
	}
	unsubLocal := s.store.Subscribe(s.onLocalChange)

	s.mu.Lock()
	s.unsubRemote = unsubRemote
	s.unsubLocal = unsubLocal
	s.mu.Unlock()
	return nil
}

// Stop detaches both listeners and cancels a pending debounce. Idempotent;
// an in-flight remote write is not cancelled.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	unsubLocal, unsubRemote := s.unsubLocal, s.unsubRemote
	s.unsubLocal, s.unsubRemote = nil, nil
	s.started = false
	s.mu.Unlock()

	if unsubLocal != nil {
		unsubLocal()
	}
	if unsubRemote != nil {
		unsubRemote()
	}
}

// SetOnline flips connectivity. Regaining connectivity immediately attempts
// one push; losing it only marks the status.
func (s *Service) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	was := s.status.Online
	s.status.Online = online
	s.mu.Unlock()
	if online && !was {
		s.SyncToCloud(ctx)
	}
}

// Snapshot returns the syncable view of the current local state, shaped
// exactly as SyncToCloud would push it.
func (s *Service) Snapshot() Document {
	return DocumentFromState(s.store.State(), s.writerID, s.clock.Now())
}

// SyncToCloud pushes the syncable view of local state to the remote
// document. Returns false when offline or on failure; local state is never
// touched.
func (s *Service) SyncToCloud(ctx context.Context) bool {
	s.mu.Lock()
	if !s.status.Online {
		s.mu.Unlock()
		return false
	}
	s.status.IsSyncing = true
	s.mu.Unlock()

	doc := DocumentFromState(s.store.State(), s.writerID, s.clock.Now())
	err := s.docs.Set(ctx, s.store.User(), doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.IsSyncing = false
	if err != nil {
		s.status.Error = err.Error()
		s.logger.Warn("push to cloud failed", "user", s.store.User(), "error", err)
		return false
	}
	s.status.Error = ""
	s.status.LastSyncAt = s.clock.Now()
	return true
}

// SyncFromCloud pulls the remote document and merges it into local state. An
// absent document bootstraps the remote from local instead. While the merged
// state is applied, the local-change pusher is suppressed to avoid a
// feedback loop.
func (s *Service) SyncFromCloud(ctx context.Context) bool {
	s.mu.Lock()
	if !s.status.Online {
		s.mu.Unlock()
		return false
	}
	s.status.IsSyncing = true
	s.mu.Unlock()

	doc, err := s.docs.Get(ctx, s.store.User())
	if err != nil {
		s.mu.Lock()
		s.status.IsSyncing = false
		s.status.Error = err.Error()
		s.mu.Unlock()
		s.logger.Warn("pull from cloud failed", "user", s.store.User(), "error", err)
		return false
	}
	if doc == nil {
		s.mu.Lock()
		s.status.IsSyncing = false
		s.mu.Unlock()
		return s.SyncToCloud(ctx)
	}

	merged := core.Merge(s.store.State(), doc.ToState(s.store.User()))

	s.mu.Lock()
	s.applyingRemote = true
	s.mu.Unlock()
	s.store.SaveStateDirect(ctx, merged)
	// a merged-in higher level or streak may imply cosmetic unlocks
	s.store.UnlockEligibleCosmetics(ctx)
	s.mu.Lock()
	s.applyingRemote = false
	s.status.IsSyncing = false
	s.status.Error = ""
	s.status.LastSyncAt = s.clock.Now()
	s.mu.Unlock()
	return true
}

// onLocalChange (re)arms the debounce timer unless the change originated
// from a cloud merge we are currently applying.
func (s *Service) onLocalChange(core.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyingRemote || !s.started {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.SyncToCloud(context.Background())
	})
}

// onRemoteChange pulls on any remote write that is not an echo of our own.
func (s *Service) onRemoteChange(doc Document) {
	if doc.WriterID == s.writerID {
		return
	}
	s.SyncFromCloud(context.Background())
}
