package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	wsadapter "gesushell/adapters/websocket"
	"gesushell/core"
	"gesushell/engine"
	"gesushell/leaderboard"
	"gesushell/realtime"
	syncsvc "gesushell/sync"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// NewMux builds an http.Handler exposing the gamification store, the sync
// status, and the realtime event stream to the shell UI.
// Routes:
//   - GET  {prefix}/state | /level | /combo | /streak | /pet | /achievements | /cosmetics
//   - POST {prefix}/xp?reason=dod_item[&task=id]
//   - POST {prefix}/cosmetics/{id}/unlock | /cosmetics/{id}/equip
//   - POST {prefix}/slots/{slot}/unequip
//   - POST {prefix}/sound?enabled=true|false
//   - GET  {prefix}/sync/status, POST {prefix}/sync/push | /sync/pull
//   - GET  {prefix}/leaderboard?n=10
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws
func NewMux(store *engine.Store, svc *syncsvc.Service, hub *realtime.Hub, board leaderboard.Board, opts Options) http.Handler {
	mux := http.NewServeMux()
	p := func(path string) string { return withPrefix(opts.PathPrefix, path) }

	mux.HandleFunc(p("/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, store)
	})

	if hub != nil {
		mux.Handle(p("/ws"), wsadapter.Handler(hub))
	}

	// Read surface
	mux.HandleFunc(p("/state"), getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.State())
	}))
	mux.HandleFunc(p("/level"), getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.LevelInfo())
	}))
	mux.HandleFunc(p("/combo"), getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.Combo())
	}))
	mux.HandleFunc(p("/streak"), getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"streak": store.Streak()})
	}))
	mux.HandleFunc(p("/pet"), getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.PetInfo())
	}))
	mux.HandleFunc(p("/achievements"), getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"unlocked": store.Achievements(),
			"catalog":  core.AllAchievements(),
		})
	}))

	// XP awards with the task idempotency guard
	mux.HandleFunc(p("/xp"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", nil)
			return
		}
		reason := core.Reason(r.URL.Query().Get("reason"))
		base := core.BaseXP(reason)
		if base == 0 {
			writeError(w, http.StatusBadRequest, "invalid_reason", "unknown xp reason", nil)
			return
		}
		if task := core.TaskID(r.URL.Query().Get("task")); task != "" {
			if store.HasTaskBeenRewarded(task) {
				writeJSON(w, map[string]any{"rewarded": false})
				return
			}
			store.MarkTaskRewarded(r.Context(), task)
		}
		res := store.AddXP(r.Context(), base, reason)
		writeJSON(w, res)
	})

	// Cosmetics
	mux.HandleFunc(p("/cosmetics"), getOnly(func(w http.ResponseWriter, r *http.Request) {
		st := store.State()
		writeJSON(w, map[string]any{
			"catalog":  core.AllCosmetics(),
			"unlocked": keysOfCosmetics(st.UnlockedCosmetics),
			"equipped": st.EquippedCosmetics,
		})
	}))
	mux.HandleFunc(p("/cosmetics/"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", nil)
			return
		}
		parts := split(strings.TrimPrefix(r.URL.Path, p("/cosmetics/")), '/')
		if len(parts) != 2 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		id := core.CosmeticID(parts[0])
		switch parts[1] {
		case "unlock":
			writeJSON(w, map[string]any{"unlocked": store.UnlockCosmetic(r.Context(), id)})
		case "equip":
			if !store.EquipCosmetic(r.Context(), id) {
				writeError(w, http.StatusConflict, "locked", "cosmetic is not unlocked", nil)
				return
			}
			writeJSON(w, map[string]any{"equipped": true})
		default:
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		}
	})
	mux.HandleFunc(p("/slots/"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST required", nil)
			return
		}
		parts := split(strings.TrimPrefix(r.URL.Path, p("/slots/")), '/')
		if len(parts) != 2 || parts[1] != "unequip" {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		store.UnequipCosmetic(r.Context(), core.CosmeticSlot(parts[0]))
		writeJSON(w, map[string]any{"equipped": false})
	})

	mux.HandleFunc(p("/sound"), func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]any{"enabled": store.SoundEnabled()})
		case http.MethodPost:
			enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_enabled", "enabled must be a boolean", nil)
				return
			}
			store.SetSoundEnabled(r.Context(), enabled)
			writeJSON(w, map[string]any{"enabled": enabled})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET or POST required", nil)
		}
	})

	// Sync surface (absent when running purely offline)
	if svc != nil {
		mux.HandleFunc(p("/sync/status"), getOnly(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, svc.Status())
		}))
		mux.HandleFunc(p("/sync/push"), func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"ok": svc.SyncToCloud(r.Context())})
		})
		mux.HandleFunc(p("/sync/pull"), func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"ok": svc.SyncFromCloud(r.Context())})
		})
	}

	if board != nil {
		mux.HandleFunc(p("/leaderboard"), getOnly(func(w http.ResponseWriter, r *http.Request) {
			n := 10
			if raw := r.URL.Query().Get("n"); raw != "" {
				if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
					n = parsed
				}
			}
			writeJSON(w, board.TopN(n))
		}))
	}

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

// Helpers

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET required", nil)
			return
		}
		next(w, r)
	}
}

func keysOfCosmetics(set map[core.CosmeticID]struct{}) []core.CosmeticID {
	out := make([]core.CosmeticID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// healthCheck verifies the store is readable.
func healthCheck(w http.ResponseWriter, store *engine.Store) {
	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{"store": "ok"},
	}
	if warns := store.Warnings(); len(warns) > 0 {
		status["schema_warnings"] = warns
	}
	w.WriteHeader(http.StatusOK)
	writeJSON(w, status)
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func split(p string, sep rune) []string {
	var parts []string
	cur := make([]rune, 0, len(p))
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for _, r := range p {
		if r == sep {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a simple token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}
