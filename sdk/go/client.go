package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"gesushell/core"
	"gesushell/engine"
	syncsvc "gesushell/sync"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the Gesu Shell HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// AwardXP awards XP for the given reason. Pass a non-empty taskID to make the
// award idempotent per task; Rewarded is false when the task already paid out.
func (c *Client) AwardXP(ctx context.Context, reason core.Reason, taskID core.TaskID) (AwardResult, error) {
	u, err := url.Parse(c.baseURL + "/xp")
	if err != nil {
		return AwardResult{}, err
	}
	q := u.Query()
	q.Set("reason", string(reason))
	if taskID != "" {
		q.Set("task", string(taskID))
	}
	u.RawQuery = q.Encode()

	var body struct {
		Rewarded *bool `json:"rewarded"`
		engine.XPResult
	}
	if err := c.doJSON(ctx, http.MethodPost, u.String(), &body); err != nil {
		return AwardResult{}, err
	}
	if body.Rewarded != nil && !*body.Rewarded {
		return AwardResult{Rewarded: false}, nil
	}
	return AwardResult{Rewarded: true, Result: body.XPResult}, nil
}

// GetState fetches the full gamification state.
func (c *Client) GetState(ctx context.Context) (core.State, error) {
	var st core.State
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/state", &st); err != nil {
		return core.State{}, err
	}
	return st, nil
}

// GetLevel fetches level progress details.
func (c *Client) GetLevel(ctx context.Context) (core.LevelInfo, error) {
	var li core.LevelInfo
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/level", &li); err != nil {
		return core.LevelInfo{}, err
	}
	return li, nil
}

// GetCombo fetches the current combo window.
func (c *Client) GetCombo(ctx context.Context) (core.ComboInfo, error) {
	var ci core.ComboInfo
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/combo", &ci); err != nil {
		return core.ComboInfo{}, err
	}
	return ci, nil
}

// GetPet fetches the companion's evolution stage and mood.
func (c *Client) GetPet(ctx context.Context) (core.PetInfo, error) {
	var pi core.PetInfo
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/pet", &pi); err != nil {
		return core.PetInfo{}, err
	}
	return pi, nil
}

// UnlockCosmetic attempts an unlock; returns false when the gate is not met.
func (c *Client) UnlockCosmetic(ctx context.Context, id core.CosmeticID) (bool, error) {
	var body struct {
		Unlocked bool `json:"unlocked"`
	}
	u := fmt.Sprintf("%s/cosmetics/%s/unlock", c.baseURL, url.PathEscape(string(id)))
	if err := c.doJSON(ctx, http.MethodPost, u, &body); err != nil {
		return false, err
	}
	return body.Unlocked, nil
}

// EquipCosmetic equips an unlocked cosmetic into its slot.
func (c *Client) EquipCosmetic(ctx context.Context, id core.CosmeticID) error {
	u := fmt.Sprintf("%s/cosmetics/%s/equip", c.baseURL, url.PathEscape(string(id)))
	return c.doJSON(ctx, http.MethodPost, u, nil)
}

// SyncStatus fetches the cloud reconciliation status.
func (c *Client) SyncStatus(ctx context.Context) (syncsvc.Status, error) {
	var st syncsvc.Status
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/sync/status", &st); err != nil {
		return syncsvc.Status{}, err
	}
	return st, nil
}

// Health probes /healthz and returns status + store check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/healthz", &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var evt core.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				select {
				case out <- evt:
				default:
					// drop if consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
