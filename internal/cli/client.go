package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"wallst/internal/game"
	"wallst/internal/market"
)

// StateView mirrors the state payload returned by wallst-api.
type StateView struct {
	Phase    game.Phase     `json:"phase"`
	NetWorth float64        `json:"net_worth"`
	State    game.GameState `json:"state"`
}

type License struct {
	Group    market.Group `json:"group"`
	Cost     float64      `json:"cost"`
	Unlocked bool         `json:"unlocked"`
}

type EndResult struct {
	Score   game.HighScore `json:"score"`
	Summary game.Summary   `json:"summary"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) State(ctx context.Context) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out)
	return out, err
}

func (c *Client) Start(ctx context.Context, mode market.Mode, startYear int, initialCash float64) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/start", map[string]any{
		"mode":         mode,
		"start_year":   startYear,
		"initial_cash": initialCash,
	}, &out)
	return out, err
}

func (c *Client) Resume(ctx context.Context) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/resume", nil, &out)
	return out, err
}

func (c *Client) Toggle(ctx context.Context) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/toggle", nil, &out)
	return out, err
}

func (c *Client) SetSpeed(ctx context.Context, tier string) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/speed", map[string]any{"tier": tier}, &out)
	return out, err
}

func (c *Client) Advance(ctx context.Context, days int) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/tick", map[string]any{"days": days}, &out)
	return out, err
}

func (c *Client) PlaceOrder(ctx context.Context, symbol, side string, qty int64) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/orders", game.OrderInput{
		Symbol:   symbol,
		Side:     side,
		Quantity: qty,
	}, &out)
	return out, err
}

func (c *Client) Licenses(ctx context.Context) ([]License, error) {
	var out struct {
		Licenses []License `json:"licenses"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/licenses", nil, &out)
	return out.Licenses, err
}

func (c *Client) Unlock(ctx context.Context, group market.Group) (StateView, error) {
	var out StateView
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/licenses", map[string]any{"group": group}, &out)
	return out, err
}

func (c *Client) Tip(ctx context.Context) (string, StateView, error) {
	var out struct {
		Tip   string    `json:"tip"`
		State StateView `json:"state"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/tips", nil, &out)
	return out.Tip, out.State, err
}

func (c *Client) Instrument(ctx context.Context, symbol string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/instruments/"+url.PathEscape(symbol), nil, &out)
	return out, err
}

func (c *Client) End(ctx context.Context) (EndResult, error) {
	var out EndResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/end", nil, &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context) (game.Summary, error) {
	var out game.Summary
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/summary", nil, &out)
	return out, err
}

func (c *Client) Scores(ctx context.Context) ([]game.HighScore, error) {
	var out struct {
		Scores []game.HighScore `json:"scores"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/scores", nil, &out)
	return out.Scores, err
}

// Watch reads pushed state frames until ctx ends, the server closes the
// stream, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(StateView) error) error {
	u, err := url.Parse(c.BaseURL + "/v1/stream")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var v StateView
		if err := conn.ReadJSON(&v); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				return nil
			}
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var payload struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
