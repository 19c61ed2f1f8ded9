package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallst/internal/api"
	"wallst/internal/config"
	"wallst/internal/game"
	"wallst/internal/market"
	"wallst/internal/store"
)

type midRand struct{}

func (midRand) Float64() float64 { return 0.5 }
func (midRand) Intn(int) int     { return 0 }

func newClient(t *testing.T) (*Client, *game.Engine) {
	t.Helper()
	blobs, err := store.NewFileBlobs(t.TempDir())
	if err != nil {
		t.Fatalf("blobs: %v", err)
	}
	scores := store.NewScores(blobs, 10, nil)
	sessions := store.NewSessions(blobs, nil)
	cfg := game.DefaultConfig()
	cfg.TickInterval = time.Hour
	engine := game.NewEngine(cfg, game.Options{Rand: midRand{}, Scores: scores, Sessions: sessions})
	srv := httptest.NewServer(api.New(config.APIConfig{}, nil, engine, scores, sessions).Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = engine.Close(context.Background())
	})
	return NewClient(srv.URL + "/"), engine
}

func TestClientGameFlow(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	v, err := c.Start(ctx, market.ModeRandom, 2010, 20_000)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if v.State.Cash != 20_000 || v.Phase != game.PhaseRunning {
		t.Fatalf("unexpected start %+v", v)
	}

	v, err = c.PlaceOrder(ctx, "MSFT", "buy", 3)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if len(v.State.Holdings) != 1 {
		t.Fatalf("expected one holding, got %+v", v.State.Holdings)
	}

	v, err = c.Advance(ctx, 2)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !v.State.Date.Equal(time.Date(2010, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", v.State.Date)
	}

	licenses, err := c.Licenses(ctx)
	if err != nil || len(licenses) != 4 {
		t.Fatalf("licenses=%v err=%v", licenses, err)
	}

	res, err := c.End(ctx)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	scores, err := c.Scores(ctx)
	if err != nil || len(scores) != 1 || scores[0].ID != res.Score.ID {
		t.Fatalf("scores=%v err=%v", scores, err)
	}
}

func TestClientSurfacesAPIError(t *testing.T) {
	c, _ := newClient(t)
	_, err := c.PlaceOrder(context.Background(), "AAPL", "buy", 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message == "" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestClientWatch(t *testing.T) {
	c, engine := newClient(t)
	if _, err := c.Start(context.Background(), market.ModeRandom, 2000, 10_000); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errStop := errors.New("stop")
	frames := 0
	err := c.Watch(ctx, func(v StateView) error {
		frames++
		if frames == 1 {
			if _, err := engine.Buy("AAPL", 1); err != nil {
				t.Errorf("buy: %v", err)
			}
			return nil
		}
		if len(v.State.Holdings) != 1 {
			t.Errorf("expected holding in frame %d", frames)
		}
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("watch returned %v", err)
	}
}
