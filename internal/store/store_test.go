package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"wallst/internal/game"
	"wallst/internal/market"
)

func backends(t *testing.T) map[string]Blobs {
	t.Helper()
	file, err := NewFileBlobs(t.TempDir())
	if err != nil {
		t.Fatalf("file blobs: %v", err)
	}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return map[string]Blobs{
		"file":  file,
		"redis": NewRedisBlobs(rdb),
	}
}

func TestBlobsGetPutDelete(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := b.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := b.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := b.Get(ctx, "k")
			if err != nil || string(got) != `{"a":1}` {
				t.Fatalf("get got=%q err=%v", got, err)
			}
			if err := b.Delete(ctx, "k"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := b.Delete(ctx, "k"); err != nil {
				t.Fatalf("second delete: %v", err)
			}
			if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestScoresRankedAndTruncated(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			scores := NewScores(b, 3, nil)
			for i, nw := range []float64{500, 9000, 100, 12000, 7000} {
				if err := scores.Record(ctx, game.HighScore{ID: fmt.Sprint(i), NetWorth: nw}); err != nil {
					t.Fatalf("record: %v", err)
				}
			}
			got, err := scores.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("expected 3 scores, got %d", len(got))
			}
			want := []float64{12000, 9000, 7000}
			for i := range want {
				if got[i].NetWorth != want[i] {
					t.Fatalf("rank %d got=%v want=%v", i, got[i].NetWorth, want[i])
				}
			}
		})
	}
}

func TestScoresTolerateCorruptBlob(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := b.Put(ctx, KeyHighScores, []byte("not json")); err != nil {
				t.Fatalf("put: %v", err)
			}
			scores := NewScores(b, 0, nil)
			got, err := scores.List(ctx)
			if err != nil || len(got) != 0 {
				t.Fatalf("expected empty list, got %v err=%v", got, err)
			}
			if err := scores.Record(ctx, game.HighScore{ID: "x", NetWorth: 1}); err != nil {
				t.Fatalf("record over corrupt blob: %v", err)
			}
			got, _ = scores.List(ctx)
			if len(got) != 1 {
				t.Fatalf("expected corrupt blob replaced, got %v", got)
			}
		})
	}
}

func TestSessionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	start := time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)
	st := game.GameState{
		Date:        start.AddDate(0, 2, 3),
		StartDate:   start,
		Cash:        1234.5,
		InitialCash: 10_000,
		Mode:        market.ModeHistorical,
		Speed:       game.SpeedNormal,
		Instruments: []market.Instrument{{
			Symbol:  "MSFT",
			Price:   3.21,
			Group:   market.GroupNASDAQ,
			History: []market.PricePoint{{Date: start, Price: 3.2}},
		}},
		Messages: []string{"hello"},
		Unlocked: []market.Group{market.GroupNASDAQ},
	}
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			sessions := NewSessions(b, nil)
			if _, ok, err := sessions.Load(ctx); ok || err != nil {
				t.Fatalf("expected empty session, ok=%v err=%v", ok, err)
			}
			if err := sessions.Save(ctx, st); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, ok, err := sessions.Load(ctx)
			if err != nil || !ok {
				t.Fatalf("load ok=%v err=%v", ok, err)
			}
			if !got.Date.Equal(st.Date) || !got.StartDate.Equal(start) || got.Cash != st.Cash || got.Speed != st.Speed {
				t.Fatalf("session mismatch: %+v", got)
			}
			if !got.Instruments[0].History[0].Date.Equal(start) {
				t.Fatalf("history date not revived: %+v", got.Instruments[0].History)
			}
			if err := sessions.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if _, ok, _ := sessions.Load(ctx); ok {
				t.Fatalf("expected session cleared")
			}
		})
	}
}

func TestSessionsDiscardCorrupt(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = b.Put(ctx, KeySession, []byte(`{"current_date":"yesterday"}`))
			if _, ok, err := NewSessions(b, nil).Load(ctx); ok || err != nil {
				t.Fatalf("expected corrupt session ignored, ok=%v err=%v", ok, err)
			}
			_ = b.Put(ctx, KeySession, []byte(`{}`))
			if _, ok, err := NewSessions(b, nil).Load(ctx); ok || err != nil {
				t.Fatalf("expected empty session ignored, ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Config{Backend: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	b, err := Open(context.Background(), Config{Backend: BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("open file backend: %v", err)
	}
	_ = b.Close()
}

func TestEngineRecordsIntoStore(t *testing.T) {
	ctx := context.Background()
	b, _ := NewFileBlobs(t.TempDir())
	scores := NewScores(b, 10, nil)
	sessions := NewSessions(b, nil)
	cfg := game.DefaultConfig()
	cfg.TickInterval = time.Hour
	e := game.NewEngine(cfg, game.Options{Scores: scores, Sessions: sessions})
	if _, err := e.Start(market.ModeRandom, 2000, 10_000); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.TogglePlay(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, ok, _ := sessions.Load(ctx); !ok {
		t.Fatalf("expected session saved on pause")
	}
	if _, err := e.End(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, ok, _ := sessions.Load(ctx); ok {
		t.Fatalf("expected session cleared on end")
	}
	got, _ := scores.List(ctx)
	if len(got) != 1 || got[0].StartYear != 2000 {
		t.Fatalf("unexpected scores %+v", got)
	}
	_ = e.Close(ctx)
}
