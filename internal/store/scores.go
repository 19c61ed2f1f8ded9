package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"wallst/internal/game"
)

const DefaultScoreLimit = 10

// Scores is the top-N high score list. It satisfies game.ScoreRecorder.
type Scores struct {
	blobs Blobs
	limit int
	log   *slog.Logger
	mu    sync.Mutex
}

var _ game.ScoreRecorder = (*Scores)(nil)

func NewScores(blobs Blobs, limit int, logger *slog.Logger) *Scores {
	if limit <= 0 {
		limit = DefaultScoreLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scores{blobs: blobs, limit: limit, log: logger}
}

// List returns the ranked scores. A missing or corrupt blob reads as empty.
func (s *Scores) List(ctx context.Context) ([]game.HighScore, error) {
	raw, err := s.blobs.Get(ctx, KeyHighScores)
	if errors.Is(err, ErrNotFound) {
		return []game.HighScore{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []game.HighScore
	if err := json.Unmarshal(raw, &out); err != nil {
		s.log.Warn("discarding corrupt high scores", "err", err)
		return []game.HighScore{}, nil
	}
	return game.RankScores(out, s.limit), nil
}

func (s *Scores) Record(ctx context.Context, score game.HighScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	ranked := game.RankScores(append(existing, score), s.limit)
	raw, err := json.Marshal(ranked)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, KeyHighScores, raw)
}

// Sessions stores the single in-progress game. It satisfies game.SessionStore.
type Sessions struct {
	blobs Blobs
	log   *slog.Logger
}

var _ game.SessionStore = (*Sessions)(nil)

func NewSessions(blobs Blobs, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{blobs: blobs, log: logger}
}

// Load returns the saved game. ok is false when nothing usable is stored.
func (s *Sessions) Load(ctx context.Context) (game.GameState, bool, error) {
	raw, err := s.blobs.Get(ctx, KeySession)
	if errors.Is(err, ErrNotFound) {
		return game.GameState{}, false, nil
	}
	if err != nil {
		return game.GameState{}, false, err
	}
	var st game.GameState
	if err := json.Unmarshal(raw, &st); err != nil {
		s.log.Warn("discarding corrupt session", "err", err)
		return game.GameState{}, false, nil
	}
	if st.Date.IsZero() || len(st.Instruments) == 0 {
		s.log.Warn("discarding incomplete session")
		return game.GameState{}, false, nil
	}
	return st, true, nil
}

func (s *Sessions) Save(ctx context.Context, st game.GameState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, KeySession, raw)
}

func (s *Sessions) Clear(ctx context.Context) error {
	return s.blobs.Delete(ctx, KeySession)
}
