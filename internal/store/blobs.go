package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	KeyHighScores = "highscores"
	KeySession    = "session"
)

var ErrNotFound = errors.New("blob not found")

// Blobs is a small key/value store for JSON documents.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Backend string

const (
	BackendFile     Backend = "file"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
)

type Config struct {
	Backend     Backend
	Dir         string
	RedisURL    string
	DatabaseURL string
	MongoURI    string
	MongoDB     string
}

// Open connects the configured backend.
func Open(ctx context.Context, cfg Config) (Blobs, error) {
	var (
		blobs Blobs
		err   error
	)
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case "", BackendFile:
		blobs, err = NewFileBlobs(cfg.Dir)
	case BackendRedis:
		blobs, err = DialRedis(ctx, cfg.RedisURL)
	case BackendPostgres:
		blobs, err = DialPostgres(ctx, cfg.DatabaseURL)
	case BackendMongo:
		blobs, err = DialMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return blobs, nil
}
