package store

import (
	"context"
	"os"
	"path/filepath"
)

// FileBlobs keeps one JSON file per key under a private directory.
type FileBlobs struct {
	dir string
}

// DefaultDir is ~/.wallst.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".wallst"), nil
}

func NewFileBlobs(dir string) (*FileBlobs, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileBlobs{dir: dir}, nil
}

func (f *FileBlobs) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileBlobs) Get(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return raw, nil
}

func (f *FileBlobs) Put(_ context.Context, key string, value []byte) error {
	return os.WriteFile(f.path(key), value, 0o600)
}

func (f *FileBlobs) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileBlobs) Close() error { return nil }
