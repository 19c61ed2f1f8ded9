package history

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Load decodes a dataset (JSON array of records) from r.
func Load(r io.Reader) ([]Record, error) {
	var out []Record
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return out, nil
}

func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func Write(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteFile writes records to path, creating parent directories.
func WriteFile(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Open returns the series stored at path, or the built-in milestone series
// when path is empty.
func Open(path string) (*Series, error) {
	if path == "" {
		return NewSeries(MilestoneRecords(DefaultProfiles())), nil
	}
	records, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewSeries(records), nil
}
