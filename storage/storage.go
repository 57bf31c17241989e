// Package storage persists run state between scrape executions: the
// duplicate-URL filter and a rolling run history.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var ErrNotFound = errors.New("state not found")

// StateStore defines persistence for run state. Concrete implementations can
// plug in file, Redis, or cloud stores later.
type StateStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// FileStore persists state as JSON blobs on disk under BaseDir, one file per
// key.
type FileStore struct {
	BaseDir string
}

func (f *FileStore) pathFor(key string) string {
	safe := filepath.Base(key)
	return filepath.Join(f.BaseDir, safe+".json")
}

func (f *FileStore) ensureDir() error {
	if f.BaseDir == "" {
		f.BaseDir = "data"
	}
	return os.MkdirAll(f.BaseDir, 0o755)
}

func (f *FileStore) Save(_ context.Context, key string, data []byte) error {
	if err := f.ensureDir(); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if key == "" {
		return errors.New("empty key")
	}
	return os.WriteFile(f.pathFor(key), data, 0o600)
}

func (f *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	if err := f.ensureDir(); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	if key == "" {
		return nil, errors.New("empty key")
	}
	b, err := os.ReadFile(f.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.New("empty key")
	}
	if err := os.Remove(f.pathFor(key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

const (
	seenKey    = "seen_urls"
	historyKey = "run_history"

	// maxHistory bounds the run history so the state file does not grow
	// without limit.
	maxHistory = 100
)

// RunRecord summarizes one completed scrape run.
type RunRecord struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Keywords   []string  `json:"keywords"`
	Videos     int       `json:"videos"`
	Outputs    []string  `json:"outputs,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// RunState wraps a StateStore with the typed operations the scraper needs.
type RunState struct {
	store StateStore
}

func NewRunState(store StateStore) *RunState {
	return &RunState{store: store}
}

// SeenURLs loads the persisted duplicate filter. A missing key is a fresh
// start, not an error.
func (r *RunState) SeenURLs(ctx context.Context) ([]string, error) {
	b, err := r.store.Load(ctx, seenKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load seen urls: %w", err)
	}

	var urls []string
	if err := json.Unmarshal(b, &urls); err != nil {
		return nil, fmt.Errorf("decode seen urls: %w", err)
	}
	return urls, nil
}

// SaveSeenURLs persists the duplicate filter.
func (r *RunState) SaveSeenURLs(ctx context.Context, urls []string) error {
	b, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encode seen urls: %w", err)
	}
	if err := r.store.Save(ctx, seenKey, b); err != nil {
		return fmt.Errorf("save seen urls: %w", err)
	}
	return nil
}

// History loads the run history, newest last. Missing key means no runs yet.
func (r *RunState) History(ctx context.Context) ([]RunRecord, error) {
	b, err := r.store.Load(ctx, historyKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load run history: %w", err)
	}

	var records []RunRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode run history: %w", err)
	}
	return records, nil
}

// AppendRun records a completed run, keeping only the most recent entries.
func (r *RunState) AppendRun(ctx context.Context, rec RunRecord) error {
	records, err := r.History(ctx)
	if err != nil {
		return err
	}

	records = append(records, rec)
	if len(records) > maxHistory {
		records = records[len(records)-maxHistory:]
	}

	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode run history: %w", err)
	}
	if err := r.store.Save(ctx, historyKey, b); err != nil {
		return fmt.Errorf("save run history: %w", err)
	}
	return nil
}
