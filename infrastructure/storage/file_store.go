// Package storage provides persistence gateways for the full engine
// state snapshot. Every implementation saves atomically with respect to
// process crashes: a crash mid-save never leaves data that fails to load.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gridrival/podium/internal/domain"
	"github.com/gridrival/podium/internal/ports"
)

// Compile-time verification that FileStore implements StateStore.
var _ ports.StateStore = (*FileStore)(nil)

// FileStore persists the engine state as a single JSON document. Saves
// write to a uniquely named temporary file in the target directory, sync
// it, and rename it over the destination, so readers only ever observe a
// complete snapshot.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore persisting to the given path. The
// parent directory must exist; the file itself is created on first save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path must not be empty")
	}
	return &FileStore{path: path}, nil
}

// Load reads the last saved snapshot. A missing file yields the empty
// default state; undecodable data is reported as a corrupt snapshot
// rather than silently discarded.
func (fs *FileStore) Load(ctx context.Context) (domain.EngineState, error) {
	if err := ctx.Err(); err != nil {
		return domain.EngineState{}, err
	}

	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewEngineState(), nil
	}
	if err != nil {
		return domain.EngineState{}, fmt.Errorf("read state file %s: %w", fs.path, err)
	}

	var state domain.EngineState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.EngineState{}, fmt.Errorf("decode state file %s: %w: %v", fs.path, ports.ErrCorruptSnapshot, err)
	}
	state.Normalize()
	return state, nil
}

// Save atomically replaces the snapshot on disk via write-to-temp and
// rename. The temporary file lives in the destination directory so the
// rename never crosses filesystems.
func (fs *FileStore) Save(ctx context.Context, state domain.EngineState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(fs.path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", filepath.Base(fs.path), uuid.NewString()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmp, fs.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace state file %s: %w", fs.path, err)
	}
	return nil
}

// Path returns the snapshot's on-disk location.
func (fs *FileStore) Path() string { return fs.path }
