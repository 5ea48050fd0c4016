package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// Snapshot is the durable form of a session.
type Snapshot struct {
	Tokens  TokenState   `json:"tokens"`
	Profile *UserProfile `json:"profile,omitempty"`
	Codes   []string     `json:"codes,omitempty"`
}

// Persister stores and reloads session snapshots between process runs.
type Persister interface {
	Save(Snapshot) error
	// Load reports false when nothing has been saved.
	Load() (Snapshot, bool, error)
	Clear() error
}

// FilePersister keeps the snapshot as JSON in a single file. Writes replace
// the file atomically so a crash never leaves a torn snapshot behind.
type FilePersister struct {
	path string
}

// NewFilePersister returns a persister writing to path. The parent directory
// is created on first save.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the snapshot file location.
func (p *FilePersister) Path() string {
	return p.path
}

func (p *FilePersister) Save(s Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := atomic.WriteFile(p.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write session snapshot: %w", err)
	}
	return nil
}

func (p *FilePersister) Load() (Snapshot, bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("read session snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode session snapshot: %w", err)
	}
	return s, true, nil
}

func (p *FilePersister) Clear() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session snapshot: %w", err)
	}
	return nil
}
