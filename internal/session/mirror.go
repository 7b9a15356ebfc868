package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

// DefaultMirrorFile is the fixed file name of the durable session blob.
const DefaultMirrorFile = "pulpy_session.json"

// FileMirror persists the session snapshot as a single JSON blob at a fixed
// path. It is written on every successful session mutation, read once at
// startup, and removed on logout.
type FileMirror struct {
	path string
}

// NewFileMirror creates a mirror at the given path. An empty path resolves
// to DefaultMirrorFile in the user's home directory.
func NewFileMirror(path string) *FileMirror {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		path = filepath.Join(home, DefaultMirrorFile)
	}
	return &FileMirror{path: path}
}

// Load reads the snapshot, returning (nil, nil) when none exists.
func (m *FileMirror) Load() (*Snapshot, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.NewStoreError("load session mirror", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt mirror is treated as absent rather than fatal.
		return nil, nil
	}
	return &snap, nil
}

// Save writes the snapshot, replacing any previous one.
func (m *FileMirror) Save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return domain.NewStoreError("save session mirror", err)
	}
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return domain.NewStoreError("save session mirror", err)
	}
	return nil
}

// Clear removes the snapshot. Idempotent.
func (m *FileMirror) Clear() error {
	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.NewStoreError("clear session mirror", err)
	}
	return nil
}
