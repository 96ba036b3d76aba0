package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists ledger snapshots across process restarts.
type Store interface {
	Load() (State, error)
	Save(State) error
}

// FileStore keeps the snapshot as a single JSON file. Saves go through a
// temp file in the same directory followed by a rename, so readers never
// observe a half-written snapshot after a crash.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to the given path. The parent
// directory is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string { return s.path }

// Load reads and decodes the snapshot. A missing file surfaces as
// fs.ErrNotExist so callers can tell a first run apart from corruption.
func (s *FileStore) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}, fmt.Errorf("reading learning state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parsing learning state: %w", err)
	}
	if state.Version == 0 {
		state.Version = stateVersion
	}
	return state, nil
}

// Save atomically replaces the snapshot file.
func (s *FileStore) Save(state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding learning state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".learning-*.json")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
