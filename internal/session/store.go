package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store is the durable home of the session record, read once at startup and
// replaced wholesale on every login, refresh, and logout.
type Store interface {
	// Load returns the stored session, or (nil, nil) when no record exists.
	// A record that cannot be decoded returns an error; callers treat that
	// the same as an expired session.
	Load() (*Session, error)
	// Save atomically replaces the stored record. A crash mid-save must
	// leave the previous valid record intact.
	Save(*Session) error
	// Clear removes the record along with any legacy records from prior
	// schema versions. Clearing an absent record is a no-op.
	Clear() error
}

// legacyFileNames are session files written by earlier client versions.
// They are removed alongside the primary record on any full clear.
var legacyFileNames = []string{"auth.json", "session.json.bak"}

// FileStore persists the session as a single JSON file. Writes go through a
// temp file and rename so the record is replaced atomically.
type FileStore struct {
	path string
}

// NewFileStore returns a store rooted at path. An empty path resolves to
// session.json under the user config directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "myhome", "session.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (fs *FileStore) Path() string { return fs.path }

func (fs *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if s.Tokens.AccessToken == "" || s.User.ID == "" {
		return nil, fmt.Errorf("session file is incomplete")
	}
	return &s, nil
}

func (fs *FileStore) Save(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	dir := filepath.Dir(fs.path)
	for _, name := range legacyFileNames {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove legacy session file %s: %w", name, err)
		}
	}
	return nil
}
