package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oneyoungman/bosuoyun/internal/model"
)

// ErrNoSession is returned by Load when no token file exists on disk.
var ErrNoSession = errors.New("no saved session")

// TokenFileName is the on-disk name of the token file.
const TokenFileName = "token.json"

// Session is the persisted login state: the raw access token plus the profile
// captured at validation time.
type Session struct {
	AccessToken string        `json:"access_token"`
	UserInfo    model.Profile `json:"user_info"`
}

// TokenStore persists a Session to disk.
type TokenStore interface {
	Save(s *Session) error
	Load() (*Session, error) // returns ErrNoSession if none exists
	Clear() error
}

// diskTokenStore is the concrete TokenStore writing into the config directory.
type diskTokenStore struct {
	path string // full path to token.json
}

// NewTokenStore returns a TokenStore backed by dir/token.json, creating dir
// if needed.
func NewTokenStore(dir string) (TokenStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}
	return &diskTokenStore{path: filepath.Join(dir, TokenFileName)}, nil
}

// Save marshals s to JSON and writes it atomically via a temp file + os.Rename.
func (d *diskTokenStore) Save(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err := writeFileAtomic(d.path, data); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Load reads and unmarshals the token file.
// Returns ErrNoSession if the file does not exist.
func (d *diskTokenStore) Load() (*Session, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	if s.AccessToken == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Clear removes the token file from disk.
func (d *diskTokenStore) Clear() error {
	if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to path via a temp file in the same directory
// so os.Rename swaps it in atomically.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	if err = os.Rename(tmpName, path); err != nil {
		return err
	}
	return nil
}
