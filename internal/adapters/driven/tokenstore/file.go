package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docsum/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TokenStore = (*FileStore)(nil)

// TokenFileName is the file the token is written to inside the state directory
const TokenFileName = "session_token"

// FileStore implements driven.TokenStore as a single owner-only file.
// Writes go through a temp file and a rename so a crash never leaves half a token.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	sealer *Sealer
}

// NewFileStore creates the state directory if needed.
// sealer may be nil to store the token unencrypted.
func NewFileStore(dir string, sealer *Sealer) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStore{dir: dir, sealer: sealer}, nil
}

// Path returns the token file location
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, TokenFileName)
}

// Load returns the stored token, or "" when the file does not exist
func (s *FileStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	if s.sealer == nil {
		return strings.TrimSpace(string(data)), nil
	}
	token, err := s.sealer.Decode(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

// Save replaces the stored token
func (s *FileStore) Save(ctx context.Context, token string) error {
	data, err := s.sealer.Encode(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+TokenFileName+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// Clear removes the token file
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
