package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps tokens in a small JSON document readable only by the owner.
// It is meant for the CLI, where tokens must survive between invocations.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Token(_ context.Context, kind Kind) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("unknown credential kind %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return "", err
	}
	return tokens[kind], nil
}

func (s *FileStore) SetToken(_ context.Context, kind Kind, token string) error {
	if !kind.valid() {
		return fmt.Errorf("unknown credential kind %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.load()
	if err != nil {
		return err
	}
	if token == "" {
		delete(tokens, kind)
	} else {
		tokens[kind] = token
	}
	return s.save(tokens)
}

func (s *FileStore) Clear(ctx context.Context, kind Kind) error {
	return s.SetToken(ctx, kind, "")
}

func (s *FileStore) load() (map[Kind]string, error) {
	tokens := make(map[Kind]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return tokens, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	if len(data) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", s.path, err)
	}
	return tokens, nil
}

func (s *FileStore) save(tokens map[Kind]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
