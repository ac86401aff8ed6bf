package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when the named object does not exist on disk.
// It matches fs.ErrNotExist so callers can stay backend-agnostic.
var ErrNotFound = fmt.Errorf("local: object not found: %w", fs.ErrNotExist)

// Store keeps message images in a directory on the local filesystem and
// serves them through the API's own image route.
type Store struct {
	dir     string
	baseURL string
}

// NewStore prepares the upload directory. baseURL is the public route
// prefix the returned URLs point at.
func NewStore(dir, baseURL string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("local: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("local: create upload dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Store) Save(ctx context.Context, filename string, data []byte) (string, error) {
	path, err := s.objectPath(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("local: write object: %w", err)
	}
	return s.baseURL + "/" + filename, nil
}

func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	path, err := s.objectPath(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("local: open object: %w", err)
	}
	return f, nil
}

func (s *Store) Delete(ctx context.Context, filename string) error {
	path, err := s.objectPath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local: delete object: %w", err)
	}
	return nil
}

// objectPath rejects names that would escape the upload directory.
func (s *Store) objectPath(filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("local: invalid object name %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}
