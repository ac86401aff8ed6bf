package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sync"
)

// ErrImageNotFound is returned when a stored image is absent. It matches
// fs.ErrNotExist so callers can stay backend-agnostic.
var ErrImageNotFound = fmt.Errorf("memory: image not found: %w", fs.ErrNotExist)

// ImageStore holds image objects in memory for tests and demo mode.
type ImageStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

func NewImageStore(baseURL string) *ImageStore {
	return &ImageStore{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

func (s *ImageStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[filename] = append([]byte(nil), data...)
	return s.baseURL + "/" + filename, nil
}

func (s *ImageStore) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[filename]
	if !ok {
		return nil, ErrImageNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *ImageStore) Delete(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, filename)
	return nil
}

// Len reports how many objects are stored.
func (s *ImageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Has reports whether the object exists.
func (s *ImageStore) Has(filename string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[filename]
	return ok
}
