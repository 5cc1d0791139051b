package filesvc

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/jifunze/jifunze/core"
)

// File is a file kept by the memory storage.
type File struct {
	ContentType string
	Content     []byte
}

type memoryStorage struct {
	mu        sync.RWMutex
	files     map[string]File
	publicURL string
}

var _ core.FileStorage = (*memoryStorage)(nil)

// NewMemoryStorage keeps files in memory. Used in tests and local runs.
func NewMemoryStorage(conf *core.Config) *memoryStorage {
	publicURL := conf.Storage.PublicBaseURL
	if publicURL == "" {
		publicURL = "http://localhost/media"
	}
	return &memoryStorage{
		files:     make(map[string]File),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *memoryStorage) Save(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", errors.Wrapf(err, "reading %s", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = File{ContentType: contentType, Content: buf.Bytes()}
	return s.publicURL + "/" + key, nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

// Get returns the file stored under `key`.
func (s *memoryStorage) Get(key string) (File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[key]
	return f, ok
}
