package archive

import (
	"context"
	"fmt"
	"sync"

	"github.com/yanqian/pdf-summarizer/internal/domain/summarizer"
)

// Object is a stored upload.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryArchive keeps uploads in memory. Useful for tests and local dev.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryArchive constructs an empty archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string]Object)}
}

// Put stores a copy of data under key.
func (a *MemoryArchive) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("archive key cannot be empty")
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	a.mu.Lock()
	a.objects[key] = Object{Data: copied, ContentType: contentType}
	a.mu.Unlock()
	return key, nil
}

// Get returns the stored object.
func (a *MemoryArchive) Get(key string) (Object, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	obj, ok := a.objects[key]
	return obj, ok
}

// Len reports the number of stored objects.
func (a *MemoryArchive) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.objects)
}

var _ summarizer.Archive = (*MemoryArchive)(nil)
