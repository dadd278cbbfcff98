package bucket

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryBucket implements Bucket with in-memory storage. It mirrors the
// listing behavior of GCS (lexicographic order by name) and is used by
// tests and dry runs.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
	created     time.Time
}

// NewMemoryBucket creates an empty in-memory bucket.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string]memObject)}
}

// Put stores an object directly, with an explicit creation time.
// Intended for seeding test fixtures.
func (b *MemoryBucket) Put(name string, data []byte, contentType string, created time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = memObject{data: data, contentType: contentType, created: created}
}

// List returns every object whose name starts with prefix, sorted by name.
func (b *MemoryBucket) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var objects []ObjectInfo
	for name, obj := range b.objects {
		if strings.HasPrefix(name, prefix) {
			objects = append(objects, ObjectInfo{
				Name:        name,
				Size:        int64(len(obj.data)),
				ContentType: obj.contentType,
				Created:     obj.created,
			})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// Exists reports whether the named object is present.
func (b *MemoryBucket) Exists(_ context.Context, name string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[name]
	return ok, nil
}

// Read returns a copy of the named object's contents.
func (b *MemoryBucket) Read(_ context.Context, name string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[name]
	if !ok {
		return nil, fmt.Errorf("read %q: %w", name, ErrObjectNotFound)
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, nil
}

// Write stores data under name, replacing any existing object.
func (b *MemoryBucket) Write(_ context.Context, name string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	b.objects[name] = memObject{data: stored, contentType: contentType, created: time.Now()}
	return nil
}

// ContentType returns the stored content type for name, or "" if absent.
// Test helper.
func (b *MemoryBucket) ContentType(name string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.objects[name].contentType
}
