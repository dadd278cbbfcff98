// Package bucket provides access to the Firebase Storage bucket holding
// event assets. All storage operations in the repository go through the
// Bucket interface so the scan and backfill pipelines can be exercised
// against an in-memory bucket in tests.
package bucket

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when a named object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a single stored object as seen in a listing.
type ObjectInfo struct {
	Name        string
	Size        int64
	ContentType string
	Created     time.Time
}

// Bucket is the storage surface the scanner and pipelines depend on.
type Bucket interface {
	// List returns every object under the given prefix, in listing order
	// (lexicographic by name for both implementations).
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Exists reports whether the named object is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Read returns the full contents of the named object.
	// Returns ErrObjectNotFound if the object does not exist.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write stores data under the given name with the given content type,
	// replacing any existing object in a single atomic write.
	Write(ctx context.Context, name string, data []byte, contentType string) error
}
