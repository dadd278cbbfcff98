package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcsstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSBucket implements Bucket over a Google Cloud Storage bucket handle,
// as obtained from the Firebase Admin SDK.
type GCSBucket struct {
	handle *gcsstorage.BucketHandle
}

// NewGCSBucket wraps an existing bucket handle.
func NewGCSBucket(handle *gcsstorage.BucketHandle) *GCSBucket {
	return &GCSBucket{handle: handle}
}

// List returns every object under prefix. Creation timestamps come back
// with the listing, so no per-object metadata round trip is needed.
func (b *GCSBucket) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := b.handle.Objects(ctx, &gcsstorage.Query{Prefix: prefix})

	var objects []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		objects = append(objects, ObjectInfo{
			Name:        attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			Created:     attrs.Created,
		})
	}
	return objects, nil
}

// Exists reports whether the named object is present.
func (b *GCSBucket) Exists(ctx context.Context, name string) (bool, error) {
	_, err := b.handle.Object(name).Attrs(ctx)
	if errors.Is(err, gcsstorage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %q: %w", name, err)
	}
	return true, nil
}

// Read downloads the full contents of the named object.
func (b *GCSBucket) Read(ctx context.Context, name string) ([]byte, error) {
	r, err := b.handle.Object(name).NewReader(ctx)
	if errors.Is(err, gcsstorage.ErrObjectNotExist) {
		return nil, fmt.Errorf("read %q: %w", name, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", name, err)
	}
	return data, nil
}

// Write uploads data as a single object with the given content type.
func (b *GCSBucket) Write(ctx context.Context, name string, data []byte, contentType string) error {
	w := b.handle.Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	return nil
}
