package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for blob names that are not clean relative
// slash-separated paths.
var ErrInvalidName = errors.New("blobstore: invalid blob name")

// CheckName validates a blob name. Names are relative to the store root,
// use forward slashes and never escape the root, so "packs/000001-00001.pack"
// is valid while "", "/CURRENT", "packs/../CURRENT" and "packs/" are not.
func CheckName(name string) error {
	if name == "" || name == "." || strings.HasPrefix(name, "/") || path.Clean(name) != name ||
		name == ".." || strings.HasPrefix(name, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// BlobStore is an abstraction for storing knowledge packs and manifests.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader for length bytes at offset off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob being written.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data where the backend supports it.
	Sync() error
}

// Aborter is implemented by writable blobs that can discard a partial
// write instead of publishing it.
type Aborter interface {
	Abort() error
}

// Abort discards w. Blobs without Abort are closed and deleted.
func Abort(ctx context.Context, store BlobStore, name string, w WritableBlob) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	_ = w.Close()
	return store.Delete(context.WithoutCancel(ctx), name)
}

// ReadAll opens name and returns its full contents.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	if b.Size() == 0 {
		return []byte{}, nil
	}

	r, err := b.ReadRange(ctx, 0, b.Size())
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != b.Size() {
		return nil, fmt.Errorf("blobstore: short read of %s: %d of %d bytes", name, len(data), b.Size())
	}
	return data, nil
}

// Media types recorded by remote stores.
const (
	ContentTypePack     = "application/vnd.pme.pack"
	ContentTypeManifest = "application/yaml"
	ContentTypePointer  = "text/plain; charset=utf-8"
)

// ContentType returns the media type of a model blob: knowledge packs,
// YAML manifests, and the CURRENT pointer and any other small text blob.
func ContentType(name string) string {
	switch path.Ext(name) {
	case ".pack":
		return ContentTypePack
	case ".yaml", ".yml":
		return ContentTypeManifest
	default:
		return ContentTypePointer
	}
}
