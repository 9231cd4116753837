// Package blobstore provides storage abstraction for knowledge packs.
//
// BlobStore is the interface for reading and writing data blobs (packs, manifests).
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with atomic rename-on-close writes
//   - MemoryStore: In-memory store for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)           // Open for reading
//	    Create(ctx, name) (WritableBlob, error) // Create for writing
//	    Put(ctx, name, data) error              // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Names are clean slash-separated paths relative to the store root and are
// validated with CheckName. Remote stores tag each object with ContentType.
// Package blobtest checks a backend end to end by saving and reloading an
// engine through it.
package blobstore
