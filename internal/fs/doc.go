// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: filesystem operations (open, remove, rename, etc.)
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects I/O errors
//
// Tests inject [FaultyFS] into blobstore.LocalStore to simulate failed
// writes, syncs and renames:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("MANIFEST", fs.Fault{FailOnRename: true})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
package fs
