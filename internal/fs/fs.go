package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// TempPrefix marks files that are still being written.
const TempPrefix = ".tmp-"

// ErrFinished is returned by writes to a PendingFile after Commit or Abort.
var ErrFinished = errors.New("fs: pending file already finished")

// File represents an open file.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem abstracts the file operations the local blob store needs, so
// tests can substitute a FaultyFS.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
}

// LocalFS implements FileSystem on top of package os.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Remove(name string) error                     { return os.Remove(name) }
func (LocalFS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (LocalFS) Stat(name string) (os.FileInfo, error)        { return os.Stat(name) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (LocalFS) ReadDir(name string) ([]os.DirEntry, error)   { return os.ReadDir(name) }

// Default is the default local file system.
var Default FileSystem = LocalFS{}

// IsTemp reports whether a directory entry is an unpublished PendingFile.
func IsTemp(base string) bool {
	return strings.HasPrefix(base, TempPrefix)
}

// PendingFile is a file written under a temporary name next to its target.
// Commit publishes it with a rename, so readers see either the previous
// contents of target or the complete new contents.
type PendingFile struct {
	fsys   FileSystem
	f      File
	tmp    string
	target string
	done   bool
}

// CreatePending creates the parent directory of target and opens a fresh
// temporary file beside it.
func CreatePending(fsys FileSystem, target string) (*PendingFile, error) {
	dir := filepath.Dir(target)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp := filepath.Join(dir, TempPrefix+filepath.Base(target)+"-"+uuid.NewString())
	f, err := fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	return &PendingFile{fsys: fsys, f: f, tmp: tmp, target: target}, nil
}

// Write appends to the temporary file.
func (p *PendingFile) Write(b []byte) (int, error) {
	if p.done {
		return 0, ErrFinished
	}
	return p.f.Write(b)
}

// Sync flushes the temporary file.
func (p *PendingFile) Sync() error {
	if p.done {
		return ErrFinished
	}
	return p.f.Sync()
}

// Commit syncs, closes and renames the file onto its target. On failure the
// temporary file is removed and the target is untouched.
func (p *PendingFile) Commit() error {
	if p.done {
		return ErrFinished
	}
	p.done = true

	err := p.f.Sync()
	if cerr := p.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = p.fsys.Rename(p.tmp, p.target)
	}
	if err != nil {
		_ = p.fsys.Remove(p.tmp)
	}
	return err
}

// Abort closes and removes the temporary file. Aborting a finished file is a
// no-op.
func (p *PendingFile) Abort() error {
	if p.done {
		return nil
	}
	p.done = true
	_ = p.f.Close()
	return p.fsys.Remove(p.tmp)
}
