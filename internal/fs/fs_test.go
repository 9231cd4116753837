package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "test.pack")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, f.Sync())

	buf := make([]byte, 3)
	_, err = f.ReadAt(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, "ell", string(buf))

	info, err := f.Stat()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.NoError(t, f.Close())

	entries, err := lfs.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	newPath := filepath.Join(dir, "renamed.pack")
	assert.NoError(t, lfs.Rename(fpath, newPath))

	info, err = lfs.Stat(newPath)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	assert.NoError(t, lfs.Remove(newPath))
	_, err = lfs.Stat(newPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_Writes(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("faulty", Fault{FailAfterBytes: 5})

	f, err := ffs.OpenFile(filepath.Join(tmp, "faulty.pack"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	n, err := f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.Write([]byte("!"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Zero(t, n)
	assert.NoError(t, f.Close())

	// Files without a matching rule pass through.
	g, err := ffs.OpenFile(filepath.Join(tmp, "healthy.pack"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = g.Write([]byte("hello world"))
	assert.NoError(t, err)
	assert.NoError(t, g.Close())
}

func TestFaultyFS_SyncCloseRename(t *testing.T) {
	tmp := t.TempDir()
	custom := assert.AnError
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true})
	ffs.AddRule("close", Fault{FailAfterBytes: -1, FailOnClose: true, Err: custom})
	ffs.AddRule("CURRENT", Fault{FailAfterBytes: -1, FailOnRename: true})

	f, err := ffs.OpenFile(filepath.Join(tmp, "sync.pack"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), ErrInjected)
	assert.NoError(t, f.Close())

	f, err = ffs.OpenFile(filepath.Join(tmp, "close.pack"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Close(), custom)

	src := filepath.Join(tmp, "sync.pack")
	assert.ErrorIs(t, ffs.Rename(src, filepath.Join(tmp, "CURRENT")), ErrInjected)
	assert.NoError(t, ffs.Rename(src, filepath.Join(tmp, "other")))

	ffs.ClearRules()
	require.NoError(t, ffs.MkdirAll(filepath.Join(tmp, "d"), 0o755))
	entries, err := ffs.ReadDir(tmp)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	_, err = ffs.Stat(filepath.Join(tmp, "other"))
	assert.NoError(t, err)
	assert.NoError(t, ffs.Remove(filepath.Join(tmp, "other")))
}

func TestPendingFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "packs", "000001-00001.pack")

	p, err := CreatePending(Default, target)
	require.NoError(t, err)
	_, err = p.Write([]byte("PMEK"))
	require.NoError(t, err)
	require.NoError(t, p.Sync())

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, IsTemp(entries[0].Name()))
	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, p.Commit())
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "PMEK", string(data))

	assert.ErrorIs(t, p.Commit(), ErrFinished)
	_, err = p.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrFinished)
	assert.NoError(t, p.Abort())

	entries, err = os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.False(t, IsTemp(entries[0].Name()))
}

func TestPendingFile_FailedCommit(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("CURRENT", Fault{FailAfterBytes: -1, FailOnRename: true})

	target := filepath.Join(dir, "CURRENT")
	require.NoError(t, os.WriteFile(target, []byte("MANIFEST-000001.yaml"), 0o644))

	p, err := CreatePending(ffs, target)
	require.NoError(t, err)
	_, err = p.Write([]byte("MANIFEST-000002.yaml"))
	require.NoError(t, err)
	assert.ErrorIs(t, p.Commit(), ErrInjected)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST-000001.yaml", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPendingFile_Abort(t *testing.T) {
	dir := t.TempDir()

	p, err := CreatePending(LocalFS{}, filepath.Join(dir, "partial.pack"))
	require.NoError(t, err)
	_, err = p.Write([]byte("half"))
	require.NoError(t, err)
	require.NoError(t, p.Abort())
	assert.ErrorIs(t, p.Commit(), ErrFinished)
	assert.ErrorIs(t, p.Sync(), ErrFinished)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
