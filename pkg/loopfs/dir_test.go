package loopfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func populateDir(t *testing.T, root string, count int) []string {
	t.Helper()

	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("file%03d", i)
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(name), 0644))
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectNames(t *testing.T, d *DirHandle, startOffset int64) []string {
	t.Helper()

	var names []string
	err := d.ReadDir(startOffset, func(e DirEntry) bool {
		if e.Name != "." && e.Name != ".." {
			names = append(names, e.Name)
		}
		return false
	})
	require.NoError(t, err)
	sort.Strings(names)
	return names
}

func TestReadDirFullEnumeration(t *testing.T) {
	lfs, root := newTestFS(t)
	names := populateDir(t, root, 25)

	d, err := lfs.OpenDir("/")
	require.NoError(t, err)
	defer d.Release()

	require.Equal(t, names, collectNames(t, d, 0))
}

func TestReadDirResumesAfterStop(t *testing.T) {
	lfs, root := newTestFS(t)
	names := populateDir(t, root, 25)

	d, err := lfs.OpenDir("/")
	require.NoError(t, err)
	defer d.Release()

	// Accept exactly one entry per call, refusing the next. Every resumed
	// call must pick up at the refused entry, so nothing is lost or
	// duplicated across the pauses.
	var collected []string
	offset := int64(0)
	for {
		delivered := 0
		var got *DirEntry
		err := d.ReadDir(offset, func(e DirEntry) bool {
			if delivered == 1 {
				return true
			}
			delivered++
			entry := e
			got = &entry
			return false
		})
		require.NoError(t, err)

		if got == nil {
			break
		}
		if got.Name != "." && got.Name != ".." {
			collected = append(collected, got.Name)
		}
		offset = got.NextOffset
	}

	sort.Strings(collected)
	require.Equal(t, names, collected)
}

func TestReadDirOffsetZeroRestarts(t *testing.T) {
	lfs, root := newTestFS(t)
	names := populateDir(t, root, 10)

	d, err := lfs.OpenDir("/")
	require.NoError(t, err)
	defer d.Release()

	// Consume a few entries, then restart from zero and expect the full
	// set again.
	taken := 0
	err = d.ReadDir(0, func(e DirEntry) bool {
		taken++
		return taken > 3
	})
	require.NoError(t, err)

	require.Equal(t, names, collectNames(t, d, 0))
}

func TestReadDirEntryOffsetsNeverZero(t *testing.T) {
	lfs, root := newTestFS(t)
	populateDir(t, root, 10)

	d, err := lfs.OpenDir("/")
	require.NoError(t, err)
	defer d.Release()

	err = d.ReadDir(0, func(e DirEntry) bool {
		// Zero is reserved for restarting the stream, so no entry may
		// hand it out as a resume position.
		require.NotEqual(t, int64(0), e.NextOffset)
		return false
	})
	require.NoError(t, err)
}

func TestOpenDirMissing(t *testing.T) {
	lfs, _ := newTestFS(t)

	_, err := lfs.OpenDir("/no-such-dir")
	require.Error(t, err)
	require.Equal(t, NotFound, KindOf(err))
}

func TestListDirectory(t *testing.T) {
	lfs, root := newTestFS(t)
	names := populateDir(t, root, 5)
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0755))

	entries, err := lfs.ListDirectory("/")
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		require.NotEqual(t, ".", e.Name)
		require.NotEqual(t, "..", e.Name)
		got = append(got, e.Name)
	}
	sort.Strings(got)
	require.Equal(t, append(names, "subdir"), got)
}

func TestListDirectorySkipsUnreadableChildren(t *testing.T) {
	lfs, root := newTestFS(t)
	populateDir(t, root, 3)

	// A dangling entry whose attributes resolve fine still lists; only a
	// failed attribute fetch drops a child. Removing a file between the
	// enumeration and the stat is hard to arrange reliably, so this only
	// checks a symlink to nowhere stays listed (lstat succeeds on it).
	require.NoError(t, os.Symlink("/nowhere/at/all", filepath.Join(root, "dangling")))

	entries, err := lfs.ListDirectory("/")
	require.NoError(t, err)
	require.Len(t, entries, 4)
}
