package loopfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) (*LoopbackFS, string) {
	t.Helper()

	root := t.TempDir()
	lfs, err := New(Config{RootDir: root, VolumeName: "test"})
	require.NoError(t, err)

	return lfs, root
}

func TestNewValidatesRootDir(t *testing.T) {
	var tests = []struct {
		name string
		root func(t *testing.T) string
	}{
		{name: "relative path", root: func(t *testing.T) string { return "some/relative/dir" }},
		{name: "missing dir", root: func(t *testing.T) string { return filepath.Join(t.TempDir(), "does-not-exist") }},
		{name: "root is a file", root: func(t *testing.T) string {
			f := filepath.Join(t.TempDir(), "afile")
			require.NoError(t, os.WriteFile(f, []byte("x"), 0644))
			return f
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New(Config{RootDir: test.root(t)})
			require.Error(t, err)
		})
	}
}

func TestResolve(t *testing.T) {
	lfs, root := newTestFS(t)

	var tests = []struct {
		path     string
		expected string
	}{
		{path: "/", expected: root + "/"},
		{path: "/file.txt", expected: root + "/file.txt"},
		{path: "/dir1/dir2/file", expected: root + "/dir1/dir2/file"},
	}

	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			require.Equal(t, test.expected, lfs.Resolve(test.path))
		})
	}
}

func TestCapabilities(t *testing.T) {
	lfs, _ := newTestFS(t)

	caps := lfs.Capabilities()
	require.True(t, caps.ExtendedDates)
	require.True(t, caps.VolumeRename)
	require.True(t, caps.ReadWriteLocking)
	require.True(t, caps.AtomicRename)
}

func TestForcedCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	lfs, err := New(Config{RootDir: root, CaseInsensitive: true})
	require.NoError(t, err)
	require.False(t, lfs.Capabilities().CaseSensitive)
}

func TestSetVolumeName(t *testing.T) {
	lfs, _ := newTestFS(t)
	require.NoError(t, lfs.SetVolumeName("renamed"))
}
