package loopfs

import (
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetAttributes(t *testing.T) {
	lfs, root := newTestFS(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "plain"), []byte("abcdef"), 0640))

	attrs, err := lfs.GetAttributes("/plain")
	require.NoError(t, err)
	require.Equal(t, int64(6), attrs.Size)
	require.Equal(t, uint32(0640), attrs.Mode&0777)
	require.EqualValues(t, syscall.S_IFREG, attrs.Mode&syscall.S_IFMT)
	require.False(t, attrs.Mtime.IsZero())
}

func TestGetAttributesOnSymlinkReportsTheLink(t *testing.T) {
	lfs, root := newTestFS(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "target"), make([]byte, 1000), 0644))
	require.NoError(t, os.Symlink("target", filepath.Join(root, "alias")))

	attrs, err := lfs.GetAttributes("/alias")
	require.NoError(t, err)
	require.EqualValues(t, syscall.S_IFLNK, attrs.Mode&syscall.S_IFMT)
	require.NotEqual(t, int64(1000), attrs.Size)
}

func TestGetAttributesMissing(t *testing.T) {
	lfs, _ := newTestFS(t)

	_, err := lfs.GetAttributes("/missing")
	require.Error(t, err)
	require.Equal(t, NotFound, KindOf(err))
}

func TestSetAttributesModeSizeTimes(t *testing.T) {
	lfs, root := newTestFS(t)

	p := filepath.Join(root, "mutate")
	require.NoError(t, os.WriteFile(p, []byte("0123456789"), 0644))

	mode := uint32(0600)
	size := int64(3)
	mtime := time.Date(2020, 4, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, lfs.SetAttributes("/mutate", AttrSet{
		Mode:  &mode,
		Size:  &size,
		Mtime: &mtime,
	}))

	attrs, err := lfs.GetAttributes("/mutate")
	require.NoError(t, err)
	require.Equal(t, uint32(0600), attrs.Mode&0777)
	require.Equal(t, int64(3), attrs.Size)
	require.Equal(t, mtime.Unix(), attrs.Mtime.Unix())
}

func TestSetAttributesExtendsFile(t *testing.T) {
	lfs, root := newTestFS(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "grow"), []byte("ab"), 0644))

	size := int64(100)
	require.NoError(t, lfs.SetAttributes("/grow", AttrSet{Size: &size}))

	attrs, err := lfs.GetAttributes("/grow")
	require.NoError(t, err)
	require.Equal(t, int64(100), attrs.Size)
}

func TestSetAttributesMissingPathFailsBeforeApplyingAnything(t *testing.T) {
	lfs, _ := newTestFS(t)

	mode := uint32(0600)
	size := int64(10)
	err := lfs.SetAttributes("/missing", AttrSet{Mode: &mode, Size: &size})
	require.Error(t, err)
	require.Equal(t, NotFound, KindOf(err))
}

func TestSetAttributesUnsupportedExtensionAborts(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("change-time setting is only unsupported on linux")
	}

	lfs, root := newTestFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "gated"), []byte("x"), 0644))

	// Change time cannot be set on linux; the earlier mode change applies,
	// the call reports NotSupported, and no later field is attempted.
	mode := uint32(0600)
	chg := time.Now()
	err := lfs.SetAttributes("/gated", AttrSet{Mode: &mode, Chgtime: &chg})
	require.Error(t, err)
	require.Equal(t, NotSupported, KindOf(err))

	attrs, getErr := lfs.GetAttributes("/gated")
	require.NoError(t, getErr)
	require.Equal(t, uint32(0600), attrs.Mode&0777)
}

func TestSetAttributesMtimeOnlyKeepsCurrentValueRule(t *testing.T) {
	lfs, root := newTestFS(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "timed"), []byte("x"), 0644))

	mtime := time.Date(2019, 7, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, lfs.SetAttributes("/timed", AttrSet{Mtime: &mtime}))

	attrs, err := lfs.GetAttributes("/timed")
	require.NoError(t, err)
	require.Equal(t, mtime.Unix(), attrs.Mtime.Unix())
}

func TestGetFilesystemAttributes(t *testing.T) {
	lfs, _ := newTestFS(t)

	stats, err := lfs.GetFilesystemAttributes("/")
	require.NoError(t, err)
	require.True(t, stats.BlockSize > 0)
	require.True(t, stats.Blocks > 0)
	require.True(t, stats.Capabilities.ExtendedDates)
}

func TestGetFilesystemAttributesRescalesBlocks(t *testing.T) {
	root := t.TempDir()

	plain, err := New(Config{RootDir: root})
	require.NoError(t, err)
	native, err := plain.GetFilesystemAttributes("/")
	require.NoError(t, err)

	scaled, err := New(Config{RootDir: root, BlockSize: native.BlockSize * 2})
	require.NoError(t, err)
	doubled, err := scaled.GetFilesystemAttributes("/")
	require.NoError(t, err)

	require.Equal(t, native.BlockSize*2, doubled.BlockSize)
	require.Equal(t, native.Blocks/2, doubled.Blocks)
}
