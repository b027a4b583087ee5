package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvStoreReadsEnvironment(t *testing.T) {
	t.Setenv("LOOPFS_TEST_KEY", "value1")
	t.Setenv("LOOPFS_TEST_INT", "42")
	t.Setenv("LOOPFS_TEST_BOOL", "true")

	s := NewEnvStore("")
	require.Equal(t, "value1", s.GetKey("LOOPFS_TEST_KEY"))
	require.Equal(t, 42, s.GetIntKey("LOOPFS_TEST_INT"))
	require.True(t, s.GetBoolKey("LOOPFS_TEST_BOOL"))
}

func TestEnvStoreDefaults(t *testing.T) {
	s := NewEnvStore("")

	require.Equal(t, "fallback", s.GetKeyWithDefault("LOOPFS_TEST_UNSET", "fallback"))
	require.Equal(t, 7, s.GetIntKeyWithDefault("LOOPFS_TEST_UNSET", 7))
	require.True(t, s.GetBoolKeyWithDefault("LOOPFS_TEST_UNSET", true))
	require.Equal(t, 0, s.GetIntKey("LOOPFS_TEST_UNSET"))
	require.False(t, s.GetBoolKey("LOOPFS_TEST_UNSET"))
}

func TestEnvStoreBadValuesFallBack(t *testing.T) {
	t.Setenv("LOOPFS_TEST_BADINT", "not-a-number")
	t.Setenv("LOOPFS_TEST_BADBOOL", "not-a-bool")

	s := NewEnvStore("")
	require.Equal(t, 9, s.GetIntKeyWithDefault("LOOPFS_TEST_BADINT", 9))
	require.True(t, s.GetBoolKeyWithDefault("LOOPFS_TEST_BADBOOL", true))
}

func TestEnvStoreLoadsDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loopfs.env")
	require.NoError(t, os.WriteFile(path, []byte("LOOPFS_TEST_FROM_FILE=filevalue\n"), 0644))
	t.Setenv("LOOPFS_TEST_FROM_FILE", "")
	os.Unsetenv("LOOPFS_TEST_FROM_FILE")

	s := NewEnvStore(path)
	require.NoError(t, s.Load())
	require.Equal(t, "filevalue", s.GetKey("LOOPFS_TEST_FROM_FILE"))
}

func TestStaticStore(t *testing.T) {
	s := NewStaticStore(map[string]string{
		"ROOT":        "/srv/data",
		"BLOCK_SIZE":  "4096",
		"THREAD_SAFE": "false",
	})

	require.Equal(t, "/srv/data", s.GetKey("ROOT"))
	require.Equal(t, 4096, s.GetIntKey("BLOCK_SIZE"))
	require.False(t, s.GetBoolKeyWithDefault("THREAD_SAFE", true))
	require.Equal(t, "", s.GetKey("MISSING"))
	require.Error(t, s.LoadFromPath("/anywhere"))
	require.NoError(t, s.Load())
}

func TestPackageLevelStore(t *testing.T) {
	old := GetStore()
	defer SetStore(old)

	SetStore(NewStaticStore(map[string]string{"KEY": "val"}))
	require.Equal(t, "val", GetKey("KEY"))
	require.Equal(t, "dflt", GetKeyWithDefault("OTHER", "dflt"))
}
