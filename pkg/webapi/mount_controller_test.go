package webapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/loopfs/loopfs/pkg/loopfs"
	"github.com/stretchr/testify/require"
)

func newMountController(t *testing.T) (*MountController, string) {
	t.Helper()

	root := t.TempDir()
	lfs, err := loopfs.New(loopfs.Config{RootDir: root, VolumeName: "testvol"})
	require.NoError(t, err)

	c, err := NewMountController(lfs, "/mnt/test")
	require.NoError(t, err)

	return c, root
}

func doJSON(t *testing.T, handler echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	err := handler(ctx)
	if err != nil {
		e.HTTPErrorHandler(err, ctx)
	}
	return rec
}

func TestShowMount(t *testing.T) {
	c, root := newMountController(t)

	rec := doJSON(t, c.ShowMount, http.MethodGet, "/api/mount", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, root, resp["root_dir"])
	require.Equal(t, "testvol", resp["volume_name"])
	require.Equal(t, "/mnt/test", resp["mount_path"])
	require.NotEmpty(t, resp["mount_id"])
}

func TestShowStatfs(t *testing.T) {
	c, _ := newMountController(t)

	rec := doJSON(t, c.ShowStatfs, http.MethodGet, "/api/mount/statfs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loopfs.FilesystemAttributes
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Blocks > 0)
}

func TestSetVolumeName(t *testing.T) {
	c, _ := newMountController(t)

	rec := doJSON(t, c.SetVolumeName, http.MethodPost, "/api/mount/volume-name", `{"volume_name":"renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "renamed")
}

func TestListDirectory(t *testing.T) {
	c, root := newMountController(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaa"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))

	rec := doJSON(t, c.ListDirectory, http.MethodGet, "/api/mount/entries?path=/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []listEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)

	names := []string{entries[0].Name, entries[1].Name}
	require.Contains(t, names, "a.txt")
	require.Contains(t, names, "sub")
}

func TestListDirectoryMissingPath(t *testing.T) {
	c, _ := newMountController(t)

	rec := doJSON(t, c.ListDirectory, http.MethodGet, "/api/mount/entries?path=/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
