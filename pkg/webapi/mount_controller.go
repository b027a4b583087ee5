package webapi

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-uuid"
	"github.com/labstack/echo/v4"
	"github.com/loopfs/loopfs/pkg/loopfs"
)

// MountController reports on the running mount and performs the few
// administrative operations the mount supports.
type MountController struct {
	lfs       *loopfs.LoopbackFS
	mountPath string
	mountID   string
	startedAt time.Time
}

func NewMountController(lfs *loopfs.LoopbackFS, mountPath string) (*MountController, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, err
	}

	return &MountController{
		lfs:       lfs,
		mountPath: mountPath,
		mountID:   id,
		startedAt: time.Now(),
	}, nil
}

type mountStatus struct {
	MountID       string               `json:"mount_id"`
	MountPath     string               `json:"mount_path"`
	RootDir       string               `json:"root_dir"`
	VolumeName    string               `json:"volume_name"`
	BlockSize     uint32               `json:"block_size"`
	StartedAt     time.Time            `json:"started_at"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	Capabilities  loopfs.Capabilities  `json:"capabilities"`
}

func (c *MountController) ShowMount(ctx echo.Context) error {
	cfg := c.lfs.Config()

	return ctx.JSON(http.StatusOK, mountStatus{
		MountID:       c.mountID,
		MountPath:     c.mountPath,
		RootDir:       cfg.RootDir,
		VolumeName:    cfg.VolumeName,
		BlockSize:     cfg.BlockSize,
		StartedAt:     c.startedAt,
		UptimeSeconds: int64(time.Since(c.startedAt).Seconds()),
		Capabilities:  c.lfs.Capabilities(),
	})
}

// ShowStatfs reports volume statistics for the backing filesystem, scaled
// the same way the mount reports them to the kernel.
func (c *MountController) ShowStatfs(ctx echo.Context) error {
	stats, err := c.lfs.GetFilesystemAttributes("/")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (c *MountController) SetVolumeName(ctx echo.Context) error {
	var req struct {
		VolumeName string `json:"volume_name"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	if err := c.lfs.SetVolumeName(req.VolumeName); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return ctx.JSON(http.StatusOK, map[string]string{"volume_name": req.VolumeName})
}

type listEntry struct {
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	Mode  uint32 `json:"mode"`
	Mtime string `json:"mtime"`
}

// ListDirectory lists the entries of a directory in the exported tree. The
// path is virtual, rooted at the mount.
func (c *MountController) ListDirectory(ctx echo.Context) error {
	path := ctx.QueryParam("path")
	if path == "" {
		path = "/"
	}

	entries, err := c.lfs.ListDirectory(path)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	resp := make([]listEntry, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, listEntry{
			Name:  e.Name,
			Size:  e.Attributes.Size,
			Mode:  e.Attributes.Mode,
			Mtime: e.Attributes.Mtime.Format(time.RFC3339),
		})
	}

	return ctx.JSON(http.StatusOK, resp)
}
