package bridgefs

import (
	"fmt"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/loopfs/loopfs/pkg/loopfs"
)

// NewServer builds the FUSE server for a passthrough mount at mountPath.
// The caller starts serving with Serve and tears down with Unmount.
func NewServer(lfs *loopfs.LoopbackFS, mountPath string) (*fuse.Server, error) {
	root := CreateFS(lfs)
	cfg := lfs.Config()

	// Attribute caching would let the kernel serve stale answers when the
	// real tree changes underneath the mount, so both timeouts stay zero.
	timeout := time.Duration(0)
	opts := &fs.Options{
		AttrTimeout:  &timeout,
		EntryTimeout: &timeout,
	}
	opts.MountOptions = fuse.MountOptions{
		Name:           "loopfs",
		FsName:         cfg.RootDir,
		SingleThreaded: !cfg.ThreadSafe,
		EnableLocks:    true,
	}
	if cfg.VolumeName != "" {
		opts.MountOptions.Options = append(opts.MountOptions.Options, "volname="+cfg.VolumeName)
	}

	rawfs := fs.NewNodeFS(root, opts)
	fuseServer, err := fuse.NewServer(rawfs, mountPath, &opts.MountOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to create fuse server: %s", err)
	}

	return fuseServer, nil
}
