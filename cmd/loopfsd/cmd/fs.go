package cmd

import (
	"fmt"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/loopfs/loopfs/pkg/bridgefs"
	"github.com/loopfs/loopfs/pkg/loopfs"
)

type FSDependencies struct {
	lfs       *loopfs.LoopbackFS
	mountPath string
}

func createFS(deps FSDependencies) (*fuse.Server, error) {
	fuseServer, err := bridgefs.NewServer(deps.lfs, deps.mountPath)
	if err != nil {
		return nil, fmt.Errorf("unable to create filesystem: %s", err)
	}

	return fuseServer, nil
}
