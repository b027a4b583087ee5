package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/labstack/echo/v4"
	"github.com/loopfs/loopfs/pkg/config"
	"github.com/loopfs/loopfs/pkg/loopfs"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "loopfsd",
	Short: "Daemon exposing a real directory as a passthrough file system",
	Long:  `Daemon exposing a real directory as a passthrough file system`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		c := config.MustLoadFromUserDotenv()
		if err := Run(ctx, args, c); err != nil {
			log.Fatalf("loopfsd: %s", err)
		}
	},
}

func Run(c context.Context, args []string, store config.Store) error {
	mountPath := store.GetKey("LOOPFS_MOUNT_DIR")

	if len(args) == 1 {
		mountPath = args[0]
	}

	if mountPath == "" {
		return fmt.Errorf("no path specified for mount")
	}

	rootDir := store.MustGetKey("LOOPFS_ROOT_DIR")
	log.Infof("Root Dir: %s", rootDir)

	lfs, err := loopfs.New(loopfs.Config{
		RootDir:         rootDir,
		VolumeName:      store.GetKeyWithDefault("LOOPFS_VOLUME_NAME", "loopfs"),
		BlockSize:       uint32(store.GetIntKeyWithDefault("LOOPFS_BLOCK_SIZE", 0)),
		CaseInsensitive: store.GetBoolKey("LOOPFS_CASE_INSENSITIVE"),
		NativeXattr:     store.GetBoolKey("LOOPFS_NATIVE_XATTR"),
		IconPath:        store.GetKey("LOOPFS_ICON_PATH"),
		ThreadSafe:      store.GetBoolKeyWithDefault("LOOPFS_THREAD_SAFE", true),
	})
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if err := setupRoutes(RouteDependencies{
		e:         e,
		config:    store,
		lfs:       lfs,
		mountPath: mountPath,
	}); err != nil {
		return err
	}

	apiAddr := store.GetKeyWithDefault("LOOPFS_API_ADDR", "localhost:1360")
	go func() {
		if err := e.Start(apiAddr); err != nil {
			log.Fatalf("Unable to start web server: %s", err)
		}
	}()

	fuseServer, err := createFS(FSDependencies{
		lfs:       lfs,
		mountPath: mountPath,
	})

	if err != nil {
		return err
	}

	go fuseServer.Serve()
	if err := fuseServer.WaitMount(); err != nil {
		log.Fatalf("Mount failed: %s", err)
	}

	go unmountOnSignal(fuseServer, mountPath)

	fuseServer.Wait()

	return nil
}

func unmountOnSignal(server *fuse.Server, path string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	log.Infof("Got %s signal, unmounting %q...", sig, path)
	if err := server.Unmount(); err != nil {
		log.Errorf("Unmount failed: %s, trying umount...", err)
		cmd := exec.Command("/usr/bin/umount", path)
		if err := cmd.Run(); err != nil {
			log.Errorf("/usr/bin/umount failed: %s", err)
		}
	}

	os.Exit(0)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
