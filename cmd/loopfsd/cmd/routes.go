package cmd

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/loopfs/loopfs/pkg/config"
	"github.com/loopfs/loopfs/pkg/loopfs"
	"github.com/loopfs/loopfs/pkg/webapi"
)

type RouteDependencies struct {
	e         *echo.Echo
	config    config.Store
	lfs       *loopfs.LoopbackFS
	mountPath string
}

func setupRoutes(deps RouteDependencies) error {
	deps.e.Use(middleware.Recover())
	g := deps.e.Group("/api")

	logController := webapi.NewLogController()
	g.POST("/set-logging-level", logController.SetLogLevel)
	g.POST("/set-logging-output", logController.SetLogOutput)
	g.POST("/set-logging", logController.SetLogging)
	g.POST("/set-subsystem-logging-level", logController.SetSubsystemLogLevel)
	g.GET("/show-logging", logController.ShowCurrentLogging)

	mountController, err := webapi.NewMountController(deps.lfs, deps.mountPath)
	if err != nil {
		return err
	}
	g.GET("/mount", mountController.ShowMount)
	g.GET("/mount/statfs", mountController.ShowStatfs)
	g.GET("/mount/entries", mountController.ListDirectory)
	g.POST("/mount/volume-name", mountController.SetVolumeName)

	return nil
}
