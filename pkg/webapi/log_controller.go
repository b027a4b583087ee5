package webapi

import (
	"net/http"
	"os"
	"sync"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/loopfs/loopfs/pkg/clog"
	"github.com/pkg/errors"
)

// LogController adjusts the daemon's logging at runtime: the root level,
// the root output, and per-subsystem levels through the logging registry.
type LogController struct {
	mu              sync.Mutex
	CurrentLogLevel log.Level `json:"current_log_level"`
	CurrentLogFile  string    `json:"current_log_file"`
}

func NewLogController() *LogController {
	return &LogController{
		CurrentLogLevel: log.InfoLevel,
		CurrentLogFile:  "stdout",
	}
}

// SetLogging sets level and output together. The level is rolled back when
// the output cannot be switched so the two always change as a pair.
func (c *LogController) SetLogging(ctx echo.Context) error {
	var req struct {
		LogLevel  string `json:"log_level"`
		LogOutput string `json:"log_output"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	oldLevel := c.CurrentLogLevel
	if err := c.setLevel(req.LogLevel); err != nil {
		return err
	}

	if err := c.setOutput(req.LogOutput); err != nil {
		c.CurrentLogLevel = oldLevel
		_ = clog.SetLevel(clog.RootName, oldLevel)
		return err
	}

	return ctx.JSON(http.StatusOK, c)
}

func (c *LogController) SetLogLevel(ctx echo.Context) error {
	var req struct {
		LogLevel string `json:"log_level"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setLevel(req.LogLevel); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, c)
}

// SetSubsystemLogLevel changes the level of a single named subsystem
// without touching the root logger.
func (c *LogController) SetSubsystemLogLevel(ctx echo.Context) error {
	var req struct {
		Subsystem string `json:"subsystem"`
		LogLevel  string `json:"log_level"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	if err := clog.SetLevelFromString(req.Subsystem, req.LogLevel); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"subsystem": req.Subsystem,
		"log_level": req.LogLevel,
	})
}

func (c *LogController) SetLogOutput(ctx echo.Context) error {
	var req struct {
		LogOutput string `json:"log_output"`
	}

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setOutput(req.LogOutput); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, c)
}

func (c *LogController) ShowCurrentLogging(ctx echo.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ctx.JSON(http.StatusOK, c)
}

func (c *LogController) setLevel(logLevel string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", logLevel)
	}

	c.CurrentLogLevel = level
	return clog.SetLevel(clog.RootName, level)
}

func (c *LogController) setOutput(logOutput string) error {
	switch logOutput {
	case "stdout":
		if err := clog.SetOutput(clog.RootName, os.Stdout); err != nil {
			return err
		}
	case "stderr":
		if err := clog.SetOutput(clog.RootName, os.Stderr); err != nil {
			return err
		}
	default:
		f, err := os.Create(logOutput)
		if err != nil {
			return errors.Wrapf(err, "failed to open log output %q", logOutput)
		}
		if err := clog.SetOutput(clog.RootName, f); err != nil {
			_ = f.Close()
			return err
		}
	}

	c.CurrentLogFile = logOutput
	return nil
}
