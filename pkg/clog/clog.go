package clog

import (
	"io"
	"sync"

	"github.com/apex/log"
	"github.com/pkg/errors"
)

// Registry hands out named loggers for the daemon's subsystems. Every
// subsystem can be retargeted to its own writer and level at runtime, which
// is how a single mount's FUSE traffic gets turned up to debug without
// drowning the rest of the daemon's output. Unknown names fall through to
// the root logger.
type Registry struct {
	root *log.Logger
	subs sync.Map
}

// RootName addresses the root logger in calls that take a subsystem name.
const RootName = "root"

func NewRegistry(w io.WriteCloser) *Registry {
	return &Registry{
		root: &log.Logger{
			Handler: NewLineHandler(w),
			Level:   log.InfoLevel,
		},
	}
}

// Named returns the logger for the subsystem, tagged with its name. A
// subsystem that was never attached logs through the root logger.
func (r *Registry) Named(name string) *log.Entry {
	if logger := r.lookup(name); logger != nil {
		return logger.WithField("sub", name)
	}
	return r.root.WithField("sub", name)
}

// Root returns the root logger.
func (r *Registry) Root() *log.Entry {
	return r.root.WithField("sub", RootName)
}

// Attach gives the subsystem its own logger writing to w. Attaching an
// already-attached name replaces the previous logger without closing its
// writer; Detach is the closing path.
func (r *Registry) Attach(name string, w io.WriteCloser) {
	r.subs.Store(name, &log.Logger{
		Handler: NewLineHandler(w),
		Level:   log.InfoLevel,
	})
}

// Detach removes the subsystem's logger and closes its writer. Logging
// under the name afterwards falls through to the root logger.
func (r *Registry) Detach(name string) {
	v, ok := r.subs.LoadAndDelete(name)
	if !ok {
		return
	}
	if h := handlerOf(v); h != nil {
		h.Close()
	}
}

// SetLevel changes the level for the named subsystem, or for the root
// logger when name is RootName.
func (r *Registry) SetLevel(name string, level log.Level) error {
	if name == RootName {
		r.root.Level = level
		return nil
	}

	logger := r.lookup(name)
	if logger == nil {
		return errors.Errorf("no such logging subsystem %q", name)
	}

	logger.Level = level
	return nil
}

// SetLevelFromString parses s as a level name and applies it.
func (r *Registry) SetLevelFromString(name, s string) error {
	level, err := log.ParseLevel(s)
	if err != nil {
		return errors.Wrapf(err, "bad level %q", s)
	}
	return r.SetLevel(name, level)
}

// SetOutput redirects the named subsystem, or the root logger when name is
// RootName, to a new writer. The previous writer is closed.
func (r *Registry) SetOutput(name string, w io.WriteCloser) error {
	var h *LineHandler
	if name == RootName {
		h, _ = r.root.Handler.(*LineHandler)
	} else {
		v, ok := r.subs.Load(name)
		if !ok {
			return errors.Errorf("no such logging subsystem %q", name)
		}
		h = handlerOf(v)
	}

	if h == nil {
		return errors.Errorf("logging subsystem %q has no retargetable handler", name)
	}

	h.SetOutput(w)
	return nil
}

func (r *Registry) lookup(name string) *log.Logger {
	v, ok := r.subs.Load(name)
	if !ok {
		return nil
	}
	logger, _ := v.(*log.Logger)
	return logger
}

func handlerOf(v interface{}) *LineHandler {
	logger, ok := v.(*log.Logger)
	if !ok {
		return nil
	}
	h, _ := logger.Handler.(*LineHandler)
	return h
}
