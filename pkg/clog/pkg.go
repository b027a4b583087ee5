package clog

import (
	"io"
	"os"

	"github.com/apex/log"
)

// The process-wide registry. The daemon and its packages share it so that
// the admin API can retarget any subsystem at runtime.
var registry = NewRegistry(os.Stdout)

func Named(name string) *log.Entry {
	return registry.Named(name)
}

func Global() *log.Entry {
	return registry.Root()
}

func Attach(name string, w io.WriteCloser) {
	registry.Attach(name, w)
}

func Detach(name string) {
	registry.Detach(name)
}

func SetLevel(name string, level log.Level) error {
	return registry.SetLevel(name, level)
}

func SetLevelFromString(name, s string) error {
	return registry.SetLevelFromString(name, s)
}

func SetOutput(name string, w io.WriteCloser) error {
	return registry.SetOutput(name, w)
}
