package clog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/require"
)

type bufWriter struct {
	bytes.Buffer
	closed bool
}

func (b *bufWriter) Close() error {
	b.closed = true
	return nil
}

func TestNamedFallsThroughToRoot(t *testing.T) {
	var buf bufWriter
	r := NewRegistry(&buf)

	r.Named("never-attached").Info("falls through")
	require.Contains(t, buf.String(), "falls through")
	require.Contains(t, buf.String(), "sub=never-attached")
}

func TestAttachedSubsystemGetsOwnWriter(t *testing.T) {
	var rootBuf, fuseBuf bufWriter
	r := NewRegistry(&rootBuf)
	r.Attach("fuse", &fuseBuf)

	r.Named("fuse").Info("mounted")
	r.Root().Info("starting")

	require.Contains(t, fuseBuf.String(), "mounted")
	require.NotContains(t, fuseBuf.String(), "starting")
	require.Contains(t, rootBuf.String(), "starting")
	require.NotContains(t, rootBuf.String(), "mounted")
}

func TestDetachClosesWriterAndFallsThrough(t *testing.T) {
	var rootBuf, subBuf bufWriter
	r := NewRegistry(&rootBuf)

	r.Attach("api", &subBuf)
	r.Detach("api")
	require.True(t, subBuf.closed)

	r.Named("api").Info("after detach")
	require.Contains(t, rootBuf.String(), "after detach")
}

func TestSetLevel(t *testing.T) {
	var buf bufWriter
	r := NewRegistry(&buf)
	r.Attach("quiet", &buf)

	require.NoError(t, r.SetLevel("quiet", log.ErrorLevel))
	r.Named("quiet").Info("dropped")
	require.NotContains(t, buf.String(), "dropped")

	r.Named("quiet").Error("kept")
	require.Contains(t, buf.String(), "kept")
}

func TestSetLevelUnknownSubsystem(t *testing.T) {
	r := NewRegistry(&bufWriter{})
	require.Error(t, r.SetLevel("no-such", log.DebugLevel))
}

func TestSetLevelFromString(t *testing.T) {
	var buf bufWriter
	r := NewRegistry(&buf)

	require.NoError(t, r.SetLevelFromString(RootName, "debug"))
	r.Root().Debug("now visible")
	require.Contains(t, buf.String(), "now visible")

	require.Error(t, r.SetLevelFromString(RootName, "chatty"))
}

func TestSetOutputSwitchesWriter(t *testing.T) {
	var first, second bufWriter
	r := NewRegistry(&first)

	require.NoError(t, r.SetOutput(RootName, &second))
	require.True(t, first.closed)

	r.Root().Info("redirected")
	require.Contains(t, second.String(), "redirected")
	require.NotContains(t, first.String(), "redirected")
}

func TestLineHandlerSortsFields(t *testing.T) {
	var buf bufWriter
	logger := &log.Logger{Handler: NewLineHandler(&buf), Level: log.InfoLevel}

	logger.WithField("zebra", 1).WithField("alpha", 2).Info("fields")

	line := buf.String()
	require.True(t, strings.Index(line, "alpha=2") < strings.Index(line, "zebra=1"))
	require.Contains(t, line, "INFO")
}
