package clog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/apex/log"
)

// LineHandler writes one line per entry: timestamp, level, message, then
// the fields sorted by name so diffs of two log lines stay readable.
type LineHandler struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func NewLineHandler(w io.WriteCloser) *LineHandler {
	return &LineHandler{w: w}
}

// SetOutput swaps the destination writer, closing the old one.
func (h *LineHandler) SetOutput(w io.WriteCloser) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closeWriter()
	h.w = w
}

// Close closes the destination unless it is one of the process standard
// streams, which the handler never owns.
func (h *LineHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeWriter()
}

func (h *LineHandler) closeWriter() {
	if h.w == nil || h.w == os.Stdout || h.w == os.Stderr {
		return
	}
	_ = h.w.Close()
}

func (h *LineHandler) HandleLog(e *log.Entry) error {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var b bytes.Buffer
	_, _ = fmt.Fprintf(&b, "%s %5s %s", time.Now().Format(time.DateTime), levelName(e.Level), e.Message)
	for _, k := range names {
		_, _ = fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, b.String())
	return err
}

func levelName(l log.Level) string {
	switch l {
	case log.DebugLevel:
		return "DEBUG"
	case log.InfoLevel:
		return "INFO"
	case log.WarnLevel:
		return "WARN"
	case log.ErrorLevel:
		return "ERROR"
	case log.FatalLevel:
		return "FATAL"
	}
	return "?????"
}
