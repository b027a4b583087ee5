package loopfs

import (
	"strings"

	"golang.org/x/sys/unix"
)

// DirEntry is a single directory entry with the minimal stat record a
// directory listing reports. NextOffset is the stream position after the
// entry, shifted up by one so that zero stays reserved for "restart from the
// beginning".
type DirEntry struct {
	Name       string
	Ino        uint64
	Mode       uint32
	NextOffset int64
}

// FillFunc receives entries during enumeration. Returning true stops the
// enumeration; the handle records its position so a later call with the
// same offset resumes at the entry the callback refused.
type FillFunc func(e DirEntry) bool

// DirHandle is a cursor over a real directory stream. It buffers the entry
// a stopped enumeration could not deliver and tracks the last offset handed
// out. Not safe for concurrent use; the host serializes calls per handle.
type DirHandle struct {
	fd     int
	path   string
	buf    []byte
	bufPos int
	bufEnd int
	entry  *DirEntry
	offset int64
}

// OpenDir opens a native directory stream for the directory at path.
func (l *LoopbackFS) OpenDir(path string) (*DirHandle, error) {
	fd, err := unix.Open(l.Resolve(path), unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, wrapErrno("opendir", path, err)
	}

	return &DirHandle{fd: fd, path: path, buf: make([]byte, 8192)}, nil
}

// ReadDir produces entries one at a time through fill, starting at
// startOffset. An offset of zero always restarts from the beginning. An
// offset that differs from the handle's last known position seeks the
// stream to startOffset-1, undoing the shift the entries were handed out
// with. Enumeration pauses when fill returns true and resumes on a later
// call carrying the same offset.
func (d *DirHandle) ReadDir(startOffset int64, fill FillFunc) error {
	if startOffset == 0 {
		if _, err := unix.Seek(d.fd, 0, 0); err != nil {
			return wrapErrno("readdir", d.path, err)
		}
		d.resetBuffer()
		d.offset = 0
	} else if startOffset != d.offset {
		if _, err := unix.Seek(d.fd, startOffset-1, 0); err != nil {
			return wrapErrno("readdir", d.path, err)
		}
		d.resetBuffer()
		d.offset = startOffset
	}

	for {
		if d.entry == nil {
			entry, err := d.next()
			if err != nil {
				return err
			}
			if entry == nil {
				break
			}
			d.entry = entry
		}

		if fill(*d.entry) {
			// The callback refused the entry. Keep it buffered so the
			// next call with this offset serves it first.
			break
		}

		d.offset = d.entry.NextOffset
		d.entry = nil
	}

	return nil
}

// Release closes the stream and frees the handle. Close failures have no
// reporting channel and are discarded.
func (d *DirHandle) Release() {
	if d.fd != -1 {
		_ = unix.Close(d.fd)
		d.fd = -1
	}
}

// Offset returns the last offset the handle handed out.
func (d *DirHandle) Offset() int64 {
	return d.offset
}

func (d *DirHandle) resetBuffer() {
	d.bufPos = 0
	d.bufEnd = 0
	d.entry = nil
}

// next returns the next real entry, refilling the dirent buffer from the
// kernel as needed. A nil entry with nil error signals end of stream.
func (d *DirHandle) next() (*DirEntry, error) {
	for {
		if d.bufPos >= d.bufEnd {
			n, err := unix.ReadDirent(d.fd, d.buf)
			if err != nil {
				return nil, wrapErrno("readdir", d.path, err)
			}
			if n == 0 {
				return nil, nil
			}
			d.bufPos = 0
			d.bufEnd = n
		}

		entry, consumed := parseDirent(d.buf[d.bufPos:d.bufEnd])
		d.bufPos += consumed

		if entry == nil {
			// Deleted or padding record; keep scanning.
			continue
		}

		return entry, nil
	}
}

// ListDirectory is the eager, attribute-rich variant of enumeration: it
// lists every entry with full attributes, skipping any child whose
// attribute fetch fails. One unreadable child should not hide its siblings.
func (l *LoopbackFS) ListDirectory(path string) ([]NamedAttributes, error) {
	d, err := l.OpenDir(path)
	if err != nil {
		return nil, err
	}
	defer d.Release()

	prefix := path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var entries []NamedAttributes
	var walkErr error

	walkErr = d.ReadDir(0, func(e DirEntry) bool {
		if e.Name == "." || e.Name == ".." {
			return false
		}

		attrs, err := l.GetAttributes(prefix + e.Name)
		if err != nil {
			return false
		}

		entries = append(entries, NamedAttributes{Name: e.Name, Attributes: attrs})
		return false
	})

	if walkErr != nil {
		return nil, walkErr
	}

	return entries, nil
}
