//go:build linux

package loopfs

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// parseDirent decodes the first kernel dirent record in buf. It returns the
// decoded entry and the number of bytes consumed; a nil entry with a
// positive count marks a deleted record to skip. Offsets are the kernel's
// seekable directory cookies shifted up by one.
func parseDirent(buf []byte) (*DirEntry, int) {
	nameOff := int(unsafe.Offsetof(unix.Dirent{}.Name))
	if len(buf) < nameOff {
		return nil, len(buf)
	}

	de := (*unix.Dirent)(unsafe.Pointer(&buf[0]))
	reclen := int(de.Reclen)
	if reclen < nameOff || reclen > len(buf) {
		return nil, len(buf)
	}

	if de.Ino == 0 {
		return nil, reclen
	}

	name := buf[nameOff:reclen]
	for i, b := range name {
		if b == 0 {
			name = name[:i]
			break
		}
	}

	return &DirEntry{
		Name:       string(name),
		Ino:        de.Ino,
		Mode:       uint32(de.Type) << 12,
		NextOffset: de.Off + 1,
	}, reclen
}
