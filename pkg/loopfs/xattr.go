package loopfs

import (
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// Extended attribute names in the reserved vendor namespace are rewritten
// to a sibling prefix of the same length before touching the real
// filesystem, so the kernel never sees writes to the protected namespace.
// The rewrite is applied consistently across set, get, list and remove so
// mangled and unmangled names stay in bijection. Attributes always attach
// to a symbolic link itself, never to its target.
const (
	vendorXattrPrefix  = "com.apple."
	mangledXattrPrefix = "org.apple."
)

func mangleXattrName(name string) string {
	if strings.HasPrefix(name, vendorXattrPrefix) {
		return mangledXattrPrefix + name[len(vendorXattrPrefix):]
	}
	return name
}

func unmangleXattrName(name string) string {
	if strings.HasPrefix(name, mangledXattrPrefix) {
		return vendorXattrPrefix + name[len(mangledXattrPrefix):]
	}
	return name
}

// rewriteXattrList rewrites vendor-prefixed names inside a null-separated
// name list in place. Both prefixes have the same length, so the list's
// size never changes.
func rewriteXattrList(list []byte) {
	start := 0
	for i := 0; i <= len(list); i++ {
		if i == len(list) || list[i] == 0 {
			if i > start {
				name := list[start:i]
				if strings.HasPrefix(string(name), vendorXattrPrefix) {
					copy(name, mangledXattrPrefix[:3])
				}
			}
			start = i + 1
		}
	}
}

// SetXattr stores an extended attribute. The position parameter is a byte
// offset used only for resource-fork-style attributes; a nonzero position
// overlays the value onto the existing attribute data at that offset.
// Host-supplied option bits beyond create/replace, which the kernel sets
// unconditionally on writes to the vendor namespace, are stripped before
// the native call or it spuriously fails.
func (l *LoopbackFS) SetXattr(path, name string, value []byte, position uint32, flags uint32) error {
	realPath := l.Resolve(path)
	name = mangleXattrName(name)

	if position != 0 {
		merged, err := overlayXattrValue(realPath, name, value, position)
		if err != nil {
			return wrapErrno("setxattr", path, err)
		}
		value = merged
		// Create/replace semantics do not compose with an overlay write.
		flags = 0
	}

	err := unix.Lsetxattr(realPath, name, value, xattrSetFlags(flags))
	return wrapErrno("setxattr", path, err)
}

// GetXattr reads an extended attribute into dest, returning the byte count.
// An empty dest reports the attribute's size. A nonzero position reads from
// that byte offset within the attribute data.
func (l *LoopbackFS) GetXattr(path, name string, dest []byte, position uint32) (int, error) {
	realPath := l.Resolve(path)
	name = mangleXattrName(name)

	if position == 0 {
		n, err := unix.Lgetxattr(realPath, name, dest)
		if err != nil {
			return -1, wrapErrno("getxattr", path, err)
		}
		return n, nil
	}

	full, err := readXattrValue(realPath, name)
	if err != nil {
		return -1, wrapErrno("getxattr", path, err)
	}

	if int(position) >= len(full) {
		return 0, nil
	}
	tail := full[position:]
	if len(dest) == 0 {
		return len(tail), nil
	}
	return copy(dest, tail), nil
}

// ListXattr reads the null-separated attribute name list into dest, with
// vendor-prefixed names rewritten to their mangled form. An empty dest
// reports the list's size, which the rewrite never changes.
func (l *LoopbackFS) ListXattr(path string, dest []byte) (int, error) {
	n, err := unix.Llistxattr(l.Resolve(path), dest)
	if err != nil {
		return -1, wrapErrno("listxattr", path, err)
	}

	if n > 0 && len(dest) > 0 {
		rewriteXattrList(dest[:n])
	}

	return n, nil
}

// RemoveXattr deletes an extended attribute.
func (l *LoopbackFS) RemoveXattr(path, name string) error {
	err := unix.Lremovexattr(l.Resolve(path), mangleXattrName(name))
	return wrapErrno("removexattr", path, err)
}

// readXattrValue fetches an attribute's full value, sizing the buffer
// first and retrying if the attribute grows between the two calls.
func readXattrValue(realPath, name string) ([]byte, error) {
	for {
		sz, err := unix.Lgetxattr(realPath, name, nil)
		if err != nil {
			return nil, err
		}
		if sz == 0 {
			return nil, nil
		}

		buf := make([]byte, sz)
		n, err := unix.Lgetxattr(realPath, name, buf)
		if err == syscall.ERANGE {
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}
}

// overlayXattrValue writes value into the existing attribute data at the
// given byte offset, zero-filling any gap past the current end.
func overlayXattrValue(realPath, name string, value []byte, position uint32) ([]byte, error) {
	existing, err := readXattrValue(realPath, name)
	if err != nil && err != errNoXattr {
		return nil, err
	}

	end := int(position) + len(value)
	merged := make([]byte, end)
	copy(merged, existing)
	copy(merged[position:], value)

	if len(existing) > end {
		merged = append(merged, existing[end:]...)
	}

	return merged, nil
}
