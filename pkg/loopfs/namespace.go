package loopfs

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// RenameOptions select extended rename semantics. With neither flag set a
// plain atomic rename is performed, silently replacing an existing
// destination. Swap atomically exchanges source and destination; Exclusive
// fails if the destination exists. Platforms lacking the extended primitive
// report NotSupported for either flag.
type RenameOptions struct {
	Swap      bool
	Exclusive bool
}

// Mkdir creates a directory at path with the given permission bits.
func (l *LoopbackFS) Mkdir(path string, mode uint32) error {
	return wrapErrno("mkdir", path, unix.Mkdir(l.Resolve(path), mode))
}

// Mknod creates a filesystem node at path. FIFOs go through the dedicated
// primitive; everything else through mknod proper.
func (l *LoopbackFS) Mknod(path string, mode uint32, dev uint64) error {
	realPath := l.Resolve(path)

	if mode&syscall.S_IFMT == syscall.S_IFIFO {
		return wrapErrno("mknod", path, unix.Mkfifo(realPath, mode))
	}
	return wrapErrno("mknod", path, unix.Mknod(realPath, mode, int(dev)))
}

// Link creates a hard link at otherPath referring to path. The system call
// is used directly rather than a copy-based helper so that hard-linking
// still works when a path component is itself a symbolic link.
func (l *LoopbackFS) Link(path, otherPath string) error {
	return wrapErrno("link", path, unix.Link(l.Resolve(path), l.Resolve(otherPath)))
}

// Symlink creates a symbolic link at path storing destination verbatim. The
// destination is an opaque string, never rewritten relative to the root;
// whether it points inside or outside the mount is the caller's concern.
func (l *LoopbackFS) Symlink(path, destination string) error {
	return wrapErrno("symlink", path, unix.Symlink(destination, l.Resolve(path)))
}

// Readlink returns the stored destination of the symbolic link at path.
func (l *LoopbackFS) Readlink(path string) (string, error) {
	buf := make([]byte, unix.PathMax)
	n, err := unix.Readlink(l.Resolve(path), buf)
	if err != nil {
		return "", wrapErrno("readlink", path, err)
	}
	return string(buf[:n]), nil
}

// Rename moves path to otherPath, honoring the extended semantics in opts.
func (l *LoopbackFS) Rename(path, otherPath string, opts RenameOptions) error {
	from, to := l.Resolve(path), l.Resolve(otherPath)

	if !opts.Swap && !opts.Exclusive {
		return wrapErrno("rename", path, unix.Rename(from, to))
	}
	return wrapErrno("renamex", path, renameExtended(from, to, opts))
}

// RemoveDirectory removes the directory at path through the directory-only
// primitive. A generic remove helper is deliberately not used here: its
// recursive-delete behavior would turn a single misdirected call into data
// loss.
func (l *LoopbackFS) RemoveDirectory(path string) error {
	return wrapErrno("rmdir", path, unix.Rmdir(l.Resolve(path)))
}

// RemoveItem removes the non-directory entry at path. Directories are
// refused outright; RemoveDirectory is the only way to remove one.
func (l *LoopbackFS) RemoveItem(path string) error {
	realPath := l.Resolve(path)

	var st unix.Stat_t
	if err := unix.Lstat(realPath, &st); err != nil {
		return wrapErrno("remove", path, err)
	}

	if st.Mode&syscall.S_IFMT == syscall.S_IFDIR {
		return wrapErrno("remove", path, syscall.EISDIR)
	}

	return wrapErrno("remove", path, unix.Unlink(realPath))
}

// ExchangeData atomically swaps the data and metadata of the two files,
// where the platform has an exchange primitive.
func (l *LoopbackFS) ExchangeData(path1, path2 string) error {
	return wrapErrno("exchange", path1, exchangeData(l.Resolve(path1), l.Resolve(path2)))
}
