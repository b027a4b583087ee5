package loopfs

import (
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// FileHandle wraps a native file descriptor created by OpenFile or
// CreateFile. All I/O is positioned, so a handle may be used by concurrent
// requests without external locking. A handle is destroyed exactly once by
// Release; the host owns it in between.
type FileHandle struct {
	mu    sync.Mutex
	fd    int
	flags int
	path  string
	fs    *LoopbackFS
}

// PreallocateOptions select how Preallocate reserves space: contiguous
// or best-effort, all-or-nothing, and whether the offset is relative to the
// current end of file or to the volume.
type PreallocateOptions struct {
	Contiguous   bool
	AllOrNothing bool
	FromEOF      bool
	FromVolume   bool
}

// CreateFile opens, creating as the flags direct, the entry at path. A
// request that supplies no permission bits is refused; granting an
// all-zero mode is never what the caller wants.
func (l *LoopbackFS) CreateFile(path string, perm uint32, flags int) (*FileHandle, error) {
	if perm == 0 {
		return nil, &Error{Kind: PermissionDenied, Op: "create", Path: path, Errno: syscall.EPERM}
	}

	fd, err := unix.Open(l.Resolve(path), flags, perm)
	if err != nil {
		return nil, wrapErrno("create", path, err)
	}

	return &FileHandle{fd: fd, flags: flags, path: path, fs: l}, nil
}

// OpenFile opens an existing entry at path with the given native flags.
func (l *LoopbackFS) OpenFile(path string, flags int) (*FileHandle, error) {
	fd, err := unix.Open(l.Resolve(path), flags, 0)
	if err != nil {
		return nil, wrapErrno("open", path, err)
	}

	return &FileHandle{fd: fd, flags: flags, path: path, fs: l}, nil
}

// Path returns the virtual path the handle was opened with.
func (f *FileHandle) Path() string {
	return f.path
}

// Flags returns the native open flags the handle was created with.
func (f *FileHandle) Flags() int {
	return f.flags
}

// ReadAt reads up to len(buf) bytes at the given offset without disturbing
// any file-position cursor. A count short of len(buf) is legal and signals
// end of file or a short read.
func (f *FileHandle) ReadAt(buf []byte, off int64) (int, error) {
	n, err := unix.Pread(f.fd, buf, off)
	if err != nil {
		return -1, wrapErrno("read", f.path, err)
	}
	return n, nil
}

// WriteAt writes len(buf) bytes at the given offset and returns the count
// actually written.
func (f *FileHandle) WriteAt(buf []byte, off int64) (int, error) {
	n, err := unix.Pwrite(f.fd, buf, off)
	if err != nil {
		return -1, wrapErrno("write", f.path, err)
	}
	return n, nil
}

// Flush pushes buffered data without closing the handle. Closing a dup'd
// descriptor flushes while leaving the original open, since flush may be
// invoked once per dup of the descriptor.
func (f *FileHandle) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fd == -1 {
		return wrapErrno("flush", f.path, syscall.EBADF)
	}

	newFd, err := unix.Dup(f.fd)
	if err != nil {
		return wrapErrno("flush", f.path, err)
	}
	return wrapErrno("flush", f.path, unix.Close(newFd))
}

// Fsync flushes the file's data to stable storage.
func (f *FileHandle) Fsync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fd == -1 {
		return wrapErrno("fsync", f.path, syscall.EBADF)
	}
	return wrapErrno("fsync", f.path, unix.Fsync(f.fd))
}

// Release closes the underlying descriptor. Safe to call exactly once per
// handle; the contract offers no channel for close failures, so they are
// discarded.
func (f *FileHandle) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fd != -1 {
		_ = unix.Close(f.fd)
		f.fd = -1
	}
}

// Stat returns the handle's current attributes.
func (f *FileHandle) Stat() (Attributes, error) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return Attributes{}, wrapErrno("fgetattr", f.path, err)
	}

	attrs := statToAttributes(&st)
	if f.fs.cfg.BlockSize != 0 {
		attrs.BlockSize = f.fs.cfg.BlockSize
	}
	getExtendedTimes(f.fs.Resolve(f.path), &attrs)

	return attrs, nil
}

// SetAttributes is the handle variant of LoopbackFS.SetAttributes, operating
// on the open descriptor where the platform allows. Application order and
// abort-on-first-failure semantics are identical.
func (f *FileHandle) SetAttributes(set AttrSet) error {
	if set.Mode != nil {
		if err := unix.Fchmod(f.fd, *set.Mode); err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
	}

	if set.Uid != nil || set.Gid != nil {
		uid, gid := -1, -1
		if set.Uid != nil {
			uid = int(*set.Uid)
		}
		if set.Gid != nil {
			gid = int(*set.Gid)
		}
		if err := unix.Fchown(f.fd, uid, gid); err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
	}

	if set.Size != nil {
		if err := unix.Ftruncate(f.fd, *set.Size); err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
	}

	if set.Atime != nil || set.Mtime != nil {
		atime, mtime, err := f.resolveHandleTimes(set.Atime, set.Mtime)
		if err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
		tv := []unix.Timeval{timeToTimeval(atime), timeToTimeval(mtime)}
		if err := unix.Futimes(f.fd, tv); err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
	}

	realPath := f.fs.Resolve(f.path)

	if set.Chgtime != nil {
		if err := setChangeTime(realPath, *set.Chgtime); err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
	}

	if set.Crtime != nil {
		if err := setCreationTime(realPath, *set.Crtime); err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
	}

	if set.Bkuptime != nil {
		if err := setBackupTime(realPath, *set.Bkuptime); err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
	}

	if set.Flags != nil {
		if err := fchflags(f.fd, *set.Flags); err != nil {
			return wrapErrno("fsetattr", f.path, err)
		}
	}

	return nil
}

// Preallocate reserves space for the file through the platform's
// preallocation facility. Platforms without one report NotSupported.
func (f *FileHandle) Preallocate(opts PreallocateOptions, off, length int64) error {
	return f.preallocate(opts, off, length)
}

func (f *FileHandle) resolveHandleTimes(atime, mtime *time.Time) (time.Time, time.Time, error) {
	at := time.Now()
	if atime != nil {
		at = *atime
	}

	if mtime != nil {
		return at, *mtime, nil
	}

	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return time.Time{}, time.Time{}, err
	}

	return at, statMtime(&st), nil
}
