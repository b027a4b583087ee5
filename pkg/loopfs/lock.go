package loopfs

import "syscall"

// GetLock reports whether the described region could be locked, filling lk
// with the conflicting lock when one exists.
func (f *FileHandle) GetLock(lk *syscall.Flock_t) error {
	return wrapErrno("getlk", f.path, syscall.FcntlFlock(uintptr(f.fd), syscall.F_GETLK, lk))
}

// SetLock acquires or releases the described record lock, blocking until
// the region is available when wait is set.
func (f *FileHandle) SetLock(lk *syscall.Flock_t, wait bool) error {
	cmd := syscall.F_SETLK
	if wait {
		cmd = syscall.F_SETLKW
	}
	return wrapErrno("setlk", f.path, syscall.FcntlFlock(uintptr(f.fd), cmd, lk))
}

// SetFlock applies a whole-file advisory lock operation.
func (f *FileHandle) SetFlock(op int) error {
	return wrapErrno("flock", f.path, syscall.Flock(f.fd, op))
}
