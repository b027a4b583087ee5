package bridgefs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Getlk reports lock status for the described region.
func (f *FileHandle) Getlk(_ context.Context, _ uint64, lk *fuse.FileLock, _ uint32, out *fuse.FileLock) syscall.Errno {
	flk := syscall.Flock_t{}
	lk.ToFlockT(&flk)
	if err := f.handle.GetLock(&flk); err != nil {
		return errnoOf(err)
	}
	out.FromFlockT(&flk)
	return fs.OK
}

// Setlk acquires or releases a lock without blocking.
func (f *FileHandle) Setlk(ctx context.Context, owner uint64, lk *fuse.FileLock, flags uint32) syscall.Errno {
	return f.setLock(ctx, owner, lk, flags, false)
}

// Setlkw acquires or releases a lock, blocking until the region is free.
func (f *FileHandle) Setlkw(ctx context.Context, owner uint64, lk *fuse.FileLock, flags uint32) syscall.Errno {
	return f.setLock(ctx, owner, lk, flags, true)
}

func (f *FileHandle) setLock(_ context.Context, _ uint64, lk *fuse.FileLock, flags uint32, blocking bool) syscall.Errno {
	if flags&fuse.FUSE_LK_FLOCK != 0 {
		var op int
		switch lk.Typ {
		case syscall.F_RDLCK:
			op = syscall.LOCK_SH
		case syscall.F_WRLCK:
			op = syscall.LOCK_EX
		case syscall.F_UNLCK:
			op = syscall.LOCK_UN
		default:
			return syscall.EINVAL
		}
		if !blocking {
			op |= syscall.LOCK_NB
		}
		return errnoOf(f.handle.SetFlock(op))
	}

	flk := syscall.Flock_t{}
	lk.ToFlockT(&flk)
	return errnoOf(f.handle.SetLock(&flk, blocking))
}
