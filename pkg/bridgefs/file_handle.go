package bridgefs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/loopfs/loopfs/pkg/loopfs"
)

// FileHandle adapts an open passthrough handle to the kernel protocol. The
// underlying handle does positioned I/O only, so reads and writes need no
// locking here; lifecycle calls serialize inside the handle itself.
type FileHandle struct {
	handle *loopfs.FileHandle
}

var _ = (fs.FileHandle)((*FileHandle)(nil))
var _ = (fs.FileReader)((*FileHandle)(nil))
var _ = (fs.FileWriter)((*FileHandle)(nil))
var _ = (fs.FileFlusher)((*FileHandle)(nil))
var _ = (fs.FileReleaser)((*FileHandle)(nil))
var _ = (fs.FileFsyncer)((*FileHandle)(nil))
var _ = (fs.FileGetattrer)((*FileHandle)(nil))
var _ = (fs.FileSetattrer)((*FileHandle)(nil))
var _ = (fs.FileAllocater)((*FileHandle)(nil))
var _ = (fs.FileGetlker)((*FileHandle)(nil))
var _ = (fs.FileSetlker)((*FileHandle)(nil))
var _ = (fs.FileSetlkwer)((*FileHandle)(nil))

func (f *FileHandle) Read(_ context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := f.handle.ReadAt(dest, off)
	if err != nil {
		return nil, errnoOf(err)
	}
	return fuse.ReadResultData(dest[:n]), fs.OK
}

func (f *FileHandle) Write(_ context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := f.handle.WriteAt(data, off)
	if err != nil {
		return 0, errnoOf(err)
	}
	return uint32(n), fs.OK
}

// Flush runs once per dup of the kernel's file descriptor, so it must not
// tear down the handle.
func (f *FileHandle) Flush(_ context.Context) syscall.Errno {
	return errnoOf(f.handle.Flush())
}

func (f *FileHandle) Release(_ context.Context) syscall.Errno {
	f.handle.Release()
	return fs.OK
}

func (f *FileHandle) Fsync(_ context.Context, _ uint32) syscall.Errno {
	return errnoOf(f.handle.Fsync())
}

func (f *FileHandle) Getattr(_ context.Context, out *fuse.AttrOut) syscall.Errno {
	attrs, err := f.handle.Stat()
	if err != nil {
		return errnoOf(err)
	}
	fillAttr(attrs, &out.Attr)
	return fs.OK
}

func (f *FileHandle) Setattr(ctx context.Context, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if err := f.handle.SetAttributes(attrSetFromFuse(in)); err != nil {
		return errnoOf(err)
	}
	return f.Getattr(ctx, out)
}

// Allocate reserves space through the platform preallocation facility. The
// kernel's fallocate mode bits have no portable mapping onto the handler's
// options, so a plain best-effort reservation is requested.
func (f *FileHandle) Allocate(_ context.Context, off uint64, size uint64, _ uint32) syscall.Errno {
	return errnoOf(f.handle.Preallocate(loopfs.PreallocateOptions{}, int64(off), int64(size)))
}
