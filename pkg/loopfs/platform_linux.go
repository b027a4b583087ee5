//go:build linux

package loopfs

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Linux has no renamex-style primitive, but renameat2 covers the same
// swap/exclusive semantics.
const atomicRenameSupported = true

const errNoXattr = syscall.ENODATA

// Linux volumes are case-sensitive; there is nothing to probe.
func probeCaseSensitive(root string) bool {
	return true
}

func statToAttributes(st *unix.Stat_t) Attributes {
	return Attributes{
		Ino:       st.Ino,
		Mode:      st.Mode,
		Nlink:     uint32(st.Nlink),
		Uid:       st.Uid,
		Gid:       st.Gid,
		Rdev:      st.Rdev,
		Size:      st.Size,
		Blocks:    st.Blocks,
		BlockSize: uint32(st.Blksize),
		Atime:     time.Unix(st.Atim.Sec, st.Atim.Nsec),
		Mtime:     time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		Ctime:     time.Unix(st.Ctim.Sec, st.Ctim.Nsec),
	}
}

func statMtime(st *unix.Stat_t) time.Time {
	return time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
}

// getExtendedTimes fills in the creation time where the kernel and
// filesystem can report one. Backup time has no Linux counterpart and BSD
// flags stay zero.
func getExtendedTimes(realPath string, attrs *Attributes) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, realPath, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil {
		return
	}

	if stx.Mask&unix.STATX_BTIME != 0 {
		attrs.Crtime = time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
	}
}

func lchmod(realPath string, mode uint32) error {
	return unix.Fchmodat(unix.AT_FDCWD, realPath, mode, 0)
}

func setChangeTime(realPath string, t time.Time) error {
	return syscall.ENOTSUP
}

func setCreationTime(realPath string, t time.Time) error {
	return syscall.ENOTSUP
}

func setBackupTime(realPath string, t time.Time) error {
	return syscall.ENOTSUP
}

func lchflags(realPath string, flags uint32) error {
	return syscall.ENOTSUP
}

func fchflags(fd int, flags uint32) error {
	return syscall.ENOTSUP
}

func (f *FileHandle) preallocate(opts PreallocateOptions, off, length int64) error {
	if opts.FromEOF {
		var st unix.Stat_t
		if err := unix.Fstat(f.fd, &st); err != nil {
			return wrapErrno("fallocate", f.path, err)
		}
		off += st.Size
	}

	// fallocate is already all-or-nothing; the contiguity hint has no
	// Linux expression.
	return wrapErrno("fallocate", f.path, unix.Fallocate(f.fd, 0, off, length))
}

func renameExtended(from, to string, opts RenameOptions) error {
	var flags uint
	if opts.Swap {
		flags |= unix.RENAME_EXCHANGE
	}
	if opts.Exclusive {
		flags |= unix.RENAME_NOREPLACE
	}
	return unix.Renameat2(unix.AT_FDCWD, from, unix.AT_FDCWD, to, flags)
}

func exchangeData(path1, path2 string) error {
	return unix.Renameat2(unix.AT_FDCWD, path1, unix.AT_FDCWD, path2, unix.RENAME_EXCHANGE)
}

func fsStatfs(realPath string) (FilesystemAttributes, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(realPath, &st); err != nil {
		return FilesystemAttributes{}, err
	}

	return FilesystemAttributes{
		BlockSize:   uint32(st.Bsize),
		Blocks:      uint64(st.Blocks),
		BlocksFree:  uint64(st.Bfree),
		BlocksAvail: uint64(st.Bavail),
		Files:       uint64(st.Files),
		FilesFree:   uint64(st.Ffree),
	}, nil
}

// xattrSetFlags keeps only the create/replace bits a Linux setxattr
// understands; everything else the host passes along is dropped.
func xattrSetFlags(flags uint32) int {
	return int(flags) & (unix.XATTR_CREATE | unix.XATTR_REPLACE)
}
