//go:build darwin

package loopfs

import (
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const atomicRenameSupported = true

const errNoXattr = syscall.ENOATTR

// The kernel sets these on every write to the vendor attribute namespace;
// passing them through makes the native call spuriously fail.
const (
	xattrNoSecurity = 0x0008
	xattrNoDefault  = 0x0010
)

const pcCaseSensitive = 11 // _PC_CASE_SENSITIVE

func probeCaseSensitive(root string) bool {
	v, err := unix.Pathconf(root, pcCaseSensitive)
	if err != nil {
		return true
	}
	return v == 1
}

func statToAttributes(st *unix.Stat_t) Attributes {
	return Attributes{
		Ino:       st.Ino,
		Mode:      uint32(st.Mode),
		Nlink:     uint32(st.Nlink),
		Uid:       st.Uid,
		Gid:       st.Gid,
		Rdev:      uint64(st.Rdev),
		Size:      st.Size,
		Blocks:    st.Blocks,
		BlockSize: uint32(st.Blksize),
		Atime:     time.Unix(st.Atimespec.Sec, st.Atimespec.Nsec),
		Mtime:     time.Unix(st.Mtimespec.Sec, st.Mtimespec.Nsec),
		Ctime:     time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec),
		Crtime:    time.Unix(st.Birthtimespec.Sec, st.Birthtimespec.Nsec),
		Flags:     st.Flags,
	}
}

func statMtime(st *unix.Stat_t) time.Time {
	return time.Unix(st.Mtimespec.Sec, st.Mtimespec.Nsec)
}

// getExtendedTimes is a no-op on darwin: the creation time already comes
// out of the stat record, and the backup time has no readable channel
// through the portable syscall surface, so it stays zero.
func getExtendedTimes(realPath string, attrs *Attributes) {
}

func lchmod(realPath string, mode uint32) error {
	return unix.Fchmodat(unix.AT_FDCWD, realPath, mode, unix.AT_SYMLINK_NOFOLLOW)
}

func setChangeTime(realPath string, t time.Time) error {
	return setAttrListTime(realPath, unix.ATTR_CMN_CHGTIME, t)
}

func setCreationTime(realPath string, t time.Time) error {
	return setAttrListTime(realPath, unix.ATTR_CMN_CRTIME, t)
}

func setBackupTime(realPath string, t time.Time) error {
	return setAttrListTime(realPath, unix.ATTR_CMN_BKUPTIME, t)
}

func lchflags(realPath string, flags uint32) error {
	// No lchflags wrapper is exposed; operating on an O_SYMLINK
	// descriptor reaches the link itself.
	fd, err := unix.Open(realPath, unix.O_RDONLY|unix.O_SYMLINK, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Fchflags(fd, int(flags))
}

func fchflags(fd int, flags uint32) error {
	return unix.Fchflags(fd, int(flags))
}

func (f *FileHandle) preallocate(opts PreallocateOptions, off, length int64) error {
	fstore := unix.Fstore_t{
		Offset: off,
		Length: length,
	}

	if opts.Contiguous {
		fstore.Flags |= unix.F_ALLOCATECONTIG
	}
	if opts.AllOrNothing {
		fstore.Flags |= unix.F_ALLOCATEALL
	}

	if opts.FromEOF {
		fstore.Posmode = unix.F_PEOFPOSMODE
	} else if opts.FromVolume {
		fstore.Posmode = unix.F_VOLPOSMODE
	}

	err := unix.FcntlFstore(uintptr(f.fd), unix.F_PREALLOCATE, &fstore)
	return wrapErrno("fallocate", f.path, err)
}

func renameExtended(from, to string, opts RenameOptions) error {
	var flags uint32
	if opts.Swap {
		flags |= unix.RENAME_SWAP
	}
	if opts.Exclusive {
		flags |= unix.RENAME_EXCL
	}
	return unix.RenameatxNp(unix.AT_FDCWD, from, unix.AT_FDCWD, to, flags)
}

func exchangeData(path1, path2 string) error {
	return unix.Exchangedata(path1, path2, 0)
}

func fsStatfs(realPath string) (FilesystemAttributes, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(realPath, &st); err != nil {
		return FilesystemAttributes{}, err
	}

	return FilesystemAttributes{
		BlockSize:   st.Bsize,
		Blocks:      st.Blocks,
		BlocksFree:  st.Bfree,
		BlocksAvail: st.Bavail,
		Files:       st.Files,
		FilesFree:   st.Ffree,
	}, nil
}

func xattrSetFlags(flags uint32) int {
	flags &^= xattrNoSecurity | xattrNoDefault
	return int(flags) & (unix.XATTR_CREATE | unix.XATTR_REPLACE)
}

func setAttrListTime(realPath string, attr uint32, t time.Time) error {
	list := unix.Attrlist{
		Bitmapcount: unix.ATTR_BIT_MAP_COUNT,
		Commonattr:  attr,
	}

	ts := unix.NsecToTimespec(t.UnixNano())
	buf := make([]byte, unsafe.Sizeof(ts))
	*(*unix.Timespec)(unsafe.Pointer(&buf[0])) = ts

	return unix.Setattrlist(realPath, &list, buf, unix.FSOPT_NOFOLLOW)
}
