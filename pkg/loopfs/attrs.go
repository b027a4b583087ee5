package loopfs

import (
	"time"

	"golang.org/x/sys/unix"
)

// Attributes is the metadata record for a single entry: the standard stat
// fields plus the platform extensions (creation time, backup time, BSD
// flags). Extension fields are zero when the platform cannot report them.
type Attributes struct {
	Ino    uint64
	Mode   uint32
	Nlink  uint32
	Uid    uint32
	Gid    uint32
	Rdev   uint64
	Size   int64
	Blocks int64

	// BlockSize is the optimal I/O size. When the mount configures a fixed
	// block size that value always wins over the per-file one, so that
	// iosize accounting stays consistent with what the mount advertises.
	BlockSize uint32

	Atime time.Time
	Mtime time.Time
	Ctime time.Time

	Crtime   time.Time
	Bkuptime time.Time

	Flags uint32
}

// AttrSet is the subset of attributes a setattr request wants applied. Nil
// fields are left untouched. Fields are applied in a fixed order and the
// first failure aborts the remaining applications.
type AttrSet struct {
	Mode     *uint32
	Uid      *uint32
	Gid      *uint32
	Size     *int64
	Atime    *time.Time
	Mtime    *time.Time
	Chgtime  *time.Time
	Crtime   *time.Time
	Bkuptime *time.Time
	Flags    *uint32
}

// Capabilities are the static capability declarations the handler asserts
// for the mount. Only case sensitivity is probed from the real volume, once
// at construction.
type Capabilities struct {
	ExtendedDates    bool
	CaseSensitive    bool
	AtomicRename     bool
	VolumeRename     bool
	ReadWriteLocking bool
}

// FilesystemAttributes reports volume-level statistics scaled to the
// configured block size, plus the mount's capability declarations.
type FilesystemAttributes struct {
	BlockSize    uint32
	Blocks       uint64
	BlocksFree   uint64
	BlocksAvail  uint64
	Files        uint64
	FilesFree    uint64
	Capabilities Capabilities
}

// NamedAttributes pairs a directory entry name with its attributes.
type NamedAttributes struct {
	Name       string
	Attributes Attributes
}

// GetAttributes returns the metadata for the entry at path. Symbolic links
// report their own attributes, never the target's.
func (l *LoopbackFS) GetAttributes(path string) (Attributes, error) {
	realPath := l.Resolve(path)

	var st unix.Stat_t
	if err := unix.Lstat(realPath, &st); err != nil {
		return Attributes{}, wrapErrno("getattr", path, err)
	}

	attrs := statToAttributes(&st)
	if l.cfg.BlockSize != 0 {
		attrs.BlockSize = l.cfg.BlockSize
	}

	// Creation and backup times live outside the stat record on every
	// platform that has them. A failed fetch leaves them zero rather than
	// failing the whole getattr.
	getExtendedTimes(realPath, &attrs)

	return attrs, nil
}

// SetAttributes applies whichever attributes are present in set, in order:
// mode, owner, size, access/modification times, change time, creation time,
// backup time, flags. The first failure aborts immediately; attributes
// already applied stay applied.
func (l *LoopbackFS) SetAttributes(path string, set AttrSet) error {
	realPath := l.Resolve(path)

	if set.Mode != nil {
		if err := lchmod(realPath, *set.Mode); err != nil {
			return wrapErrno("setattr", path, err)
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
		if err := unix.Lchown(realPath, uid, gid); err != nil {
			return wrapErrno("setattr", path, err)
		}
	}

	if set.Size != nil {
		if err := unix.Truncate(realPath, *set.Size); err != nil {
			return wrapErrno("setattr", path, err)
		}
	}

	if set.Atime != nil || set.Mtime != nil {
		atime, mtime, err := resolveTimes(realPath, set.Atime, set.Mtime)
		if err != nil {
			return wrapErrno("setattr", path, err)
		}
		tv := []unix.Timeval{timeToTimeval(atime), timeToTimeval(mtime)}
		if err := unix.Lutimes(realPath, tv); err != nil {
			return wrapErrno("setattr", path, err)
		}
	}

	if set.Chgtime != nil {
		if err := setChangeTime(realPath, *set.Chgtime); err != nil {
			return wrapErrno("setattr", path, err)
		}
	}

	if set.Crtime != nil {
		if err := setCreationTime(realPath, *set.Crtime); err != nil {
			return wrapErrno("setattr", path, err)
		}
	}

	if set.Bkuptime != nil {
		if err := setBackupTime(realPath, *set.Bkuptime); err != nil {
			return wrapErrno("setattr", path, err)
		}
	}

	if set.Flags != nil {
		if err := lchflags(realPath, *set.Flags); err != nil {
			return wrapErrno("setattr", path, err)
		}
	}

	return nil
}

// GetFilesystemAttributes reports statistics for the volume backing path.
// When the mount configures a fixed block size the block counts are rescaled
// so that total capacity is preserved.
func (l *LoopbackFS) GetFilesystemAttributes(path string) (FilesystemAttributes, error) {
	stats, err := fsStatfs(l.Resolve(path))
	if err != nil {
		return FilesystemAttributes{}, wrapErrno("statfs", path, err)
	}

	if bs := uint64(l.cfg.BlockSize); bs != 0 {
		native := uint64(stats.BlockSize)
		stats.Blocks = stats.Blocks * native / bs
		stats.BlocksFree = stats.BlocksFree * native / bs
		stats.BlocksAvail = stats.BlocksAvail * native / bs
		stats.BlockSize = l.cfg.BlockSize
	}

	stats.Capabilities = l.caps
	return stats, nil
}

// SetVolumeName unconditionally succeeds. The handler declares the
// volume-rename capability but persists no renaming state of its own.
func (l *LoopbackFS) SetVolumeName(name string) error {
	return nil
}

// resolveTimes fills in the side of an atime/mtime pair the request omitted:
// a missing access time becomes now, a missing modification time keeps the
// entry's current value.
func resolveTimes(realPath string, atime, mtime *time.Time) (time.Time, time.Time, error) {
	at := time.Now()
	if atime != nil {
		at = *atime
	}

	if mtime != nil {
		return at, *mtime, nil
	}

	var st unix.Stat_t
	if err := unix.Lstat(realPath, &st); err != nil {
		return time.Time{}, time.Time{}, err
	}

	return at, statMtime(&st), nil
}

func timeToTimeval(t time.Time) unix.Timeval {
	return unix.NsecToTimeval(t.UnixNano())
}
