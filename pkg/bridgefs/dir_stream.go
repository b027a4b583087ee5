package bridgefs

import (
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/loopfs/loopfs/pkg/loopfs"
)

// dirStream pulls entries one at a time out of a seekable directory handle.
// Each load advances the handle past exactly one entry, so the handle's
// recorded offset always points at the entry the stream has not yet
// delivered.
type dirStream struct {
	dh      *loopfs.DirHandle
	pending *loopfs.DirEntry
	err     error
}

var _ = (fs.DirStream)((*dirStream)(nil))

func (s *dirStream) load() {
	if s.pending != nil || s.err != nil {
		return
	}

	taken := false
	s.err = s.dh.ReadDir(s.dh.Offset(), func(e loopfs.DirEntry) bool {
		if taken {
			return true
		}
		taken = true
		entry := e
		s.pending = &entry
		return false
	})
}

// HasNext reports true while an entry or a failure is pending. A failed
// read must keep the stream alive so Next can return the errno instead of
// the enumeration ending as if the directory were exhausted.
func (s *dirStream) HasNext() bool {
	s.load()
	return s.pending != nil || s.err != nil
}

func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	s.load()
	if s.pending != nil {
		e := *s.pending
		s.pending = nil
		return fuse.DirEntry{Name: e.Name, Ino: e.Ino, Mode: e.Mode}, fs.OK
	}
	if s.err != nil {
		err := s.err
		s.err = nil
		return fuse.DirEntry{}, errnoOf(err)
	}
	return fuse.DirEntry{}, syscall.ENOENT
}

func (s *dirStream) Close() {
	s.dh.Release()
}
