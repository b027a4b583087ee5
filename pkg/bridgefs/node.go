package bridgefs

import (
	"context"
	"path/filepath"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/loopfs/loopfs/pkg/clog"
	"github.com/loopfs/loopfs/pkg/loopfs"
)

// Kernel rename flag bits, as delivered in the rename2 request.
const (
	renameFlagNoReplace = 0x1
	renameFlagExchange  = 0x2
)

type RootData struct {
	lfs *loopfs.LoopbackFS
}

// Node bridges a single entry in the mounted tree to the passthrough
// handler. Nodes carry no state of their own; every operation resolves the
// virtual path fresh from the inode tree.
type Node struct {
	fs.Inode
	RootData *RootData
}

func CreateFS(lfs *loopfs.LoopbackFS) *Node {
	return &Node{RootData: &RootData{lfs: lfs}}
}

func (n *Node) newNode() *Node {
	return &Node{RootData: n.RootData}
}

func (n *Node) path() string {
	return filepath.Join("/", n.Path(n.Root()))
}

func (n *Node) childPath(name string) string {
	return filepath.Join(n.path(), name)
}

func errnoOf(err error) syscall.Errno {
	if err == nil {
		return fs.OK
	}
	return loopfs.ErrnoOf(err)
}

func fillAttr(a loopfs.Attributes, out *fuse.Attr) {
	out.Ino = a.Ino
	out.Size = uint64(a.Size)
	out.Blocks = uint64(a.Blocks)
	out.Blksize = a.BlockSize
	out.Mode = a.Mode
	out.Nlink = a.Nlink
	out.Owner = fuse.Owner{Uid: a.Uid, Gid: a.Gid}
	out.Rdev = uint32(a.Rdev)
	out.SetTimes(&a.Atime, &a.Mtime, &a.Ctime)
}

func stableAttr(a loopfs.Attributes) fs.StableAttr {
	return fs.StableAttr{Mode: a.Mode & uint32(syscall.S_IFMT), Ino: a.Ino}
}

// Lookup returns the entry for name under this directory.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.childPath(name)
	attrs, err := n.RootData.lfs.GetAttributes(p)
	if err != nil {
		return nil, errnoOf(err)
	}

	fillAttr(attrs, &out.Attr)
	return n.NewInode(ctx, n.newNode(), stableAttr(attrs)), fs.OK
}

// Getattr reports attributes for this entry, preferring the open handle
// when the kernel supplies one.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if fops, ok := f.(fs.FileGetattrer); ok && fops != nil {
		return fops.Getattr(ctx, out)
	}

	attrs, err := n.RootData.lfs.GetAttributes(n.path())
	if err != nil {
		return errnoOf(err)
	}

	fillAttr(attrs, &out.Attr)
	return fs.OK
}

// Setattr applies the requested attribute changes and reports the entry's
// attributes afterwards. Changes the handler could apply before a failure
// stay applied.
func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if fops, ok := f.(fs.FileSetattrer); ok && fops != nil {
		return fops.Setattr(ctx, in, out)
	}

	p := n.path()
	if err := n.RootData.lfs.SetAttributes(p, attrSetFromFuse(in)); err != nil {
		return errnoOf(err)
	}

	attrs, err := n.RootData.lfs.GetAttributes(p)
	if err != nil {
		return errnoOf(err)
	}

	fillAttr(attrs, &out.Attr)
	return fs.OK
}

// attrSetFromFuse maps the kernel's setattr valid-mask into the handler's
// sparse attribute record.
func attrSetFromFuse(in *fuse.SetAttrIn) loopfs.AttrSet {
	var set loopfs.AttrSet

	if mode, ok := in.GetMode(); ok {
		set.Mode = &mode
	}
	if uid, ok := in.GetUID(); ok {
		set.Uid = &uid
	}
	if gid, ok := in.GetGID(); ok {
		set.Gid = &gid
	}
	if sz, ok := in.GetSize(); ok {
		size := int64(sz)
		set.Size = &size
	}
	if atime, ok := in.GetATime(); ok {
		t := atime
		set.Atime = &t
	}
	if mtime, ok := in.GetMTime(); ok {
		t := mtime
		set.Mtime = &t
	}
	if ctime, ok := in.GetCTime(); ok {
		t := ctime
		set.Chgtime = &t
	}

	return set
}

// Readlink returns the stored destination of the symbolic link.
func (n *Node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	dest, err := n.RootData.lfs.Readlink(n.path())
	if err != nil {
		return nil, errnoOf(err)
	}
	return []byte(dest), fs.OK
}

// Opendir always succeeds. The stream is opened lazily by Readdir so that
// a stream exists per enumeration, not per open; open failures surface
// there.
func (n *Node) Opendir(_ context.Context) syscall.Errno {
	return fs.OK
}

// Readdir opens a seekable stream over the directory's entries.
func (n *Node) Readdir(_ context.Context) (fs.DirStream, syscall.Errno) {
	dh, err := n.RootData.lfs.OpenDir(n.path())
	if err != nil {
		return nil, errnoOf(err)
	}
	return &dirStream{dh: dh}, fs.OK
}

// Mknod creates a device node, socket, or FIFO entry.
func (n *Node) Mknod(ctx context.Context, name string, mode uint32, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.childPath(name)
	if err := n.RootData.lfs.Mknod(p, mode, uint64(dev)); err != nil {
		return nil, errnoOf(err)
	}
	return n.lookupNew(ctx, p, out)
}

// Mkdir creates a directory entry.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.childPath(name)
	if err := n.RootData.lfs.Mkdir(p, mode); err != nil {
		return nil, errnoOf(err)
	}
	return n.lookupNew(ctx, p, out)
}

// Symlink creates a symbolic link storing target verbatim.
func (n *Node) Symlink(ctx context.Context, target, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.childPath(name)
	if err := n.RootData.lfs.Symlink(p, target); err != nil {
		return nil, errnoOf(err)
	}
	return n.lookupNew(ctx, p, out)
}

// Link creates a hard link under this directory referring to target.
func (n *Node) Link(ctx context.Context, target fs.InodeEmbedder, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	existing := filepath.Join("/", target.EmbeddedInode().Path(nil))
	p := n.childPath(name)
	if err := n.RootData.lfs.Link(existing, p); err != nil {
		return nil, errnoOf(err)
	}
	return n.lookupNew(ctx, p, out)
}

// Unlink removes a non-directory entry. Directories are refused with
// EISDIR; only Rmdir removes them.
func (n *Node) Unlink(_ context.Context, name string) syscall.Errno {
	return errnoOf(n.RootData.lfs.RemoveItem(n.childPath(name)))
}

// Rmdir removes an empty directory.
func (n *Node) Rmdir(_ context.Context, name string) syscall.Errno {
	return errnoOf(n.RootData.lfs.RemoveDirectory(n.childPath(name)))
}

// Rename moves or exchanges entries. The exchange and no-replace flag bits
// map onto the handler's extended rename semantics.
func (n *Node) Rename(_ context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	from := n.childPath(name)
	to := filepath.Join("/", newParent.EmbeddedInode().Path(nil), newName)

	opts := loopfs.RenameOptions{
		Swap:      flags&renameFlagExchange != 0,
		Exclusive: flags&renameFlagNoReplace != 0,
	}
	return errnoOf(n.RootData.lfs.Rename(from, to, opts))
}

// Create creates and opens a regular file in one step.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	p := n.childPath(name)

	h, err := n.RootData.lfs.CreateFile(p, mode, int(flags)|syscall.O_CREAT)
	if err != nil {
		clog.Global().Debugf("Node.Create %s: %s", p, err)
		return nil, nil, 0, errnoOf(err)
	}

	attrs, err := h.Stat()
	if err != nil {
		h.Release()
		return nil, nil, 0, errnoOf(err)
	}

	fillAttr(attrs, &out.Attr)
	node := n.NewInode(ctx, n.newNode(), stableAttr(attrs))
	return node, &FileHandle{handle: h}, 0, fs.OK
}

// Open opens an existing file.
func (n *Node) Open(_ context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	h, err := n.RootData.lfs.OpenFile(n.path(), int(flags))
	if err != nil {
		return nil, 0, errnoOf(err)
	}
	return &FileHandle{handle: h}, 0, fs.OK
}

// Getxattr reads an extended attribute value into dest.
func (n *Node) Getxattr(_ context.Context, attr string, dest []byte) (uint32, syscall.Errno) {
	sz, err := n.RootData.lfs.GetXattr(n.path(), attr, dest, 0)
	if err != nil {
		return 0, errnoOf(err)
	}
	return uint32(sz), fs.OK
}

// Setxattr stores an extended attribute value.
func (n *Node) Setxattr(_ context.Context, attr string, data []byte, flags uint32) syscall.Errno {
	return errnoOf(n.RootData.lfs.SetXattr(n.path(), attr, data, 0, flags))
}

// Listxattr reads the attribute name list into dest.
func (n *Node) Listxattr(_ context.Context, dest []byte) (uint32, syscall.Errno) {
	sz, err := n.RootData.lfs.ListXattr(n.path(), dest)
	if err != nil {
		return 0, errnoOf(err)
	}
	return uint32(sz), fs.OK
}

// Removexattr deletes an extended attribute.
func (n *Node) Removexattr(_ context.Context, attr string) syscall.Errno {
	return errnoOf(n.RootData.lfs.RemoveXattr(n.path(), attr))
}

// Allocate reserves space for future writes through the open handle.
func (n *Node) Allocate(ctx context.Context, f fs.FileHandle, off uint64, size uint64, mode uint32) syscall.Errno {
	if fops, ok := f.(fs.FileAllocater); ok && fops != nil {
		return fops.Allocate(ctx, off, size, mode)
	}
	return syscall.EBADF
}

// Statfs reports volume statistics for the filesystem backing the mount.
func (n *Node) Statfs(_ context.Context, out *fuse.StatfsOut) syscall.Errno {
	st, err := n.RootData.lfs.GetFilesystemAttributes(n.path())
	if err != nil {
		return errnoOf(err)
	}

	out.Blocks = st.Blocks
	out.Bfree = st.BlocksFree
	out.Bavail = st.BlocksAvail
	out.Files = st.Files
	out.Ffree = st.FilesFree
	out.Bsize = st.BlockSize
	out.Frsize = st.BlockSize
	out.NameLen = 255

	return fs.OK
}

func (n *Node) lookupNew(ctx context.Context, p string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	attrs, err := n.RootData.lfs.GetAttributes(p)
	if err != nil {
		return nil, errnoOf(err)
	}
	fillAttr(attrs, &out.Attr)
	return n.NewInode(ctx, n.newNode(), stableAttr(attrs)), fs.OK
}

var _ = (fs.NodeLookuper)((*Node)(nil))
var _ = (fs.NodeGetattrer)((*Node)(nil))
var _ = (fs.NodeSetattrer)((*Node)(nil))
var _ = (fs.NodeReadlinker)((*Node)(nil))
var _ = (fs.NodeOpendirer)((*Node)(nil))
var _ = (fs.NodeReaddirer)((*Node)(nil))
var _ = (fs.NodeMknoder)((*Node)(nil))
var _ = (fs.NodeMkdirer)((*Node)(nil))
var _ = (fs.NodeSymlinker)((*Node)(nil))
var _ = (fs.NodeLinker)((*Node)(nil))
var _ = (fs.NodeUnlinker)((*Node)(nil))
var _ = (fs.NodeRmdirer)((*Node)(nil))
var _ = (fs.NodeRenamer)((*Node)(nil))
var _ = (fs.NodeCreater)((*Node)(nil))
var _ = (fs.NodeOpener)((*Node)(nil))
var _ = (fs.NodeGetxattrer)((*Node)(nil))
var _ = (fs.NodeSetxattrer)((*Node)(nil))
var _ = (fs.NodeListxattrer)((*Node)(nil))
var _ = (fs.NodeRemovexattrer)((*Node)(nil))
var _ = (fs.NodeAllocater)((*Node)(nil))
var _ = (fs.NodeStatfser)((*Node)(nil))
