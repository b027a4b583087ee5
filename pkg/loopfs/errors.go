package loopfs

import (
	"fmt"
	"syscall"
)

// Kind classifies a failed native operation.
type Kind int

const (
	// IOError is a generic native failure with no more specific class.
	IOError Kind = iota
	NotFound
	PermissionDenied
	AlreadyExists
	NotSupported
	InvalidArgument
)

var kindNames = map[Kind]string{
	IOError:          "io error",
	NotFound:         "not found",
	PermissionDenied: "permission denied",
	AlreadyExists:    "already exists",
	NotSupported:     "not supported",
	InvalidArgument:  "invalid argument",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Error is the structured failure returned by every operation. It carries
// the original native error code for pass-through to the host.
type Error struct {
	Kind  Kind
	Op    string
	Path  string
	Errno syscall.Errno
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Errno)
	}
	return fmt.Sprintf("%s %s: %s (%s)", e.Op, e.Path, e.Kind, e.Errno)
}

func classify(errno syscall.Errno) Kind {
	switch errno {
	case syscall.ENOENT:
		return NotFound
	case syscall.EACCES, syscall.EPERM:
		return PermissionDenied
	case syscall.EEXIST:
		return AlreadyExists
	case syscall.ENOTSUP, syscall.ENOSYS:
		return NotSupported
	case syscall.EINVAL:
		return InvalidArgument
	default:
		return IOError
	}
}

// wrapErrno translates a native call failure into an *Error. A nil err maps
// to nil so call sites can return it directly.
func wrapErrno(op, path string, err error) error {
	if err == nil {
		return nil
	}

	errno, ok := err.(syscall.Errno)
	if !ok {
		return &Error{Kind: IOError, Op: op, Path: path, Errno: syscall.EIO}
	}

	return &Error{Kind: classify(errno), Op: op, Path: path, Errno: errno}
}

// ErrnoOf extracts the native error code from an operation failure. Errors
// that did not originate from a native call report EIO.
func ErrnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	if e, ok := err.(*Error); ok {
		return e.Errno
	}
	if errno, ok := err.(syscall.Errno); ok {
		return errno
	}
	return syscall.EIO
}

// KindOf classifies an operation failure. A nil error has no class and
// reports IOError.
func KindOf(err error) Kind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return IOError
}
