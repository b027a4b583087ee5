package loopfs

import (
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	var tests = []struct {
		errno syscall.Errno
		kind  Kind
	}{
		{errno: syscall.ENOENT, kind: NotFound},
		{errno: syscall.EACCES, kind: PermissionDenied},
		{errno: syscall.EPERM, kind: PermissionDenied},
		{errno: syscall.EEXIST, kind: AlreadyExists},
		{errno: syscall.ENOTSUP, kind: NotSupported},
		{errno: syscall.ENOSYS, kind: NotSupported},
		{errno: syscall.EINVAL, kind: InvalidArgument},
		{errno: syscall.EIO, kind: IOError},
		{errno: syscall.ENOTEMPTY, kind: IOError},
	}

	for _, test := range tests {
		t.Run(test.errno.Error(), func(t *testing.T) {
			require.Equal(t, test.kind, classify(test.errno))
		})
	}
}

func TestWrapErrno(t *testing.T) {
	require.NoError(t, wrapErrno("open", "/x", nil))

	err := wrapErrno("open", "/x", syscall.ENOENT)
	require.Error(t, err)
	require.Equal(t, NotFound, KindOf(err))
	require.Equal(t, syscall.ENOENT, ErrnoOf(err))
	require.Contains(t, err.Error(), "open /x")

	// A native failure that is not an errno still wraps, as a generic
	// IO error.
	err = wrapErrno("open", "/x", errors.New("something else"))
	require.Equal(t, IOError, KindOf(err))
	require.Equal(t, syscall.EIO, ErrnoOf(err))
}

func TestErrnoOf(t *testing.T) {
	require.Equal(t, syscall.Errno(0), ErrnoOf(nil))
	require.Equal(t, syscall.EBADF, ErrnoOf(syscall.EBADF))
	require.Equal(t, syscall.EIO, ErrnoOf(errors.New("opaque")))
}
