package loopfs

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Config is the immutable mount configuration. It is fixed at construction
// and never mutated afterwards.
type Config struct {
	// RootDir is the absolute path to the real directory being re-exposed.
	RootDir string

	// VolumeName is the display name advertised for the mount.
	VolumeName string

	// BlockSize, when non-zero, is reported as the optimal I/O size for
	// every file and used to scale filesystem block counts, overriding the
	// per-file value from the real volume.
	BlockSize uint32

	// CaseInsensitive forces the mount to advertise case-insensitive name
	// handling regardless of what the backing volume reports.
	CaseInsensitive bool

	// NativeXattr indicates the host should pass extended attribute calls
	// through natively. Consumed by the mount layer, not by the handler.
	NativeXattr bool

	// IconPath optionally points at a volume icon resource. Opaque to the
	// handler.
	IconPath string

	// ThreadSafe allows the host dispatcher to invoke operations from
	// multiple worker threads concurrently.
	ThreadSafe bool
}

// LoopbackFS resolves virtual paths against the root directory and performs
// the native operation for each filesystem request.
type LoopbackFS struct {
	cfg  Config
	caps Capabilities
}

// New validates the configuration and probes the backing volume's
// capabilities once. RootDir must be an absolute path to an existing
// directory.
func New(cfg Config) (*LoopbackFS, error) {
	if !filepath.IsAbs(cfg.RootDir) {
		return nil, errors.Errorf("root dir must be absolute: %q", cfg.RootDir)
	}

	fi, err := os.Stat(cfg.RootDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat root dir %q", cfg.RootDir)
	}

	if !fi.IsDir() {
		return nil, errors.Errorf("root dir is not a directory: %q", cfg.RootDir)
	}

	caseSensitive := !cfg.CaseInsensitive
	if caseSensitive {
		// The probe can fail on exotic volumes; treat that as
		// case-sensitive, matching what the mount advertises by default.
		caseSensitive = probeCaseSensitive(cfg.RootDir)
	}

	return &LoopbackFS{
		cfg: cfg,
		caps: Capabilities{
			ExtendedDates:    true,
			CaseSensitive:    caseSensitive,
			AtomicRename:     atomicRenameSupported,
			VolumeRename:     true,
			ReadWriteLocking: true,
		},
	}, nil
}

// Config returns the mount configuration.
func (l *LoopbackFS) Config() Config {
	return l.cfg
}

// Capabilities returns the static capability declarations for the mount.
func (l *LoopbackFS) Capabilities() Capabilities {
	return l.caps
}

// Resolve maps a virtual path to the real filesystem path. Virtual paths
// always begin with a path separator, so resolution is plain concatenation.
// No normalization or symlink handling happens here; that is delegated to
// the native calls.
func (l *LoopbackFS) Resolve(path string) string {
	return l.cfg.RootDir + path
}
