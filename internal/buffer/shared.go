//go:build unix

package buffer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// SharedRegion is a MAP_SHARED memory mapping. Anonymous regions are shared
// with every goroutine of the process; file backed regions are also visible
// to other processes mapping the same file. Whether an access is atomic
// across processes depends on the provider: the in-process provider only
// guarantees it for widths up to 8 bytes, since wider objects are guarded
// by locks private to the process.
type SharedRegion struct {
	path string
	file *os.File
	data []byte
}

// SharedRegionOptions configures shared region creation/opening.
type SharedRegionOptions struct {
	// Path of the backing file. Empty maps anonymous memory.
	Path string
	// Size in bytes. Required for anonymous regions and when Create is set.
	Size int
	// Create the backing file if missing and truncate it to Size.
	Create bool
}

// DefaultSharedRegionPath returns the default backing file path.
func DefaultSharedRegionPath() string {
	if _, err := os.Stat("/dev/shm"); err == nil {
		return "/dev/shm/atomics_region"
	}
	return filepath.Join(os.TempDir(), "atomics_region")
}

// OpenSharedRegion maps a shared region. Without a path the mapping is
// anonymous and Size bytes long; with one it spans the whole file.
func OpenSharedRegion(opts SharedRegionOptions) (_ *SharedRegion, err error) {
	if (opts.Path == "" || opts.Create) && opts.Size <= 0 {
		return nil, errors.New("shared region size must be positive")
	}

	r := &SharedRegion{}
	defer func() {
		if err != nil {
			err = multierr.Append(err, r.Close())
		}
	}()

	fd, size, flags := -1, opts.Size, unix.MAP_SHARED
	if opts.Path == "" {
		flags |= unix.MAP_ANON
	} else {
		r.path = filepath.Clean(opts.Path)
		if size, err = r.openBacking(opts); err != nil {
			return nil, err
		}
		fd = int(r.file.Fd())
	}

	r.data, err = unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return nil, fmt.Errorf("map shared region %q: %w", r.path, err)
	}
	return r, nil
}

// openBacking opens (and with Create, sizes) the backing file and returns
// the length to map.
func (r *SharedRegion) openBacking(opts SharedRegionOptions) (int, error) {
	mode := os.O_RDWR
	if opts.Create {
		mode |= os.O_CREATE
	}
	file, err := os.OpenFile(r.path, mode, 0o600)
	if err != nil {
		return 0, err
	}
	r.file = file

	if opts.Create {
		if err := file.Truncate(int64(opts.Size)); err != nil {
			return 0, err
		}
		return opts.Size, nil
	}

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("shared region file %s is empty", r.path)
	}
	return int(info.Size()), nil
}

// Path returns the backing file, or "" for anonymous regions.
func (r *SharedRegion) Path() string {
	return r.path
}

func (r *SharedRegion) Size() int {
	return len(r.data)
}

// Bytes returns the mapping. It is page aligned.
func (r *SharedRegion) Bytes() []byte {
	return r.data
}

// Slice returns width bytes starting at offset.
func (r *SharedRegion) Slice(offset, width int) ([]byte, error) {
	if offset < 0 || width < 0 || offset+width > len(r.data) {
		return nil, fmt.Errorf("shared region slice [%d:%d] out of bounds (size %d)", offset, offset+width, len(r.data))
	}
	return r.data[offset : offset+width : offset+width], nil
}

// Close unmaps the region and closes the backing file. It is idempotent.
func (r *SharedRegion) Close() error {
	var err error
	if r.data != nil {
		err = multierr.Append(err, unix.Munmap(r.data))
		r.data = nil
	}
	if r.file != nil {
		err = multierr.Append(err, r.file.Close())
		r.file = nil
	}
	return err
}
