//go:build unix

package region

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Create writes an empty image of the given capacity to path, replacing any
// existing file, and maps it writable.
func Create(path string, capacity int) (*Region, error) {
	r, err := New(capacity)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, r.buf, 0o644); err != nil {
		return nil, errors.Wrapf(err, "region: create %q", path)
	}
	return MapFile(path, true)
}

// MapFile maps the image stored at path into memory. The mapping is shared, so
// writes through a writable region reach the file. The image is validated
// before it is returned.
func MapFile(path string, writable bool) (*Region, error) {
	flag, prot := os.O_RDONLY, unix.PROT_READ
	if writable {
		flag, prot = os.O_RDWR, prot|unix.PROT_WRITE
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, errors.Wrap(err, "region: map")
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "region: map")
	}
	if st.Size() < MinCapacity || st.Size() > MaxCapacity {
		return nil, errors.Wrapf(ErrBadImage, "%q has size %d", path, st.Size())
	}

	b, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "region: mmap %q", path)
	}
	if err := validate(b); err != nil {
		unix.Munmap(b)
		logrus.WithField("path", path).Warnf("rejected region image: %s", err)
		return nil, err
	}
	logrus.Debugf("region: mapped %q (%d bytes, writable=%t)", path, len(b), writable)
	return &Region{buf: b, mapped: true, readonly: !writable}, nil
}

// Sync flushes a writable mapping to its file. It is a no-op for regions that
// are not mapped.
func (r *Region) Sync() error {
	if !r.mapped || r.readonly {
		return nil
	}
	return errors.Wrap(unix.Msync(r.buf, unix.MS_SYNC), "region: msync")
}

// Close unmaps a mapped region. The region, and every pointer obtained from
// it, must not be used afterwards.
func (r *Region) Close() error {
	if r.buf == nil {
		return nil
	}
	b := r.buf
	r.buf = nil
	if !r.mapped {
		return nil
	}
	logrus.Debugf("region: unmapping %d bytes", len(b))
	return errors.Wrap(unix.Munmap(b), "region: munmap")
}
