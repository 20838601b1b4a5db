//go:build !unix

package region

import "github.com/pkg/errors"

var errNoMmap = errors.New("region: memory mapping is not supported on this platform")

// Create is only supported on unix platforms.
func Create(path string, capacity int) (*Region, error) {
	return nil, errNoMmap
}

// MapFile is only supported on unix platforms.
func MapFile(path string, writable bool) (*Region, error) {
	return nil, errNoMmap
}

// Sync is a no-op without memory mapping.
func (r *Region) Sync() error {
	return nil
}

// Close releases the image.
func (r *Region) Close() error {
	r.buf = nil
	return nil
}
