//go:build !unix

package storage

import (
	"fmt"
	"os"

	"github.com/ecopia-map/raster_tiler/internal/codec"
)

// mapFile reads the whole file on platforms without mmap support.
func mapFile(path string) ([]byte, func() error, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	data := codec.AlignedBytes(len(raw))
	copy(data, raw)
	return data, func() error { return nil }, nil
}
