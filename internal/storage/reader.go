package storage

import (
	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/codec"
)

// Reader decodes nodes in place from the bytes of a tree file. It holds no position of its
// own: every call takes the offset to read from and returns the offset that follows, so one
// Reader can be shared by any number of queries.
type Reader[T, A any] struct {
	buf []byte
}

func NewReader[T, A any](buf []byte) Reader[T, A] {
	return Reader[T, A]{buf: buf}
}

// Load decodes the header at p and returns it with the offset of the node payload.
// The payload itself is not touched.
func (r Reader[T, A]) Load(p Pointer[T]) (TileNode[T], int) {
	pos := int(p.Position)
	bounds, pos := codec.ReadValue[orb.Bound](r.buf, pos)
	children, pos := codec.ReadRows[Pointer[T]](r.buf, pos)
	return TileNode[T]{Bounds: bounds, Children: children}, pos
}

// Read decodes the payload starting at pos, as returned by Load.
func (r Reader[T, A]) Read(pos int) (TileData[T, A], int) {
	var data TileData[T, A]

	present, pos := codec.ReadFlag(r.buf, pos)
	if present {
		data.Aggregate, pos = codec.ReadRef[A](r.buf, pos)
	}
	present, pos = codec.ReadFlag(r.buf, pos)
	if present {
		data.Tile, pos = codec.ReadRows[T](r.buf, pos)
	}
	return data, pos
}
