package storage

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/codec"
	"github.com/ecopia-map/raster_tiler/internal/geometry"
	"github.com/ecopia-map/raster_tiler/internal/quadtree"
)

var (
	ErrEmptyFile = errors.New("storage: tree file is empty")
	ErrNotFound  = errors.New("storage: no tile at this address")
)

// GeoTree answers queries directly against the bytes of a tree file. It never mutates them,
// so a single GeoTree can serve concurrent queries.
type GeoTree[T, A any] struct {
	buf    []byte
	policy quadtree.Policy[T, A]
	unmap  func() error
}

// Open maps the tree file at path into memory.
func Open[T, A any](path string, policy quadtree.Policy[T, A]) (*GeoTree[T, A], error) {
	if err := checkTypes[T, A](); err != nil {
		return nil, err
	}
	buf, unmap, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	return &GeoTree[T, A]{buf: buf, policy: policy, unmap: unmap}, nil
}

// FromBytes serves a tree held in memory, copying it first when buf is not suitably aligned.
func FromBytes[T, A any](buf []byte, policy quadtree.Policy[T, A]) (*GeoTree[T, A], error) {
	if err := checkTypes[T, A](); err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, ErrEmptyFile
	}
	if !codec.IsAligned(buf) {
		aligned := codec.AlignedBytes(len(buf))
		copy(aligned, buf)
		buf = aligned
	}
	return &GeoTree[T, A]{buf: buf, policy: policy}, nil
}

func checkTypes[T, A any]() error {
	if err := codec.CheckPlain[T](); err != nil {
		return err
	}
	return codec.CheckPlain[A]()
}

// Close releases the mapping. Results returned by earlier queries must not be used afterwards.
func (t *GeoTree[T, A]) Close() error {
	if t.unmap == nil {
		return nil
	}
	unmap := t.unmap
	t.unmap = nil
	t.buf = nil
	return unmap()
}

func (t *GeoTree[T, A]) Reader() Reader[T, A] {
	return NewReader[T, A](t.buf)
}

func (t *GeoTree[T, A]) Policy() quadtree.Policy[T, A] {
	return t.policy
}

// Size is the length of the tree file in bytes.
func (t *GeoTree[T, A]) Size() int {
	return len(t.buf)
}

func (t *GeoTree[T, A]) Bounds() orb.Bound {
	node, _ := t.Reader().Load(Root[T]())
	return node.Bounds
}

// GetTiles returns the tiles of every node at exactly level whose bounds intersect area.
func (t *GeoTree[T, A]) GetTiles(area geometry.Region, level int) []TileRef[T] {
	var out []TileRef[T]
	if level < 0 {
		return out
	}
	t.collectTiles(t.Reader(), Root[T](), area, level, &out)
	return out
}

func (t *GeoTree[T, A]) collectTiles(reader Reader[T, A], p Pointer[T], area geometry.Region, level int, out *[]TileRef[T]) {
	node, pos := reader.Load(p)
	if !area.IntersectsBound(node.Bounds) {
		return
	}
	if level == 0 {
		if data, _ := reader.Read(pos); data.Tile != nil {
			*out = append(*out, TileRef[T]{Bounds: node.Bounds, Data: data.Tile})
		}
		return
	}
	for _, row := range node.Children {
		for _, child := range row {
			t.collectTiles(reader, child, area, level-1, out)
		}
	}
}

// GetTile returns the tile addressed by column x and row y at zoom z. Each zoom level
// consumes one base ChildrenPerAxis digit of x and y, most significant first. Digits are
// taken while walking, so a z deeper than the tree stops at the first leaf.
func (t *GeoTree[T, A]) GetTile(x, y, z int) (TileRef[T], bool) {
	if x < 0 || y < 0 || z < 0 {
		return TileRef[T]{}, false
	}
	perAxis := t.policy.ChildrenPerAxis()
	if perAxis < 2 || !fitsDigits(x, z, perAxis) || !fitsDigits(y, z, perAxis) {
		return TileRef[T]{}, false
	}

	reader := t.Reader()
	p := Root[T]()
	for level := 0; level < z; level++ {
		node, _ := reader.Load(p)
		if node.IsLeaf() {
			return TileRef[T]{}, false
		}
		row, col := digitAt(y, z-1-level, perAxis), digitAt(x, z-1-level, perAxis)
		if row >= len(node.Children) || col >= len(node.Children[row]) {
			return TileRef[T]{}, false
		}
		p = node.Children[row][col]
	}

	node, pos := reader.Load(p)
	data, _ := reader.Read(pos)
	return TileRef[T]{Bounds: node.Bounds, Data: data.Tile}, true
}

// fitsDigits reports whether v < base^z without overflowing.
func fitsDigits(v, z, base int) bool {
	limit := 1
	for i := 0; i < z; i++ {
		if limit > v/base {
			return true
		}
		limit *= base
	}
	return v < limit
}

// digitAt returns digit e of v in the given base, counting from the least significant.
func digitAt(v, e, base int) int {
	for ; e > 0 && v > 0; e-- {
		v /= base
	}
	return v % base
}

// Contains iterates region with early termination at fully covered nodes.
func (t *GeoTree[T, A]) Contains(region geometry.Region) *ContainsIterator[T, A] {
	return &ContainsIterator[T, A]{walk: newWalk(t.Reader(), region)}
}

// Naive iterates region down to the leaves.
func (t *GeoTree[T, A]) Naive(region geometry.Region) *NaiveIterator[T, A] {
	return &NaiveIterator[T, A]{walk: newWalk(t.Reader(), region)}
}

// GetAggregate combines the aggregates of the nodes covering region.
func (t *GeoTree[T, A]) GetAggregate(region geometry.Region) (A, bool) {
	return t.Fold(t.Contains(region))
}

// Fold drains it and reduces the aggregates it yields with the tree's policy.
func (t *GeoTree[T, A]) Fold(it Iterator[T, A]) (A, bool) {
	var aggregates []A
	for {
		hit, ok := it.Next()
		if !ok {
			break
		}
		if hit.Aggregate != nil {
			aggregates = append(aggregates, *hit.Aggregate)
		}
	}
	if len(aggregates) == 0 {
		var zero A
		return zero, false
	}
	return t.policy.Aggregate2(aggregates)
}

// FormatAggregate prints an aggregate with the policy formatter when it has one.
func (t *GeoTree[T, A]) FormatAggregate(aggregate A) string {
	if formatter, ok := t.policy.(quadtree.AggregateFormatter[A]); ok {
		return formatter.FormatAggregate(aggregate)
	}
	return fmt.Sprint(aggregate)
}
