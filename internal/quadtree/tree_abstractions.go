package quadtree

import (
	"image"

	"github.com/paulmach/orb"
)

// Policy is the per-dataset behaviour shared by the builder and the query engine.
// T is the pixel type, A the aggregate type; both must be plain data so they can be stored
// verbatim in a tree file.
type Policy[T, A any] interface {
	// Downsample shrinks a raster of any size to at most TileSize x TileSize pixels.
	Downsample(tile [][]T) [][]T
	// Aggregate summarises the pixels of a leaf. It returns false when nothing was countable.
	Aggregate(pixels []T) (A, bool)
	// Aggregate2 combines the summaries of disjoint regions.
	Aggregate2(aggregates []A) (A, bool)
	// Default is the no-data pixel value.
	Default() T

	TileSize() int
	ChildrenPerAxis() int
	// MaxLevel caps the tree depth; 0 means subdivide until tiles fit TileSize.
	MaxLevel() int
}

// Dataset is a Policy together with the raster it applies to.
type Dataset[T, A any] interface {
	Policy[T, A]
	Data() [][]T
	Bounds() orb.Bound
}

// AggregateFormatter is implemented by policies that know how to print their aggregate.
type AggregateFormatter[A any] interface {
	FormatAggregate(aggregate A) string
}

// TileRenderer is implemented by policies whose tiles can be exported as images.
type TileRenderer[T any] interface {
	Render(tile [][]T) image.Image
}
