package datasets

import "github.com/paulmach/orb"

// World is the bound of a raster covering the whole globe.
var World = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// Shape holds the tree constants of a dataset.
type Shape struct {
	tileSize        int
	childrenPerAxis int
	maxLevel        int
}

func NewShape(tileSize, childrenPerAxis, maxLevel int) Shape {
	return Shape{tileSize: tileSize, childrenPerAxis: childrenPerAxis, maxLevel: maxLevel}
}

func (s Shape) TileSize() int        { return s.tileSize }
func (s Shape) ChildrenPerAxis() int { return s.childrenPerAxis }
func (s Shape) MaxLevel() int        { return s.maxLevel }

// Raster is the source grid of a dataset. It is empty when a dataset is only used to serve an
// existing tree file.
type Raster[T any] struct {
	data   [][]T
	bounds orb.Bound
}

func NewRaster[T any](data [][]T, bounds orb.Bound) Raster[T] {
	return Raster[T]{data: data, bounds: bounds}
}

func (r Raster[T]) Data() [][]T       { return r.data }
func (r Raster[T]) Bounds() orb.Bound { return r.bounds }
