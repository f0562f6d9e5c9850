package quadtree

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/geometry"
)

var (
	ErrEmptyRaster  = errors.New("quadtree: raster has no rows or no columns")
	ErrRaggedRaster = errors.New("quadtree: raster rows have different lengths")
	ErrBadShape     = errors.New("quadtree: invalid tile size, branching factor or max level")
)

// Build subdivides the dataset raster until every leaf fits the tile size, then fills in the
// tile and aggregate of every inner node from its children.
func Build[T, A any](ds Dataset[T, A]) (*TileNode[T, A], error) {
	if err := validate(ds); err != nil {
		return nil, err
	}

	builder := &treeBuilder[T, A]{ds: ds}
	root := builder.slice(ds.Data(), ds.Bounds(), 0)
	builder.propagate(root)

	glog.V(1).Infof("built tree: %d nodes, %d leaves, depth %d", builder.nodes, builder.leaves, root.Depth())
	return root, nil
}

func validate[T, A any](ds Dataset[T, A]) error {
	if ds.TileSize() < 1 || ds.ChildrenPerAxis() < 2 || ds.MaxLevel() < 0 {
		return fmt.Errorf("%w: tile size %d, children per axis %d, max level %d",
			ErrBadShape, ds.TileSize(), ds.ChildrenPerAxis(), ds.MaxLevel())
	}
	data := ds.Data()
	if len(data) == 0 || len(data[0]) == 0 {
		return ErrEmptyRaster
	}
	width := len(data[0])
	for y, row := range data {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, expected %d", ErrRaggedRaster, y, len(row), width)
		}
	}
	return nil
}

type treeBuilder[T, A any] struct {
	ds     Dataset[T, A]
	nodes  int
	leaves int
}

func (b *treeBuilder[T, A]) slice(raster [][]T, bounds orb.Bound, level int) *TileNode[T, A] {
	b.nodes++
	height, width := len(raster), len(raster[0])
	tileSize := b.ds.TileSize()

	fits := height <= tileSize && width <= tileSize
	capped := b.ds.MaxLevel() > 0 && level >= b.ds.MaxLevel()
	if fits || capped {
		b.leaves++
		node := &TileNode[T, A]{Bounds: bounds, Tile: raster}
		if !fits {
			node.Tile = b.ds.Downsample(raster)
		}
		if aggregate, ok := b.ds.Aggregate(Flatten(raster)); ok {
			node.Aggregate = &aggregate
		}
		return node
	}

	rows := min(b.ds.ChildrenPerAxis(), height)
	cols := min(b.ds.ChildrenPerAxis(), width)
	stepY, stepX := height/rows, width/cols

	node := &TileNode[T, A]{Bounds: bounds, Children: make([][]*TileNode[T, A], rows)}
	for r := 0; r < rows; r++ {
		y0, y1 := r*stepY, (r+1)*stepY
		if r == rows-1 {
			y1 = height
		}
		node.Children[r] = make([]*TileNode[T, A], cols)
		for c := 0; c < cols; c++ {
			x0, x1 := c*stepX, (c+1)*stepX
			if c == cols-1 {
				x1 = width
			}
			part := make([][]T, y1-y0)
			for i := range part {
				part[i] = raster[y0+i][x0:x1]
			}
			node.Children[r][c] = b.slice(part, geometry.SubBound(bounds, width, height, x0, y0, x1, y1), level+1)
		}
	}
	return node
}

// propagate fills inner nodes bottom up. Leaves keep what slice computed for them.
func (b *treeBuilder[T, A]) propagate(node *TileNode[T, A]) {
	if node.IsLeaf() {
		return
	}

	tiles := make([][][][]T, len(node.Children))
	var aggregates []A
	for r, row := range node.Children {
		tiles[r] = make([][][]T, len(row))
		for c, child := range row {
			b.propagate(child)
			tiles[r][c] = child.Tile
			if child.Aggregate != nil {
				aggregates = append(aggregates, *child.Aggregate)
			}
		}
	}

	node.Tile = b.ds.Downsample(Stitch(tiles, b.ds.Default()))
	if len(aggregates) > 0 {
		if aggregate, ok := b.ds.Aggregate2(aggregates); ok {
			node.Aggregate = &aggregate
		}
	}
}
