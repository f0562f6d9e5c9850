package quadtree

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

// sumGrid sums int32 pixels and downsamples by summing boxes.
type sumGrid struct {
	data     [][]int32
	bounds   orb.Bound
	tileSize int
	children int
	maxLevel int
}

func (g *sumGrid) Downsample(tile [][]int32) [][]int32 {
	height, width := len(tile), len(tile[0])
	outH, outW := min(height, g.tileSize), min(width, g.tileSize)
	out := make([][]int32, outH)
	for y := range out {
		out[y] = make([]int32, outW)
		for x := range out[y] {
			for yy := y * height / outH; yy < (y+1)*height/outH; yy++ {
				for xx := x * width / outW; xx < (x+1)*width/outW; xx++ {
					out[y][x] += tile[yy][xx]
				}
			}
		}
	}
	return out
}

func (g *sumGrid) Aggregate(pixels []int32) (int64, bool) {
	var sum int64
	for _, p := range pixels {
		sum += int64(p)
	}
	return sum, true
}

func (g *sumGrid) Aggregate2(aggregates []int64) (int64, bool) {
	if len(aggregates) == 0 {
		return 0, false
	}
	var sum int64
	for _, a := range aggregates {
		sum += a
	}
	return sum, true
}

func (g *sumGrid) Default() int32       { return 0 }
func (g *sumGrid) Data() [][]int32      { return g.data }
func (g *sumGrid) Bounds() orb.Bound    { return g.bounds }
func (g *sumGrid) TileSize() int        { return g.tileSize }
func (g *sumGrid) ChildrenPerAxis() int { return g.children }
func (g *sumGrid) MaxLevel() int        { return g.maxLevel }

func sequence(height, width int) [][]int32 {
	out := make([][]int32, height)
	for y := range out {
		out[y] = make([]int32, width)
		for x := range out[y] {
			out[y][x] = int32(y*width + x)
		}
	}
	return out
}

var unit = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 4}}

func TestBuildFourByFour(t *testing.T) {
	root, err := Build[int32, int64](&sumGrid{data: sequence(4, 4), bounds: unit, tileSize: 2, children: 2})
	require.NoError(t, err)

	require.Equal(t, 5, root.Count())
	require.Equal(t, 1, root.Depth())
	require.Equal(t, int64(120), *root.Aggregate)

	topLeft := root.Children[0][0]
	require.True(t, topLeft.IsLeaf())
	require.Equal(t, [][]int32{{0, 1}, {4, 5}}, topLeft.Tile)
	require.Equal(t, int64(10), *topLeft.Aggregate)
	require.Equal(t, orb.Bound{Min: orb.Point{0, 2}, Max: orb.Point{2, 4}}, topLeft.Bounds)

	bottomRight := root.Children[1][1]
	require.Equal(t, [][]int32{{10, 11}, {14, 15}}, bottomRight.Tile)
	require.Equal(t, orb.Bound{Min: orb.Point{2, 0}, Max: orb.Point{4, 2}}, bottomRight.Bounds)

	require.Equal(t, [][]int32{{10, 18}, {42, 50}}, root.Tile)
}

func TestBuildUnevenSplitCoversInput(t *testing.T) {
	root, err := Build[int32, int64](&sumGrid{data: sequence(5, 7), bounds: unit, tileSize: 2, children: 2})
	require.NoError(t, err)

	var leafPixels int
	var leafSum int64
	root.Walk(func(node *TileNode[int32, int64], _ int) bool {
		if node.IsLeaf() {
			leafPixels += node.TileHeight() * node.TileWidth()
			leafSum += *node.Aggregate
		}
		return true
	})
	require.Equal(t, 35, leafPixels)
	require.Equal(t, int64(34*35/2), leafSum)
	require.Equal(t, leafSum, *root.Aggregate)

	// the last row and column absorb the remainder
	require.Equal(t, 2, root.Children[0][0].TileHeight())
	require.Equal(t, 3, len(root.Children[0][0].Children[0][0].Tile[0])+len(root.Children[0][0].Children[0][1].Tile[0]))
}

func TestBuildNarrowRaster(t *testing.T) {
	root, err := Build[int32, int64](&sumGrid{data: sequence(1, 9), bounds: unit, tileSize: 2, children: 3})
	require.NoError(t, err)
	require.Len(t, root.Children, 1)
	require.Len(t, root.Children[0], 3)
	require.Equal(t, int64(36), *root.Aggregate)
}

func TestBuildMaxLevelCapsDepth(t *testing.T) {
	root, err := Build[int32, int64](&sumGrid{data: sequence(8, 8), bounds: unit, tileSize: 2, children: 2, maxLevel: 1})
	require.NoError(t, err)

	require.Equal(t, 1, root.Depth())
	leaf := root.Children[0][0]
	require.True(t, leaf.IsLeaf())
	require.Equal(t, 2, leaf.TileHeight())
	require.Equal(t, 2, leaf.TileWidth())
	require.Equal(t, int64(63*64/2), *root.Aggregate)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build[int32, int64](&sumGrid{bounds: unit, tileSize: 2, children: 2})
	require.ErrorIs(t, err, ErrEmptyRaster)

	_, err = Build[int32, int64](&sumGrid{data: [][]int32{{}}, bounds: unit, tileSize: 2, children: 2})
	require.ErrorIs(t, err, ErrEmptyRaster)

	_, err = Build[int32, int64](&sumGrid{data: [][]int32{{1, 2}, {3}}, bounds: unit, tileSize: 2, children: 2})
	require.ErrorIs(t, err, ErrRaggedRaster)

	_, err = Build[int32, int64](&sumGrid{data: sequence(2, 2), bounds: unit, tileSize: 2, children: 1})
	require.ErrorIs(t, err, ErrBadShape)
}

func TestStitch(t *testing.T) {
	tiles := [][][][]int32{
		{{{1, 2}, {5, 6}}, {{3}, {7}}},
		{{{9, 10}}, nil},
	}
	require.Equal(t, [][]int32{{1, 2, 3}, {5, 6, 7}, {9, 10}}, Stitch(tiles, -1))

	padded := [][][][]int32{{{{1}, {2}}, {{3}}}}
	require.Equal(t, [][]int32{{1, 3}, {2, -1}}, Stitch(padded, -1))
}
