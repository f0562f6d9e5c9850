package storage

import (
	"bytes"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/raster_tiler/internal/codec"
	"github.com/ecopia-map/raster_tiler/internal/datasets"
	"github.com/ecopia-map/raster_tiler/internal/geometry"
	"github.com/ecopia-map/raster_tiler/internal/quadtree"
)

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

// square returns a bound with one unit per pixel of a size x size raster.
func square(size float64) orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{size, size}}
}

func serialize[T, A any](t testing.TB, ds quadtree.Dataset[T, A]) (*quadtree.TileNode[T, A], *GeoTree[T, A]) {
	root, err := quadtree.Build(ds)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := Serialize(&buf, root)
	require.NoError(t, err)
	require.Equal(t, buf.Len(), n)

	tree, err := FromBytes(buf.Bytes(), quadtree.Policy[T, A](ds))
	require.NoError(t, err)
	return root, tree
}

func countGrid(t testing.TB, size, tileSize int) (*quadtree.TileNode[int32, int64], *GeoTree[int32, int64]) {
	grid := datasets.NewCountGrid(sequence(size, size), square(float64(size)), datasets.NewShape(tileSize, 2, 0))
	return serialize[int32, int64](t, grid)
}

func requireSameTree[T, A any](t *testing.T, reader Reader[T, A], p Pointer[T], node *quadtree.TileNode[T, A]) {
	header, pos := reader.Load(p)
	require.Equal(t, node.Bounds, header.Bounds)

	data, _ := reader.Read(pos)
	require.Equal(t, node.Aggregate, data.Aggregate)
	require.Equal(t, node.Tile, data.Tile)

	require.Len(t, header.Children, len(node.Children))
	for r, row := range node.Children {
		require.Len(t, header.Children[r], len(row))
		for c, child := range row {
			requireSameTree(t, reader, header.Children[r][c], child)
		}
	}
}

func TestFourByFourScenario(t *testing.T) {
	_, tree := countGrid(t, 4, 2)
	full := geometry.NewRect(tree.Bounds())

	tile, ok := tree.GetTile(0, 0, 1)
	require.True(t, ok)
	require.Equal(t, [][]int32{{0, 1}, {4, 5}}, tile.Data)

	sum, ok := tree.GetAggregate(full)
	require.True(t, ok)
	require.Equal(t, int64(120), sum)

	require.Len(t, tree.GetTiles(full, 0), 1)
}

func TestRoundTripIdentity(t *testing.T) {
	for _, size := range [][2]int{{16, 16}, {13, 11}, {1, 9}} {
		grid := datasets.NewCountGrid(sequence(size[0], size[1]), square(16), datasets.NewShape(2, 2, 0))
		root, tree := serialize[int32, int64](t, grid)
		requireSameTree(t, tree.Reader(), Root[int32](), root)
	}
}

func TestRoundTripStructAggregate(t *testing.T) {
	data := make([][]float32, 6)
	for y := range data {
		data[y] = make([]float32, 6)
		for x := range data[y] {
			data[y][x] = float32(x)
		}
	}
	data[0][0] = datasets.LightPollutionNoData

	ds := datasets.NewLightPollution(data, datasets.World, datasets.NewShape(2, 3, 0))
	root, tree := serialize[float32, datasets.LightPollutionAggregate](t, ds)
	requireSameTree(t, tree.Reader(), Root[float32](), root)

	all, ok := tree.GetAggregate(geometry.NewRect(datasets.World))
	require.True(t, ok)
	require.Equal(t, uint64(35), all.Count)
	require.Equal(t, float64(15*6), all.Sum)
}

func TestRoundTripWithoutAggregates(t *testing.T) {
	red := datasets.RGBA{255, 0, 0, 255}
	data := make([][]datasets.RGBA, 8)
	for y := range data {
		data[y] = make([]datasets.RGBA, 8)
		for x := range data[y] {
			data[y][x] = red
		}
	}

	ds := datasets.NewEarthMap(data, datasets.World, datasets.NewShape(4, 2, 0))
	root, tree := serialize[datasets.RGBA, datasets.NoAggregate](t, ds)
	requireSameTree(t, tree.Reader(), Root[datasets.RGBA](), root)

	_, ok := tree.GetAggregate(geometry.NewRect(datasets.World))
	require.False(t, ok)

	tile, ok := tree.GetTile(1, 1, 1)
	require.True(t, ok)
	require.Equal(t, red, tile.Data[3][3])
}

func queryRegions() []geometry.Region {
	return []geometry.Region{
		geometry.NewRect(square(16)),
		geometry.NewRect(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{15, 15}}),
		geometry.NewRect(orb.Bound{Min: orb.Point{4, 0}, Max: orb.Point{12, 8}}),
		geometry.NewRect(orb.Bound{Min: orb.Point{3.5, 7.25}, Max: orb.Point{9.75, 15.5}}),
		geometry.NewPolygon(orb.Polygon{{{0, 0}, {16, 0}, {0, 16}, {0, 0}}}),
		geometry.NewMultiPolygon(orb.MultiPolygon{
			{{{0, 0}, {6, 0}, {6, 6}, {0, 6}, {0, 0}}},
			{{{9, 9}, {16, 9}, {16, 16}, {9, 16}, {9, 9}}},
		}),
	}
}

func TestContainsMatchesNaive(t *testing.T) {
	_, tree := countGrid(t, 16, 2)

	for _, region := range queryRegions() {
		contains := tree.Contains(region)
		fast, fastOK := tree.Fold(contains)

		naive := tree.Naive(region)
		slow, slowOK := tree.Fold(naive)

		require.Equal(t, slowOK, fastOK)
		require.Equal(t, slow, fast)
		require.GreaterOrEqual(t, naive.NodesVisited(), contains.NodesVisited())
	}
}

func TestContainsStopsAtCoveredAncestor(t *testing.T) {
	_, tree := countGrid(t, 16, 2)

	it := tree.Contains(geometry.NewRect(square(16)))
	hit, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, 0, hit.Level)
	require.False(t, hit.Leaf)
	_, ok = it.Next()
	require.False(t, ok)
	require.Equal(t, 1, it.NodesVisited())

	naive := tree.Naive(geometry.NewRect(square(16)))
	leaves := 0
	for {
		hit, ok := naive.Next()
		if !ok {
			break
		}
		require.True(t, hit.Leaf)
		require.Equal(t, 3, hit.Level)
		leaves++
	}
	require.Equal(t, 64, leaves)
	require.Equal(t, 1+4+16+64, naive.NodesVisited())
}

func TestGetTilesOnlyReturnsRequestedLevel(t *testing.T) {
	_, tree := countGrid(t, 16, 2)
	full := geometry.NewRect(tree.Bounds())

	previous := 0
	for level := 0; level <= 3; level++ {
		tiles := tree.GetTiles(full, level)
		require.Len(t, tiles, int(math.Pow(4, float64(level))))
		require.Greater(t, len(tiles), previous)
		previous = len(tiles)

		side := 16 / math.Pow(2, float64(level))
		for _, tile := range tiles {
			require.InDelta(t, side, tile.Bounds.Max.X()-tile.Bounds.Min.X(), 1e-9)
		}
	}

	require.Empty(t, tree.GetTiles(full, 4))
	require.Empty(t, tree.GetTiles(full, -1))

	corner := geometry.NewRect(orb.Bound{Min: orb.Point{0.5, 0.5}, Max: orb.Point{1.5, 1.5}})
	require.Len(t, tree.GetTiles(corner, 3), 1)
}

func TestGetTileAddresses(t *testing.T) {
	_, tree := countGrid(t, 16, 2)

	for z := 0; z <= 3; z++ {
		n := 1 << z
		side := 16 / float64(n)
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				tile, ok := tree.GetTile(x, y, z)
				require.True(t, ok)
				require.Equal(t, float64(x)*side, tile.Bounds.Min.X())
				require.Equal(t, 16-float64(y)*side, tile.Bounds.Max.Y())
			}
		}
		_, ok := tree.GetTile(n, 0, z)
		require.False(t, ok)
		_, ok = tree.GetTile(0, n, z)
		require.False(t, ok)
	}

	_, ok := tree.GetTile(-1, 0, 0)
	require.False(t, ok)
	_, ok = tree.GetTile(0, 0, 4)
	require.False(t, ok)

	tile, ok := tree.GetTile(7, 7, 3)
	require.True(t, ok)
	require.Equal(t, [][]int32{{238, 239}, {254, 255}}, tile.Data)
}

func TestGetTileBeyondTreeDepth(t *testing.T) {
	_, tree := countGrid(t, 4, 1)

	// the 4x4 grid with single pixel tiles is two levels deep
	_, ok := tree.GetTile(3, 3, 2)
	require.True(t, ok)
	_, ok = tree.GetTile(0, 0, 3)
	require.False(t, ok)
	_, ok = tree.GetTile(7, 7, 3)
	require.False(t, ok)

	require.NotPanics(t, func() {
		_, ok = tree.GetTile(0, 0, 1<<62)
	})
	require.False(t, ok)
	_, ok = tree.GetTile(math.MaxInt, math.MaxInt, math.MaxInt)
	require.False(t, ok)
	_, ok = tree.GetTile(math.MaxInt, 0, 63)
	require.False(t, ok)
}

func TestFitsDigits(t *testing.T) {
	require.True(t, fitsDigits(0, 0, 2))
	require.False(t, fitsDigits(1, 0, 2))
	require.True(t, fitsDigits(7, 3, 2))
	require.False(t, fitsDigits(8, 3, 2))
	require.True(t, fitsDigits(8, 2, 3))
	require.False(t, fitsDigits(9, 2, 3))
	require.True(t, fitsDigits(math.MaxInt, 1<<62, 2))
	require.False(t, fitsDigits(math.MaxInt, 62, 2))
}

func TestGetTileWithWideBranching(t *testing.T) {
	grid := datasets.NewCountGrid(sequence(9, 9), square(9), datasets.NewShape(1, 3, 0))
	_, tree := serialize[int32, int64](t, grid)

	tile, ok := tree.GetTile(5, 7, 2)
	require.True(t, ok)
	require.Equal(t, [][]int32{{7*9 + 5}}, tile.Data)

	_, ok = tree.GetTile(9, 0, 2)
	require.False(t, ok)
}

func TestAggregateAdditivity(t *testing.T) {
	_, tree := countGrid(t, 16, 2)

	whole := orb.Bound{Min: orb.Point{2, 4}, Max: orb.Point{14, 12}}
	for _, split := range []float64{4, 8, 10} {
		left := orb.Bound{Min: whole.Min, Max: orb.Point{split, whole.Max.Y()}}
		right := orb.Bound{Min: orb.Point{split, whole.Min.Y()}, Max: whole.Max}

		total, ok := tree.GetAggregate(geometry.NewRect(whole))
		require.True(t, ok)
		a, ok := tree.GetAggregate(geometry.NewRect(left))
		require.True(t, ok)
		b, ok := tree.GetAggregate(geometry.NewRect(right))
		require.True(t, ok)

		sum, ok := tree.Policy().Aggregate2([]int64{a, b})
		require.True(t, ok)
		require.Equal(t, total, sum)
	}
}

func TestEmptyResults(t *testing.T) {
	_, tree := countGrid(t, 8, 2)
	outside := geometry.NewRect(orb.Bound{Min: orb.Point{20, 20}, Max: orb.Point{30, 30}})

	_, ok := tree.GetAggregate(outside)
	require.False(t, ok)
	require.Empty(t, tree.GetTiles(outside, 1))

	// smaller than any leaf: nothing is covered
	_, ok = tree.GetAggregate(geometry.NewRect(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{1.5, 1.5}}))
	require.False(t, ok)
}

func TestWriteToFileAndOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trees", "count.tree")

	grid := datasets.NewCountGrid(sequence(8, 8), square(8), datasets.NewShape(2, 2, 0))
	root, err := quadtree.Build[int32, int64](grid)
	require.NoError(t, err)

	written, err := WriteToFile(root, path)
	require.NoError(t, err)
	require.True(t, written)

	info, err := os.Stat(path)
	require.NoError(t, err)

	tree, err := Open[int32, int64](path, grid)
	require.NoError(t, err)
	defer tree.Close()

	require.Equal(t, int(info.Size()), tree.Size())
	requireSameTree(t, tree.Reader(), Root[int32](), root)

	sum, ok := tree.GetAggregate(geometry.NewRect(square(8)))
	require.True(t, ok)
	require.Equal(t, int64(63*64/2), sum)

	// a second write leaves the file alone
	other, err := quadtree.Build[int32, int64](datasets.NewCountGrid(sequence(2, 2), square(8), datasets.NewShape(2, 2, 0)))
	require.NoError(t, err)
	written, err = WriteToFile(other, path)
	require.NoError(t, err)
	require.False(t, written)

	again, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, info.Size(), again.Size())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPublishKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, ".count.tree.1")
	path := filepath.Join(dir, "count.tree")
	require.NoError(t, os.WriteFile(tmp, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	published, err := publish(tmp, path)
	require.NoError(t, err)
	require.False(t, published)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "old", string(content))

	require.NoError(t, os.Remove(path))
	published, err = publish(tmp, path)
	require.NoError(t, err)
	require.True(t, published)
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(content))

	_, err = publish(filepath.Join(dir, "missing"), filepath.Join(dir, "other.tree"))
	require.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	grid := datasets.NewCountGrid(nil, square(8), datasets.NewShape(2, 2, 0))

	_, err := Open[int32, int64](filepath.Join(t.TempDir(), "missing.tree"), grid)
	require.ErrorIs(t, err, fs.ErrNotExist)

	empty := filepath.Join(t.TempDir(), "empty.tree")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = Open[int32, int64](empty, grid)
	require.ErrorIs(t, err, ErrEmptyFile)

	_, err = FromBytes[int32, int64](nil, grid)
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestFromBytesRealignsInput(t *testing.T) {
	grid := datasets.NewCountGrid(sequence(4, 4), square(4), datasets.NewShape(2, 2, 0))
	root, err := quadtree.Build[int32, int64](grid)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = Serialize(&buf, root)
	require.NoError(t, err)

	shifted := codec.AlignedBytes(buf.Len() + 1)[1:]
	copy(shifted, buf.Bytes())
	require.False(t, codec.IsAligned(shifted))

	tree, err := FromBytes[int32, int64](shifted, grid)
	require.NoError(t, err)
	requireSameTree(t, tree.Reader(), Root[int32](), root)
}

func TestSerializeRejectsPointerTypes(t *testing.T) {
	root := &quadtree.TileNode[string, int64]{Tile: [][]string{{"a"}}}
	_, err := Serialize(&bytes.Buffer{}, root)
	require.ErrorIs(t, err, codec.ErrNotPlain)
}

func TestSerializeRejectsNilChild(t *testing.T) {
	root := &quadtree.TileNode[int32, int64]{Children: [][]*quadtree.TileNode[int32, int64]{{nil}}}
	_, err := Serialize(&bytes.Buffer{}, root)
	require.ErrorIs(t, err, ErrMissingChild)
}

func TestConcurrentQueries(t *testing.T) {
	_, tree := countGrid(t, 32, 4)
	regions := queryRegions()

	expected := make([]int64, len(regions))
	for i, region := range regions {
		expected[i], _ = tree.GetAggregate(region)
	}

	var wg sync.WaitGroup
	results := make([][]int64, 8)
	for w := range results {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, region := range regions {
				sum, _ := tree.GetAggregate(region)
				results[w] = append(results[w], sum)
			}
		}(w)
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, expected, got)
	}
}

func TestTileRef(t *testing.T) {
	ref := TileRef[int32]{
		Bounds: orb.Bound{Min: orb.Point{-10, -5}, Max: orb.Point{10, 5}},
		Data:   [][]int32{{1, 2}, {3, 4}},
	}

	require.Equal(t, TileMetadata{
		NorthWestLat: 5, NorthWestLon: -10, SouthEastLat: -5, SouthEastLon: 10, Width: 2, Height: 2,
	}, ref.Metadata())
	require.Equal(t, [][]int32{{1, 2, 0}, {3, 4, 0}, {0, 0, 0}}, ref.Padded(3, 3, 0))
	require.Equal(t, [][]int32{{1}}, ref.Padded(1, 1, 0))
}

func BenchmarkAggregate(b *testing.B) {
	_, tree := countGrid(b, 512, 16)

	query := tree.Bounds()
	for step := 0; step < 8; step++ {
		region := geometry.NewRect(geometry.Scale(query, math.Sqrt(0.5)*0.99))
		query = region.Bound

		b.Run("contains/"+geometry.FormatBound(query), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				tree.Fold(tree.Contains(region))
			}
		})
		b.Run("naive/"+geometry.FormatBound(query), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				tree.Fold(tree.Naive(region))
			}
		})
	}
}
