package server

import (
	"image/png"
	"io"

	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/geometry"
	"github.com/ecopia-map/raster_tiler/internal/quadtree"
	"github.com/ecopia-map/raster_tiler/internal/storage"
)

// Store is the type-erased view of an open tree the HTTP handlers work with.
type Store interface {
	Bounds() orb.Bound
	Tiles(region geometry.Region, level int) []TileResponse
	Tile(x, y, z int) (TileResponse, bool)
	// WriteTilePNG renders the addressed tile. It reports false when there is no such tile.
	WriteTilePNG(w io.Writer, x, y, z int) (bool, error)
	Aggregate(region geometry.Region) (AggregateResponse, bool)
	CanRender() bool
}

type TileResponse struct {
	storage.TileMetadata
	Data any `json:"data"`
}

type AggregateResponse struct {
	Value        any    `json:"value"`
	Formatted    string `json:"formatted"`
	NodesVisited int    `json:"nodes_visited"`
}

type treeStore[T, A any] struct {
	tree *storage.GeoTree[T, A]
}

func NewStore[T, A any](tree *storage.GeoTree[T, A]) Store {
	return &treeStore[T, A]{tree: tree}
}

func (s *treeStore[T, A]) Bounds() orb.Bound {
	return s.tree.Bounds()
}

func (s *treeStore[T, A]) Tiles(region geometry.Region, level int) []TileResponse {
	refs := s.tree.GetTiles(region, level)
	out := make([]TileResponse, len(refs))
	for i, ref := range refs {
		out[i] = tileResponse(ref)
	}
	return out
}

func (s *treeStore[T, A]) Tile(x, y, z int) (TileResponse, bool) {
	ref, ok := s.tree.GetTile(x, y, z)
	if !ok || ref.Data == nil {
		return TileResponse{}, false
	}
	return tileResponse(ref), true
}

func (s *treeStore[T, A]) CanRender() bool {
	_, ok := s.tree.Policy().(quadtree.TileRenderer[T])
	return ok
}

func (s *treeStore[T, A]) WriteTilePNG(w io.Writer, x, y, z int) (bool, error) {
	renderer, ok := s.tree.Policy().(quadtree.TileRenderer[T])
	if !ok {
		return false, nil
	}
	ref, ok := s.tree.GetTile(x, y, z)
	if !ok || ref.Data == nil {
		return false, nil
	}
	return true, png.Encode(w, renderer.Render(ref.Data))
}

func (s *treeStore[T, A]) Aggregate(region geometry.Region) (AggregateResponse, bool) {
	it := s.tree.Contains(region)
	aggregate, ok := s.tree.Fold(it)
	NodesVisited.Observe(float64(it.NodesVisited()))
	if !ok {
		return AggregateResponse{NodesVisited: it.NodesVisited()}, false
	}
	return AggregateResponse{
		Value:        aggregate,
		Formatted:    s.tree.FormatAggregate(aggregate),
		NodesVisited: it.NodesVisited(),
	}, true
}

func tileResponse[T any](ref storage.TileRef[T]) TileResponse {
	return TileResponse{TileMetadata: ref.Metadata(), Data: ref.Data}
}
