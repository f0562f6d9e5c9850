package storage

import "github.com/paulmach/orb"

// TileRef is a tile returned by a query together with the area it covers. Data aliases the
// tree file.
type TileRef[T any] struct {
	Bounds orb.Bound
	Data   [][]T
}

// TileMetadata describes a tile to clients that render it.
type TileMetadata struct {
	NorthWestLat float64 `json:"nw_lat"`
	NorthWestLon float64 `json:"nw_lon"`
	SouthEastLat float64 `json:"se_lat"`
	SouthEastLon float64 `json:"se_lon"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
}

func (r TileRef[T]) Height() int {
	return len(r.Data)
}

func (r TileRef[T]) Width() int {
	if len(r.Data) == 0 {
		return 0
	}
	return len(r.Data[0])
}

func (r TileRef[T]) Metadata() TileMetadata {
	return TileMetadata{
		NorthWestLat: r.Bounds.Max.Y(),
		NorthWestLon: r.Bounds.Min.X(),
		SouthEastLat: r.Bounds.Min.Y(),
		SouthEastLon: r.Bounds.Max.X(),
		Width:        r.Width(),
		Height:       r.Height(),
	}
}

// Padded copies the tile into a width x height raster, filling the missing pixels on the
// south and east sides. Pixels beyond width or height are dropped.
func (r TileRef[T]) Padded(width, height int, fill T) [][]T {
	out := make([][]T, height)
	for y := range out {
		out[y] = make([]T, width)
		for x := range out[y] {
			if y < len(r.Data) && x < len(r.Data[y]) {
				out[y][x] = r.Data[y][x]
			} else {
				out[y][x] = fill
			}
		}
	}
	return out
}
