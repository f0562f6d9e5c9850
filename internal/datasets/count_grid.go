package datasets

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

// CountGrid holds integer counts per pixel and sums them, both when aggregating and when
// downsampling. Downsampled pixels saturate at the int32 range; aggregates are exact.
type CountGrid struct {
	Shape
	Raster[int32]
}

func NewCountGrid(data [][]int32, bounds orb.Bound, shape Shape) *CountGrid {
	return &CountGrid{Shape: shape, Raster: NewRaster(data, bounds)}
}

func (g *CountGrid) Downsample(tile [][]int32) [][]int32 {
	return downsampleBoxes(tile, g.TileSize(), func(tile [][]int32, y0, y1, x0, x1 int) int32 {
		var sum int64
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				sum += int64(tile[y][x])
			}
		}
		return int32(max(min(sum, math.MaxInt32), math.MinInt32))
	})
}

func (g *CountGrid) Aggregate(pixels []int32) (int64, bool) {
	var sum int64
	for _, p := range pixels {
		sum += int64(p)
	}
	return sum, len(pixels) > 0
}

func (g *CountGrid) Aggregate2(aggregates []int64) (int64, bool) {
	var sum int64
	for _, a := range aggregates {
		sum += a
	}
	return sum, len(aggregates) > 0
}

func (g *CountGrid) Default() int32 {
	return 0
}

func (g *CountGrid) FormatAggregate(sum int64) string {
	return decimal.NewFromInt(sum).String()
}
