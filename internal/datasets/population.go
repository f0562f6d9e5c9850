package datasets

import (
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

// PopulationNoData marks pixels without a population estimate.
const PopulationNoData float32 = -3.402823e38

// Population holds people per pixel. Aggregates are totals; downsampling sums each box so a
// coarse pixel still counts everyone living in it.
type Population struct {
	Shape
	Raster[float32]
}

func NewPopulation(data [][]float32, bounds orb.Bound, shape Shape) *Population {
	return &Population{Shape: shape, Raster: NewRaster(data, bounds)}
}

// DefaultPopulationShape is 256 pixel tiles, four children per node and at most 11 levels.
func DefaultPopulationShape() Shape {
	return NewShape(256, 2, 11)
}

func (p *Population) Downsample(tile [][]float32) [][]float32 {
	return downsampleBoxes(tile, p.TileSize(), func(tile [][]float32, y0, y1, x0, x1 int) float32 {
		var sum float32
		valid := false
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if v := tile[y][x]; v != PopulationNoData {
					sum += v
					valid = true
				}
			}
		}
		if !valid {
			return PopulationNoData
		}
		return sum
	})
}

func (p *Population) Aggregate(pixels []float32) (float64, bool) {
	var sum float64
	valid := false
	for _, v := range pixels {
		if v != PopulationNoData {
			sum += float64(v)
			valid = true
		}
	}
	return sum, valid
}

func (p *Population) Aggregate2(aggregates []float64) (float64, bool) {
	var sum float64
	for _, a := range aggregates {
		sum += a
	}
	return sum, len(aggregates) > 0
}

func (p *Population) Default() float32 {
	return PopulationNoData
}

func (p *Population) FormatAggregate(total float64) string {
	return decimal.NewFromFloat(total).StringFixed(0)
}
