package datasets

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

// LightPollutionNoData marks pixels without a radiance measurement.
const LightPollutionNoData float32 = 65535

type LightPollutionAggregate struct {
	Sum   float64
	Count uint64
}

func (a LightPollutionAggregate) Mean() float64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / float64(a.Count)
}

// LightPollution holds sky brightness per pixel. Downsampling averages each box and the
// aggregate keeps enough to compute the mean of any region.
type LightPollution struct {
	Shape
	Raster[float32]
}

func NewLightPollution(data [][]float32, bounds orb.Bound, shape Shape) *LightPollution {
	return &LightPollution{Shape: shape, Raster: NewRaster(data, bounds)}
}

func DefaultLightPollutionShape() Shape {
	return NewShape(256, 2, 0)
}

func (l *LightPollution) Downsample(tile [][]float32) [][]float32 {
	return downsampleBoxes(tile, l.TileSize(), func(tile [][]float32, y0, y1, x0, x1 int) float32 {
		var sum float64
		var count int
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if v := tile[y][x]; v != LightPollutionNoData {
					sum += float64(v)
					count++
				}
			}
		}
		if count == 0 {
			return LightPollutionNoData
		}
		return float32(sum / float64(count))
	})
}

func (l *LightPollution) Aggregate(pixels []float32) (LightPollutionAggregate, bool) {
	var out LightPollutionAggregate
	for _, v := range pixels {
		if v != LightPollutionNoData {
			out.Sum += float64(v)
			out.Count++
		}
	}
	return out, out.Count > 0
}

func (l *LightPollution) Aggregate2(aggregates []LightPollutionAggregate) (LightPollutionAggregate, bool) {
	var out LightPollutionAggregate
	for _, a := range aggregates {
		out.Sum += a.Sum
		out.Count += a.Count
	}
	return out, len(aggregates) > 0
}

func (l *LightPollution) Default() float32 {
	return LightPollutionNoData
}

func (l *LightPollution) FormatAggregate(a LightPollutionAggregate) string {
	return fmt.Sprintf("mean %s over %d pixels", decimal.NewFromFloat(a.Mean()).StringFixed(3), a.Count)
}
