package datasets

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
)

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// renderGray maps valid pixels linearly between the smallest and largest valid value of the
// tile. Pixels for which valid is false are transparent.
func renderGray(tile [][]float64, valid func(y, x int) bool) image.Image {
	height := len(tile)
	width := 0
	if height > 0 {
		width = len(tile[0])
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	lo, hi := math.Inf(1), math.Inf(-1)
	for y, row := range tile {
		for x, v := range row {
			if valid(y, x) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	span := hi - lo
	for y, row := range tile {
		for x, v := range row {
			if !valid(y, x) {
				continue
			}
			level := uint8(255)
			if span > 0 {
				level = uint8(math.Round(255 * (v - lo) / span))
			}
			img.SetNRGBA(x, y, color.NRGBA{R: level, G: level, B: level, A: 255})
		}
	}
	return img
}

func toFloat64[T int32 | float32](tile [][]T) [][]float64 {
	out := make([][]float64, len(tile))
	for y, row := range tile {
		out[y] = make([]float64, len(row))
		for x, v := range row {
			out[y][x] = float64(v)
		}
	}
	return out
}

func (p *Population) Render(tile [][]float32) image.Image {
	// log scale, densities span several orders of magnitude
	scaled := toFloat64(tile)
	for _, row := range scaled {
		for x, v := range row {
			row[x] = math.Log1p(math.Max(v, 0))
		}
	}
	return renderGray(scaled, func(y, x int) bool { return tile[y][x] != PopulationNoData })
}

func (l *LightPollution) Render(tile [][]float32) image.Image {
	return renderGray(toFloat64(tile), func(y, x int) bool { return tile[y][x] != LightPollutionNoData })
}

func (g *CountGrid) Render(tile [][]int32) image.Image {
	return renderGray(toFloat64(tile), func(int, int) bool { return true })
}
