package datasets

import (
	"image"

	"github.com/paulmach/orb"
	"golang.org/x/image/draw"
)

// RGBA is an 8 bit per channel color pixel.
type RGBA [4]uint8

// NoAggregate is the aggregate type of datasets that only carry imagery.
type NoAggregate struct{}

// EarthMap is satellite imagery. It has no aggregate; tiles are shrunk with bilinear
// interpolation.
type EarthMap struct {
	Shape
	Raster[RGBA]
}

func NewEarthMap(data [][]RGBA, bounds orb.Bound, shape Shape) *EarthMap {
	return &EarthMap{Shape: shape, Raster: NewRaster(data, bounds)}
}

func DefaultEarthMapShape() Shape {
	return NewShape(256, 2, 2)
}

func (e *EarthMap) Downsample(tile [][]RGBA) [][]RGBA {
	if len(tile) == 0 || len(tile[0]) == 0 {
		return tile
	}
	src := ToImage(tile)
	width := min(len(tile[0]), e.TileSize())
	height := min(len(tile), e.TileSize())
	if width == len(tile[0]) && height == len(tile) {
		return FromImage(src)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return FromImage(dst)
}

func (e *EarthMap) Aggregate([]RGBA) (NoAggregate, bool) {
	return NoAggregate{}, false
}

func (e *EarthMap) Aggregate2([]NoAggregate) (NoAggregate, bool) {
	return NoAggregate{}, false
}

func (e *EarthMap) Default() RGBA {
	return RGBA{}
}

func (e *EarthMap) Render(tile [][]RGBA) image.Image {
	return ToImage(tile)
}

// ToImage copies a pixel grid into an image.
func ToImage(tile [][]RGBA) *image.RGBA {
	height := len(tile)
	width := 0
	if height > 0 {
		width = len(tile[0])
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y, row := range tile {
		for x, p := range row {
			offset := img.PixOffset(x, y)
			copy(img.Pix[offset:offset+4], p[:])
		}
	}
	return img
}

// FromImage copies an image into a pixel grid, row 0 being the top of the image.
func FromImage(img *image.RGBA) [][]RGBA {
	b := img.Bounds()
	out := make([][]RGBA, b.Dy())
	for y := range out {
		out[y] = make([]RGBA, b.Dx())
		for x := range out[y] {
			offset := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			copy(out[y][x][:], img.Pix[offset:offset+4])
		}
	}
	return out
}
