package datasets

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// LoadImage decodes a PNG, JPEG or TIFF image into rows of RGBA pixels.
func LoadImage(path string) ([][]RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return FromImage(rgba), nil
}

// LoadFloat32Grid reads a headerless raster of little endian float32 values, width values
// per row.
func LoadFloat32Grid(path string, width int) ([][]float32, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid raster width %d", width)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rowBytes := width * 4
	if len(raw)%rowBytes != 0 {
		return nil, fmt.Errorf("%s: %d bytes is not a whole number of %d pixel rows", path, len(raw), width)
	}

	out := make([][]float32, len(raw)/rowBytes)
	for y := range out {
		out[y] = make([]float32, width)
		line := raw[y*rowBytes:]
		for x := range out[y] {
			out[y][x] = math.Float32frombits(binary.LittleEndian.Uint32(line[x*4:]))
		}
	}
	return out, nil
}

// ToCounts rounds a float raster to integer counts, treating noData as zero.
func ToCounts(data [][]float32, noData float32) [][]int32 {
	out := make([][]int32, len(data))
	for y, row := range data {
		out[y] = make([]int32, len(row))
		for x, v := range row {
			if v != noData {
				out[y][x] = int32(math.Round(float64(v)))
			}
		}
	}
	return out
}
