package quadtree

// Stitch joins a grid of tiles into one raster. Tiles in the same grid row are placed side by
// side; a tile shorter than the tallest one in its row is padded with fill.
func Stitch[T any](tiles [][][][]T, fill T) [][]T {
	var out [][]T
	for _, row := range tiles {
		height := 0
		for _, tile := range row {
			if len(tile) > height {
				height = len(tile)
			}
		}
		for y := 0; y < height; y++ {
			var line []T
			for _, tile := range row {
				switch {
				case y < len(tile):
					line = append(line, tile[y]...)
				case len(tile) > 0:
					for range tile[0] {
						line = append(line, fill)
					}
				}
			}
			out = append(out, line)
		}
	}
	return out
}

// Flatten returns the pixels of a raster in row-major order.
func Flatten[T any](raster [][]T) []T {
	n := 0
	for _, row := range raster {
		n += len(row)
	}
	out := make([]T, 0, n)
	for _, row := range raster {
		out = append(out, row...)
	}
	return out
}
