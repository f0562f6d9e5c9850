package datasets

// window returns the source range [start, end) that output cell i of out covers when n
// source cells are shrunk to out cells.
func window(i, n, out int) (int, int) {
	return i * n / out, (i + 1) * n / out
}

// downsampleBoxes shrinks tile to at most size x size pixels. Every output pixel is computed
// by reduce from the box of source rows [y0, y1) and columns [x0, x1) it covers.
func downsampleBoxes[T any](tile [][]T, size int, reduce func(tile [][]T, y0, y1, x0, x1 int) T) [][]T {
	if len(tile) == 0 || len(tile[0]) == 0 {
		return tile
	}
	height, width := len(tile), len(tile[0])
	outHeight, outWidth := min(height, size), min(width, size)

	out := make([][]T, outHeight)
	for y := range out {
		y0, y1 := window(y, height, outHeight)
		out[y] = make([]T, outWidth)
		for x := range out[y] {
			x0, x1 := window(x, width, outWidth)
			out[y][x] = reduce(tile, y0, y1, x0, x1)
		}
	}
	return out
}
