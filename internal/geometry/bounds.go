package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
)

// SubBound returns the lon/lat bound covered by the pixel window [x0, x1) x [y0, y1) of a
// width x height raster spanning parent. Row 0 is the northern edge.
func SubBound(parent orb.Bound, width, height, x0, y0, x1, y1 int) orb.Bound {
	lonStep := (parent.Max.X() - parent.Min.X()) / float64(width)
	latStep := (parent.Max.Y() - parent.Min.Y()) / float64(height)

	west := parent.Min.X() + lonStep*float64(x0)
	east := parent.Min.X() + lonStep*float64(x1)
	north := parent.Max.Y() - latStep*float64(y0)
	south := parent.Max.Y() - latStep*float64(y1)
	if x1 == width {
		east = parent.Max.X()
	}
	if y1 == height {
		south = parent.Min.Y()
	}

	return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}
}

// ContainsBound reports whether inner lies within outer, edges included.
func ContainsBound(outer, inner orb.Bound) bool {
	return outer.Min.X() <= inner.Min.X() && outer.Min.Y() <= inner.Min.Y() &&
		inner.Max.X() <= outer.Max.X() && inner.Max.Y() <= outer.Max.Y()
}

// NewBound builds a bound from any two opposite corners.
func NewBound(lon1, lat1, lon2, lat2 float64) orb.Bound {
	return orb.MultiPoint{{lon1, lat1}, {lon2, lat2}}.Bound()
}

// FormatBound renders a bound as west,south,east,north.
func FormatBound(b orb.Bound) string {
	return fmt.Sprintf("%g,%g,%g,%g", b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
}

// ParseBound reads the west,south,east,north form produced by FormatBound.
func ParseBound(value string) (orb.Bound, error) {
	var west, south, east, north float64
	if _, err := fmt.Sscanf(value, "%g,%g,%g,%g", &west, &south, &east, &north); err != nil {
		return orb.Bound{}, fmt.Errorf("invalid bbox %q, expected west,south,east,north: %w", value, err)
	}
	return NewBound(west, south, east, north), nil
}

// Scale shrinks (factor < 1) or grows a bound around its center.
func Scale(b orb.Bound, factor float64) orb.Bound {
	center := b.Center()
	halfWidth := (b.Max.X() - b.Min.X()) * factor / 2
	halfHeight := (b.Max.Y() - b.Min.Y()) * factor / 2
	return orb.Bound{
		Min: orb.Point{center.X() - halfWidth, center.Y() - halfHeight},
		Max: orb.Point{center.X() + halfWidth, center.Y() + halfHeight},
	}
}

// Corners returns the four corners of b counterclockwise from the south-west one.
func Corners(b orb.Bound) [4]orb.Point {
	return [4]orb.Point{
		b.Min,
		{b.Max.X(), b.Min.Y()},
		b.Max,
		{b.Min.X(), b.Max.Y()},
	}
}
