package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Region is anything a tree query can be run against.
type Region interface {
	// ContainsBound reports whether the region covers all of b.
	ContainsBound(b orb.Bound) bool
	// IntersectsBound reports whether the region shares at least one point with b.
	IntersectsBound(b orb.Bound) bool
}

type Rect struct {
	orb.Bound
}

func NewRect(b orb.Bound) Rect {
	return Rect{Bound: b}
}

func (r Rect) ContainsBound(b orb.Bound) bool {
	return ContainsBound(r.Bound, b)
}

func (r Rect) IntersectsBound(b orb.Bound) bool {
	return r.Bound.Intersects(b)
}

// Polygon is a region bounded by an outer ring with optional holes.
type Polygon struct {
	orb.Polygon
	bound orb.Bound
}

func NewPolygon(p orb.Polygon) Polygon {
	return Polygon{Polygon: p, bound: p.Bound()}
}

// ContainsBound holds when every corner of b is inside the polygon and no ring edge passes
// through the interior of b, which rules out notches and holes inside the rectangle.
func (p Polygon) ContainsBound(b orb.Bound) bool {
	if len(p.Polygon) == 0 || !ContainsBound(p.bound, b) {
		return false
	}
	for _, corner := range Corners(b) {
		if !planar.PolygonContains(p.Polygon, corner) {
			return false
		}
	}
	for _, ring := range p.Polygon {
		for i := 0; i+1 < len(ring); i++ {
			if segmentCrossesInterior(ring[i], ring[i+1], b) {
				return false
			}
		}
	}
	return true
}

func (p Polygon) IntersectsBound(b orb.Bound) bool {
	if len(p.Polygon) == 0 || !p.bound.Intersects(b) {
		return false
	}
	for _, ring := range p.Polygon {
		for i := 0; i+1 < len(ring); i++ {
			if _, _, ok := clipSegment(ring[i], ring[i+1], b); ok {
				return true
			}
		}
	}
	// no edge touches b: either b sits inside the polygon or the two are disjoint
	return planar.PolygonContains(p.Polygon, b.Center())
}

type MultiPolygon []Polygon

func NewMultiPolygon(mp orb.MultiPolygon) MultiPolygon {
	out := make(MultiPolygon, 0, len(mp))
	for _, p := range mp {
		out = append(out, NewPolygon(p))
	}
	return out
}

// ContainsBound requires a single member to cover b; a bound only covered by the union of
// several members is refined further by the caller instead.
func (mp MultiPolygon) ContainsBound(b orb.Bound) bool {
	for _, p := range mp {
		if p.ContainsBound(b) {
			return true
		}
	}
	return false
}

func (mp MultiPolygon) IntersectsBound(b orb.Bound) bool {
	for _, p := range mp {
		if p.IntersectsBound(b) {
			return true
		}
	}
	return false
}

// RegionFromGeometry adapts an orb geometry to a Region. Only areal geometries are supported.
func RegionFromGeometry(g orb.Geometry) (Region, bool) {
	switch v := g.(type) {
	case orb.Bound:
		return NewRect(v), true
	case orb.Polygon:
		return NewPolygon(v), true
	case orb.MultiPolygon:
		return NewMultiPolygon(v), true
	case orb.Ring:
		return NewPolygon(orb.Polygon{v}), true
	}
	return nil, false
}

// clipSegment clips the segment a-c to the closed box b (Liang-Barsky) and returns the
// parameter interval that remains.
func clipSegment(a, c orb.Point, b orb.Bound) (float64, float64, bool) {
	t0, t1 := 0.0, 1.0
	dx := c.X() - a.X()
	dy := c.Y() - a.Y()

	edges := [4][2]float64{
		{-dx, a.X() - b.Min.X()},
		{dx, b.Max.X() - a.X()},
		{-dy, a.Y() - b.Min.Y()},
		{dy, b.Max.Y() - a.Y()},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return t0, t1, true
}

// segmentCrossesInterior reports whether some point of a-c lies strictly inside b.
// The part of a segment inside a convex box either lies on one edge or has its midpoint in
// the open interior, so testing that midpoint is enough.
func segmentCrossesInterior(a, c orb.Point, b orb.Bound) bool {
	t0, t1, ok := clipSegment(a, c, b)
	if !ok {
		return false
	}
	t := (t0 + t1) / 2
	x := a.X() + (c.X()-a.X())*t
	y := a.Y() + (c.Y()-a.Y())*t
	return b.Min.X() < x && x < b.Max.X() && b.Min.Y() < y && y < b.Max.Y()
}
