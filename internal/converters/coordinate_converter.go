package converters

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// WGS84Srid is the lon/lat reference system trees are indexed in.
const WGS84Srid = 4326

var ErrUnknownSrid = errors.New("converters: unknown EPSG code")

type CoordinateConverter interface {
	ConvertPointToWGS84(sourceSrid int, point orb.Point) (orb.Point, error)
	ConvertGeometryToWGS84(sourceSrid int, geometry orb.Geometry) (orb.Geometry, error)
	Cleanup()
}

// TransformGeometry applies fn to every vertex of an areal geometry. Bounds are rebuilt from
// their transformed corners.
func TransformGeometry(geometry orb.Geometry, fn func(orb.Point) (orb.Point, error)) (orb.Geometry, error) {
	switch g := geometry.(type) {
	case orb.Point:
		return fn(g)
	case orb.Bound:
		lo, err := fn(g.Min)
		if err != nil {
			return nil, err
		}
		hi, err := fn(g.Max)
		if err != nil {
			return nil, err
		}
		return orb.MultiPoint{lo, hi}.Bound(), nil
	case orb.Ring:
		return transformRing(g, fn)
	case orb.Polygon:
		return transformPolygon(g, fn)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, polygon := range g {
			converted, err := transformPolygon(polygon, fn)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	}
	return nil, fmt.Errorf("converters: unsupported geometry %s", geometry.GeoJSONType())
}

func transformPolygon(polygon orb.Polygon, fn func(orb.Point) (orb.Point, error)) (orb.Polygon, error) {
	out := make(orb.Polygon, len(polygon))
	for i, ring := range polygon {
		converted, err := transformRing(ring, fn)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func transformRing(ring orb.Ring, fn func(orb.Point) (orb.Point, error)) (orb.Ring, error) {
	out := make(orb.Ring, len(ring))
	for i, point := range ring {
		converted, err := fn(point)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}
