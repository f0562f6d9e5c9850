package geometry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var ErrNotAreal = errors.New("geometry: only polygons and rectangles can be queried")

// ParseGeoJSON reads a bare geometry, a Feature or a FeatureCollection. The areal members of a
// collection are merged into one MultiPolygon.
func ParseGeoJSON(data []byte) (orb.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("geometry: invalid GeoJSON: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		var merged orb.MultiPolygon
		for _, f := range fc.Features {
			switch g := f.Geometry.(type) {
			case orb.Polygon:
				merged = append(merged, g)
			case orb.MultiPolygon:
				merged = append(merged, g...)
			}
		}
		if len(merged) == 0 {
			return nil, ErrNotAreal
		}
		return merged, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		return f.Geometry, nil
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, err
	}
	return g.Geometry(), nil
}

// ParseRegion is ParseGeoJSON followed by RegionFromGeometry.
func ParseRegion(data []byte) (Region, error) {
	g, err := ParseGeoJSON(data)
	if err != nil {
		return nil, err
	}
	region, ok := RegionFromGeometry(g)
	if !ok {
		return nil, ErrNotAreal
	}
	return region, nil
}
