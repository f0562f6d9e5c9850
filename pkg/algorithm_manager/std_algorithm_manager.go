package algorithm_manager

import (
	"github.com/ecopia-map/raster_tiler/internal/converters"
	"github.com/ecopia-map/raster_tiler/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/raster_tiler/internal/datasets"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
)

type StandardAlgorithmManager struct {
	options             *tiler.TilerOptions
	coordinateConverter converters.CoordinateConverter
}

func NewAlgorithmManager(opts *tiler.TilerOptions) AlgorithmManager {
	return &StandardAlgorithmManager{
		options:             opts,
		coordinateConverter: proj4_coordinate_converter.NewProj4CoordinateConverter(),
	}
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}

func (m *StandardAlgorithmManager) GetShape() datasets.Shape {
	return ResolveShape(m.options)
}

// DefaultShape is the shape a dataset kind is built with when no override is given.
func DefaultShape(kind tiler.DatasetKind) datasets.Shape {
	switch kind {
	case tiler.Population:
		return datasets.DefaultPopulationShape()
	case tiler.LightPollution:
		return datasets.DefaultLightPollutionShape()
	case tiler.EarthMap:
		return datasets.DefaultEarthMapShape()
	}
	return datasets.NewShape(256, 2, 0)
}

func ResolveShape(opts *tiler.TilerOptions) datasets.Shape {
	shape := DefaultShape(opts.Dataset)
	tileSize, childrenPerAxis, maxLevel := shape.TileSize(), shape.ChildrenPerAxis(), shape.MaxLevel()
	if opts.TileSize > 0 {
		tileSize = opts.TileSize
	}
	if opts.ChildrenPerAxis > 0 {
		childrenPerAxis = opts.ChildrenPerAxis
	}
	if opts.MaxLevel >= 0 {
		maxLevel = opts.MaxLevel
	}
	return datasets.NewShape(tileSize, childrenPerAxis, maxLevel)
}
