package algorithm_manager

import (
	"github.com/ecopia-map/raster_tiler/internal/converters"
	"github.com/ecopia-map/raster_tiler/internal/datasets"
)

type AlgorithmManager interface {
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
	// GetShape returns the tree constants of the dataset, command line overrides applied.
	GetShape() datasets.Shape
}
