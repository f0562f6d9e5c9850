package pkg

import (
	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/datasets"
	"github.com/ecopia-map/raster_tiler/internal/quadtree"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
)

// datasetHandle binds a dataset kind to its pixel and aggregate types.
type datasetHandle[T, A any] struct {
	// policy serves trees that are already built, it holds no raster
	policy func(shape datasets.Shape) quadtree.Policy[T, A]
	load   func(rasterPath string, opts *tiler.TilerOptions, shape datasets.Shape) (quadtree.Dataset[T, A], error)
}

var populationHandle = datasetHandle[float32, float64]{
	policy: func(shape datasets.Shape) quadtree.Policy[float32, float64] {
		return datasets.NewPopulation(nil, orb.Bound{}, shape)
	},
	load: func(rasterPath string, opts *tiler.TilerOptions, shape datasets.Shape) (quadtree.Dataset[float32, float64], error) {
		data, err := datasets.LoadFloat32Grid(rasterPath, opts.RasterWidth)
		if err != nil {
			return nil, err
		}
		return datasets.NewPopulation(data, opts.Bounds, shape), nil
	},
}

var lightPollutionHandle = datasetHandle[float32, datasets.LightPollutionAggregate]{
	policy: func(shape datasets.Shape) quadtree.Policy[float32, datasets.LightPollutionAggregate] {
		return datasets.NewLightPollution(nil, orb.Bound{}, shape)
	},
	load: func(rasterPath string, opts *tiler.TilerOptions, shape datasets.Shape) (quadtree.Dataset[float32, datasets.LightPollutionAggregate], error) {
		data, err := datasets.LoadFloat32Grid(rasterPath, opts.RasterWidth)
		if err != nil {
			return nil, err
		}
		return datasets.NewLightPollution(data, opts.Bounds, shape), nil
	},
}

var earthMapHandle = datasetHandle[datasets.RGBA, datasets.NoAggregate]{
	policy: func(shape datasets.Shape) quadtree.Policy[datasets.RGBA, datasets.NoAggregate] {
		return datasets.NewEarthMap(nil, orb.Bound{}, shape)
	},
	load: func(rasterPath string, opts *tiler.TilerOptions, shape datasets.Shape) (quadtree.Dataset[datasets.RGBA, datasets.NoAggregate], error) {
		data, err := datasets.LoadImage(rasterPath)
		if err != nil {
			return nil, err
		}
		return datasets.NewEarthMap(data, opts.Bounds, shape), nil
	},
}

var countGridHandle = datasetHandle[int32, int64]{
	policy: func(shape datasets.Shape) quadtree.Policy[int32, int64] {
		return datasets.NewCountGrid(nil, orb.Bound{}, shape)
	},
	load: func(rasterPath string, opts *tiler.TilerOptions, shape datasets.Shape) (quadtree.Dataset[int32, int64], error) {
		data, err := datasets.LoadFloat32Grid(rasterPath, opts.RasterWidth)
		if err != nil {
			return nil, err
		}
		return datasets.NewCountGrid(datasets.ToCounts(data, datasets.PopulationNoData), opts.Bounds, shape), nil
	},
}
