package algorithm_manager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/raster_tiler/internal/datasets"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
)

func TestResolveShapeDefaults(t *testing.T) {
	opts := &tiler.TilerOptions{Dataset: tiler.Population, MaxLevel: -1}
	require.Equal(t, datasets.DefaultPopulationShape(), ResolveShape(opts))

	opts.Dataset = tiler.CountGrid
	require.Equal(t, datasets.NewShape(256, 2, 0), ResolveShape(opts))
}

func TestResolveShapeOverrides(t *testing.T) {
	opts := &tiler.TilerOptions{Dataset: tiler.EarthMap, TileSize: 64, ChildrenPerAxis: 3, MaxLevel: 0}
	require.Equal(t, datasets.NewShape(64, 3, 0), ResolveShape(opts))

	opts = &tiler.TilerOptions{Dataset: tiler.LightPollution, MaxLevel: 4}
	shape := ResolveShape(opts)
	require.Equal(t, datasets.DefaultLightPollutionShape().TileSize(), shape.TileSize())
	require.Equal(t, 4, shape.MaxLevel())
}
