package pkg

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/converters"
	"github.com/ecopia-map/raster_tiler/internal/geometry"
	"github.com/ecopia-map/raster_tiler/internal/storage"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
	"github.com/ecopia-map/raster_tiler/pkg/server"
	"github.com/ecopia-map/raster_tiler/tools"
)

// Query results are the output of the command and go to stdout even when logging is silenced.
func runQuery(opts *tiler.TilerOptions, store server.Store, converter converters.CoordinateConverter) error {
	queryOpts := opts.TilerQueryOptions
	if queryOpts == nil {
		return fmt.Errorf("command %q has no query options", opts.Command)
	}

	switch opts.Command {
	case tools.CommandTile:
		tile, ok := store.Tile(queryOpts.X, queryOpts.Y, queryOpts.Z)
		if !ok {
			tools.LogOutput(fmt.Sprintf("%v: %d/%d/%d", storage.ErrNotFound, queryOpts.Z, queryOpts.X, queryOpts.Y))
			return nil
		}
		fmt.Println(tools.FmtJSONIndent(tile))
		return nil

	case tools.CommandTiles:
		region, err := queryRegion(opts, converter, store.Bounds())
		if err != nil {
			return err
		}
		tiles := store.Tiles(region, queryOpts.Level)
		metadata := make([]storage.TileMetadata, len(tiles))
		for i, tile := range tiles {
			metadata[i] = tile.TileMetadata
		}
		tools.LogOutput(fmt.Sprintf("%d tiles at level %d", len(tiles), queryOpts.Level))
		fmt.Println(tools.FmtJSONIndent(metadata))
		return nil

	case tools.CommandAggregate:
		region, err := queryRegion(opts, converter, store.Bounds())
		if err != nil {
			return err
		}
		aggregate, ok := store.Aggregate(region)
		if !ok {
			tools.LogOutput("no aggregate for this region")
			return nil
		}
		fmt.Println(tools.FmtJSONIndent(aggregate))
		return nil
	}
	return fmt.Errorf("unknown command %q", opts.Command)
}

// queryRegion reads the query area from the -geojson file or the -bbox flag and defaults to the
// whole tree.
func queryRegion(opts *tiler.TilerOptions, converter converters.CoordinateConverter, bounds orb.Bound) (geometry.Region, error) {
	queryOpts := opts.TilerQueryOptions

	var g orb.Geometry
	switch {
	case queryOpts.GeoJSON != "":
		raw, err := os.ReadFile(queryOpts.GeoJSON)
		if err != nil {
			return nil, err
		}
		if g, err = geometry.ParseGeoJSON(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", queryOpts.GeoJSON, err)
		}
	case queryOpts.BBox != "":
		b, err := geometry.ParseBound(queryOpts.BBox)
		if err != nil {
			return nil, err
		}
		g = b
	default:
		return geometry.NewRect(bounds), nil
	}
	return server.ResolveRegion(converter, opts.Srid, g)
}
