package pkg

import (
	"encoding/json"
	"os"
	"path"

	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/io"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
	"github.com/ecopia-map/raster_tiler/tools"
)

// exportedTree is a tree whose tileset was written to its own subfolder of the export folder.
type exportedTree struct {
	subfolder      string
	bounds         orb.Bound
	geometricError float64
}

// Writes a tileset.json in the export folder whose children are the tilesets of the trees
// exported by a folder run
func exportRootTileset(opts *tiler.TilerOptions, trees []exportedTree) error {
	if len(trees) == 0 {
		return nil
	}
	tools.LogOutput("> merging tilesets...")

	bounds := trees[0].bounds
	maxError := 0.0
	children := make([]io.Child, len(trees))
	for i, exported := range trees {
		bounds = bounds.Union(exported.bounds)
		maxError = max(maxError, exported.geometricError)
		children[i] = io.Child{
			Content:        &io.Content{Url: exported.subfolder + "/" + io.TilesetFileName},
			BoundingVolume: io.NewBoundingVolume(exported.bounds),
			GeometricError: exported.geometricError,
			Refine:         "REPLACE",
		}
	}

	tileset := io.Tileset{
		Asset:          io.Asset{Version: "1.0"},
		GeometricError: 2 * maxError,
		Root: io.Root{
			BoundingVolume: io.NewBoundingVolume(bounds),
			GeometricError: 2 * maxError,
			Refine:         "REPLACE",
			Children:       children,
		},
	}

	jsonData, err := json.MarshalIndent(tileset, "", "\t")
	if err != nil {
		return err
	}
	output := opts.TilerExportOptions.Output
	if err := tools.CreateDirectoryIfDoesNotExist(output); err != nil {
		return err
	}
	return os.WriteFile(path.Join(output, io.TilesetFileName), jsonData, 0666)
}
