package tiler

import (
	"strings"

	"github.com/paulmach/orb"
)

type DatasetKind string

const (
	// People per pixel, aggregated as totals.
	Population DatasetKind = "POPULATION"

	// Night sky radiance per pixel, aggregated as sum and count so region means can be derived.
	LightPollution DatasetKind = "LIGHT_POLLUTION"

	// RGBA satellite imagery, no aggregate.
	EarthMap DatasetKind = "EARTH_MAP"

	// Integer counts per pixel, aggregated as totals. Mostly useful for synthetic data.
	CountGrid DatasetKind = "COUNT_GRID"
)

func (k DatasetKind) String() string {
	return string(k)
}

// FileName is the default tree file name for the dataset.
func (k DatasetKind) FileName() string {
	return strings.ReplaceAll(strings.ToLower(string(k)), "_", "-") + ".tree"
}

func ParseDatasetKind(value string) DatasetKind {
	normalizedValue := strings.ReplaceAll(strings.Trim(strings.ToUpper(value), " "), "-", "_")
	switch DatasetKind(normalizedValue) {
	case Population, LightPollution, EarthMap, CountGrid:
		return DatasetKind(normalizedValue)
	}
	return ""
}

// Contains the options shared by every command
type TilerOptions struct {
	Dataset          DatasetKind // Kind of raster stored in the tree
	Input            string      // Raw raster file or folder, only read when the tree has to be built
	FolderProcessing bool        // Builds one tree per raster found in the Input folder
	Recursive        bool        // Recursive lookup of rasters in subfolders
	TreePath         string      // Serialized tree file or, with FolderProcessing, the folder holding them
	RasterWidth      int         // Columns of headerless float32 rasters
	Bounds           orb.Bound   // Lon/lat extent of the raster
	TileSize         int         // Leaf tile size, 0 for the dataset default
	ChildrenPerAxis  int         // Branching factor, 0 for the dataset default
	MaxLevel         int         // Depth cap, negative for the dataset default
	Srid             int         // EPSG code of query geometries

	Command            string
	TilerQueryOptions  *TilerQueryOptions
	TilerExportOptions *TilerExportOptions
	TilerServeOptions  *TilerServeOptions
}

type TilerQueryOptions struct {
	BBox    string // west,south,east,north in Srid units
	GeoJSON string // file holding a polygon or multipolygon geometry in Srid units
	Level   int
	X       int
	Y       int
	Z       int
}

type TilerExportOptions struct {
	Output   string // Output tileset folder
	MaxLevel int    // Deepest level to export, negative for all
}

type TilerServeOptions struct {
	Addr string
}

// Contains the subcommand entrypoints
type ITiler interface {
	RunTiler(opts *TilerOptions) error
}

func (opt *TilerOptions) Copy() *TilerOptions {
	newOpt := *opt
	newOpt.TilerQueryOptions = nil
	newOpt.TilerExportOptions = nil
	newOpt.TilerServeOptions = nil

	if opt.TilerQueryOptions != nil {
		queryOpt := *opt.TilerQueryOptions
		newOpt.TilerQueryOptions = &queryOpt
	}

	if opt.TilerExportOptions != nil {
		exportOpt := *opt.TilerExportOptions
		newOpt.TilerExportOptions = &exportOpt
	}

	if opt.TilerServeOptions != nil {
		serveOpt := *opt.TilerServeOptions
		newOpt.TilerServeOptions = &serveOpt
	}

	return &newOpt
}
