package tools

import (
	"flag"

	"github.com/golang/glog"
)

const (
	CommandBuild     = "build"
	CommandTile      = "tile"
	CommandTiles     = "tiles"
	CommandAggregate = "aggregate"
	CommandCompare   = "compare"
	CommandExport    = "export"
	CommandServe     = "serve"
)

const (
	EnvWorkdir = "RASTER_TILER_WORKDIR"
	EnvAddr    = "RASTER_TILER_ADDR"
)

type FlagsGlobal struct {
	Help    *bool   `json:"help"`
	Version *bool   `json:"version"`
	EnvFile *string `json:"env_file"`
}

type TilerFlags struct {
	Dataset         *string `json:"dataset"`
	Input           *string `json:"input"`
	Folder          *bool   `json:"folder"`
	Recursive       *bool   `json:"recursive"`
	Tree            *string `json:"tree"`
	Width           *int    `json:"width"`
	Bounds          *string `json:"bounds"`
	TileSize        *int    `json:"tile_size"`
	ChildrenPerAxis *int    `json:"children_per_axis"`
	MaxLevel        *int    `json:"max_level"`
	Srid            *int    `json:"srid"`
}

type FlagsForCommandBuild struct {
	TilerFlags
	Silent       *bool
	LogTimestamp *bool
}

type FlagsForCommandQuery struct {
	TilerFlags
	BBox    *string `json:"bbox"`
	GeoJSON *string `json:"geojson"`
	Level   *int    `json:"level"`
	X       *int    `json:"x"`
	Y       *int    `json:"y"`
	Z       *int    `json:"z"`
}

type FlagsForCommandExport struct {
	TilerFlags
	Output         *string `json:"output"`
	ExportMaxLevel *int    `json:"export_max_level"`
}

type FlagsForCommandServe struct {
	TilerFlags
	Addr *string `json:"addr"`
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of raster_tiler.")
	envFile := defineStringFlag("env-file", "", ".env", "Optional file of KEY=value lines loaded into the environment.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
		EnvFile: envFile,
	}
}

func defineTilerFlags(flagCommand *flag.FlagSet) TilerFlags {
	return TilerFlags{
		Dataset:         defineStringFlagCommand(flagCommand, "dataset", "d", "population", "Dataset kind: population, light-pollution, earth-map or count-grid."),
		Input:           defineStringFlagCommand(flagCommand, "input", "i", "", "Raw raster file (or folder with -folder) used when the tree file does not exist yet."),
		Folder:          defineBoolFlagCommand(flagCommand, "folder", "f", false, "Builds a tree for every raster in the -input folder."),
		Recursive:       defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for rasters inside the subfolders."),
		Tree:            defineStringFlagCommand(flagCommand, "tree", "t", "", "Serialized tree file. Defaults to <"+EnvWorkdir+">/<dataset>.tree."),
		Width:           defineIntFlagCommand(flagCommand, "width", "w", 0, "Columns of headerless float32 rasters."),
		Bounds:          defineStringFlagCommand(flagCommand, "bounds", "b", "-180,-90,180,90", "Raster extent as west,south,east,north in degrees."),
		TileSize:        defineIntFlagCommand(flagCommand, "tile-size", "", 0, "Leaf tile size in pixels, 0 for the dataset default."),
		ChildrenPerAxis: defineIntFlagCommand(flagCommand, "children", "", 0, "Children per axis of every node, 0 for the dataset default."),
		MaxLevel:        defineIntFlagCommand(flagCommand, "max-level", "", -1, "Maximum tree depth, 0 for unlimited and negative for the dataset default."),
		Srid:            defineIntFlagCommand(flagCommand, "srid", "e", 4326, "EPSG srid code of query geometries."),
	}
}

func ParseFlagsForCommandBuild(args []string) FlagsForCommandBuild {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-build", flag.ExitOnError)

	tilerFlags := defineTilerFlags(flagCommand)
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "", false, "Adds timestamp to log messages.")

	_ = flagCommand.Parse(args)

	return FlagsForCommandBuild{
		TilerFlags:   tilerFlags,
		Silent:       silent,
		LogTimestamp: logTimestamp,
	}
}

func ParseFlagsForCommandQuery(command string, args []string) FlagsForCommandQuery {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-"+command, flag.ExitOnError)

	tilerFlags := defineTilerFlags(flagCommand)
	bbox := defineStringFlagCommand(flagCommand, "bbox", "", "", "Query rectangle as west,south,east,north in -srid units.")
	geoJSON := defineStringFlagCommand(flagCommand, "geojson", "g", "", "File holding a GeoJSON polygon or multipolygon query in -srid units.")
	level := defineIntFlagCommand(flagCommand, "level", "l", 0, "Tree level to list tiles from.")
	x := defineIntFlagCommand(flagCommand, "x", "", 0, "Tile column.")
	y := defineIntFlagCommand(flagCommand, "y", "", 0, "Tile row, 0 being the northernmost.")
	z := defineIntFlagCommand(flagCommand, "z", "", 0, "Tile zoom level.")

	_ = flagCommand.Parse(args)

	return FlagsForCommandQuery{
		TilerFlags: tilerFlags,
		BBox:       bbox,
		GeoJSON:    geoJSON,
		Level:      level,
		X:          x,
		Y:          y,
		Z:          z,
	}
}

func ParseFlagsForCommandExport(args []string) FlagsForCommandExport {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-export", flag.ExitOnError)

	tilerFlags := defineTilerFlags(flagCommand)
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the tileset data.")
	exportMaxLevel := defineIntFlagCommand(flagCommand, "export-max-level", "m", -1, "Deepest level to export, negative for all of them.")

	_ = flagCommand.Parse(args)

	return FlagsForCommandExport{
		TilerFlags:     tilerFlags,
		Output:         output,
		ExportMaxLevel: exportMaxLevel,
	}
}

func ParseFlagsForCommandServe(args []string) FlagsForCommandServe {
	glog.V(1).Infoln(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-serve", flag.ExitOnError)

	tilerFlags := defineTilerFlags(flagCommand)
	addr := defineStringFlagCommand(flagCommand, "addr", "a", EnvOrDefault(EnvAddr, ":8080"), "Address the HTTP server listens on.")

	_ = flagCommand.Parse(args)

	return FlagsForCommandServe{
		TilerFlags: tilerFlags,
		Addr:       addr,
	}
}

func defineStringFlag(name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flag.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
