/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/raster_tiler/internal/geometry"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
	"github.com/ecopia-map/raster_tiler/pkg"
	"github.com/ecopia-map/raster_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/raster_tiler/tools"
)

const VERSION = "0.4.0"

const logo = `
                 _                 _   _ _
  _ __ __ _ ___| |_ ___ _ __    | |_(_) | ___ _ __
 | '__/ _  / __| __/ _ \ '__|   | __| | |/ _ \ '__|
 | | | (_| \__ \ ||  __/ |      | |_| | |  __/ |
 |_|  \__,_|___/\__\___|_|       \__|_|_|\___|_|
  Geospatial raster pyramids with region aggregates, YYYY
`

const commands = "build|tile|tiles|aggregate|compare|export|serve"

func main() {
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	glog.V(1).Infoln(tools.FmtJSONString(flagsGlobal))

	if *flagsGlobal.Help {
		showHelp()
		return
	}
	if *flagsGlobal.Version {
		printVersion()
		return
	}
	tools.LoadEnv(*flagsGlobal.EnvFile)

	args := flag.Args()
	if len(args) == 0 {
		glog.Fatalf("Please specify a subcommand [%s].", commands)
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandBuild:
		mainCommandBuild(args)
	case tools.CommandTile, tools.CommandTiles, tools.CommandAggregate, tools.CommandCompare:
		mainCommandQuery(cmd, args)
	case tools.CommandExport:
		mainCommandExport(args)
	case tools.CommandServe:
		mainCommandServe(args)
	default:
		glog.Fatalf("Unrecognized command [%q]. Command must be one of [%s]", cmd, commands)
	}
}

func mainCommandBuild(args []string) {
	flags := tools.ParseFlagsForCommandBuild(args)

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	opts := tilerOptions(tools.CommandBuild, flags.TilerFlags)
	if msg, res := validateOptionsForCommandBuild(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	defer timeTrack(time.Now(), "build")
	run(pkg.NewTiler(tools.NewStandardFileFinder(), algorithm_manager.NewAlgorithmManager(&opts)), &opts)
}

func mainCommandQuery(command string, args []string) {
	flags := tools.ParseFlagsForCommandQuery(command, args)

	opts := tilerOptions(command, flags.TilerFlags)
	opts.TilerQueryOptions = &tiler.TilerQueryOptions{
		BBox:    *flags.BBox,
		GeoJSON: *flags.GeoJSON,
		Level:   *flags.Level,
		X:       *flags.X,
		Y:       *flags.Y,
		Z:       *flags.Z,
	}
	if msg, res := validateOptionsForCommandQuery(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	manager := algorithm_manager.NewAlgorithmManager(&opts)
	if command == tools.CommandCompare {
		run(pkg.NewTilerVerify(tools.NewStandardFileFinder(), manager), &opts)
		return
	}
	run(pkg.NewTiler(tools.NewStandardFileFinder(), manager), &opts)
}

func mainCommandExport(args []string) {
	flags := tools.ParseFlagsForCommandExport(args)

	opts := tilerOptions(tools.CommandExport, flags.TilerFlags)
	opts.TilerExportOptions = &tiler.TilerExportOptions{
		Output:   *flags.Output,
		MaxLevel: *flags.ExportMaxLevel,
	}
	if msg, res := validateOptionsForCommandExport(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	defer timeTrack(time.Now(), "export")
	run(pkg.NewTiler(tools.NewStandardFileFinder(), algorithm_manager.NewAlgorithmManager(&opts)), &opts)
}

func mainCommandServe(args []string) {
	flags := tools.ParseFlagsForCommandServe(args)

	opts := tilerOptions(tools.CommandServe, flags.TilerFlags)
	opts.TilerServeOptions = &tiler.TilerServeOptions{
		Addr: *flags.Addr,
	}
	if msg, res := validateOptionsForCommandServe(&opts); !res {
		glog.Fatal("Error parsing input parameters: " + msg)
	}

	run(pkg.NewTiler(tools.NewStandardFileFinder(), algorithm_manager.NewAlgorithmManager(&opts)), &opts)
}

func run(t tiler.ITiler, opts *tiler.TilerOptions) {
	if err := t.RunTiler(opts); err != nil {
		glog.Fatal("Error while running "+opts.Command+": ", err)
	}
	tools.LogOutput(opts.Command + " completed")
}

// Put args inside a TilerOptions struct. Invalid values are left empty for the validators.
func tilerOptions(command string, tilerFlags tools.TilerFlags) tiler.TilerOptions {
	opts := tiler.TilerOptions{
		Dataset:          tiler.ParseDatasetKind(*tilerFlags.Dataset),
		Input:            *tilerFlags.Input,
		FolderProcessing: *tilerFlags.Folder,
		Recursive:        *tilerFlags.Recursive,
		TreePath:         *tilerFlags.Tree,
		RasterWidth:      *tilerFlags.Width,
		TileSize:         *tilerFlags.TileSize,
		ChildrenPerAxis:  *tilerFlags.ChildrenPerAxis,
		MaxLevel:         *tilerFlags.MaxLevel,
		Srid:             *tilerFlags.Srid,
		Command:          command,
	}

	if bounds, err := geometry.ParseBound(*tilerFlags.Bounds); err == nil {
		opts.Bounds = bounds
	}

	if opts.TreePath == "" {
		opts.TreePath = tools.GetRootFolder()
		if !opts.FolderProcessing && opts.Dataset != "" {
			opts.TreePath = filepath.Join(opts.TreePath, opts.Dataset.FileName())
		}
	}
	return opts
}

// Validates the options shared by every command, checking that the raster input exists
func validateTilerOptions(opts *tiler.TilerOptions) (string, bool) {
	if opts.Dataset == "" {
		return "dataset should be one of population, light-pollution, earth-map or count-grid", false
	}
	if opts.Bounds.Max.X() <= opts.Bounds.Min.X() || opts.Bounds.Max.Y() <= opts.Bounds.Min.Y() {
		return "bounds should be west,south,east,north with a non-zero extent", false
	}
	if opts.TileSize < 0 {
		return "tile-size cannot be negative", false
	}
	if opts.ChildrenPerAxis == 1 || opts.ChildrenPerAxis < 0 {
		return "children should be at least 2", false
	}
	if opts.FolderProcessing && opts.Input == "" {
		return "folder processing needs an input folder", false
	}
	if opts.Input != "" {
		if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
			return "Input file/folder not found", false
		}
		if opts.Dataset != tiler.EarthMap && opts.RasterWidth <= 0 {
			return "width is required to read headerless float32 rasters", false
		}
	}
	return "", true
}

func validateOptionsForCommandBuild(opts *tiler.TilerOptions) (string, bool) {
	if opts.Input == "" {
		return "build needs an input raster", false
	}
	return validateTilerOptions(opts)
}

func validateOptionsForCommandQuery(opts *tiler.TilerOptions) (string, bool) {
	queryOpts := opts.TilerQueryOptions
	if queryOpts.BBox != "" && queryOpts.GeoJSON != "" {
		return "bbox and geojson cannot be used together", false
	}
	if queryOpts.BBox != "" {
		if _, err := geometry.ParseBound(queryOpts.BBox); err != nil {
			return err.Error(), false
		}
	}
	if queryOpts.Level < 0 {
		return "level cannot be negative", false
	}
	return validateTilerOptions(opts)
}

func validateOptionsForCommandExport(opts *tiler.TilerOptions) (string, bool) {
	if opts.TilerExportOptions.Output == "" {
		return "output folder is required", false
	}
	if err := tools.CreateDirectoryIfDoesNotExist(opts.TilerExportOptions.Output); err != nil {
		return "Output folder cannot be created: " + err.Error(), false
	}
	return validateTilerOptions(opts)
}

func validateOptionsForCommandServe(opts *tiler.TilerOptions) (string, bool) {
	if opts.TilerServeOptions.Addr == "" {
		return "addr is required", false
	}
	if opts.FolderProcessing {
		return "serve works on a single tree, folder processing is not supported", false
	}
	return validateTilerOptions(opts)
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("raster_tiler builds quadtree pyramids of geospatial rasters and answers tile and region aggregate queries on them")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Usage: raster_tiler [global flags] <" + commands + "> [command flags]")
	fmt.Println("Run a command with -h to list its flags.")
	fmt.Println("")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
