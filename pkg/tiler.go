package pkg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/golang/glog"

	"github.com/ecopia-map/raster_tiler/internal/converters"
	"github.com/ecopia-map/raster_tiler/internal/datasets"
	"github.com/ecopia-map/raster_tiler/internal/io"
	"github.com/ecopia-map/raster_tiler/internal/quadtree"
	"github.com/ecopia-map/raster_tiler/internal/storage"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
	"github.com/ecopia-map/raster_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/raster_tiler/pkg/server"
	"github.com/ecopia-map/raster_tiler/tools"
)

var ErrNoRaster = errors.New("tree file does not exist and no input raster was given")

type Tiler struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTiler(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &Tiler{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

// Builds the missing trees and runs the requested command against each of them
func (t *Tiler) RunTiler(opts *tiler.TilerOptions) error {
	defer t.algorithmManager.GetCoordinateConverterAlgorithm().Cleanup()

	switch opts.Dataset {
	case tiler.Population:
		return runTiler(t, opts, populationHandle)
	case tiler.LightPollution:
		return runTiler(t, opts, lightPollutionHandle)
	case tiler.EarthMap:
		return runTiler(t, opts, earthMapHandle)
	case tiler.CountGrid:
		return runTiler(t, opts, countGridHandle)
	}
	return fmt.Errorf("unknown dataset %q", opts.Dataset)
}

func runTiler[T, A any](t *Tiler, opts *tiler.TilerOptions, handle datasetHandle[T, A]) error {
	shape := t.algorithmManager.GetShape()
	treePaths, err := prepareTrees(t.fileFinder, opts, handle, shape)
	if err != nil {
		return err
	}
	if opts.Command == tools.CommandServe && len(treePaths) != 1 {
		return fmt.Errorf("serve needs exactly one tree, found %d", len(treePaths))
	}

	var exported []exportedTree
	for i, treePath := range treePaths {
		tools.LogOutput("Processing tree " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(treePaths)))
		if err := withTree(treePath, handle.policy(shape), func(tree *storage.GeoTree[T, A]) error {
			if opts.Command == tools.CommandExport {
				bounds := tree.Bounds()
				exported = append(exported, exportedTree{
					subfolder:      tools.GetFilenameWithoutExtension(treePath),
					bounds:         bounds,
					geometricError: io.GeometricError(bounds, shape.TileSize()),
				})
			}
			return runCommand(t, opts, tree, treePath)
		}); err != nil {
			return err
		}
	}

	if opts.FolderProcessing && opts.Command == tools.CommandExport {
		return exportRootTileset(opts, exported)
	}
	return nil
}

func runCommand[T, A any](t *Tiler, opts *tiler.TilerOptions, tree *storage.GeoTree[T, A], treePath string) error {
	converter := t.algorithmManager.GetCoordinateConverterAlgorithm()
	switch opts.Command {
	case tools.CommandBuild:
		tools.LogOutput("> tree ready", treePath, strconv.Itoa(tree.Size())+" bytes")
		return nil
	case tools.CommandExport:
		tools.LogOutput("> exporting data...")
		return exportTreeAsTileset(opts, tree, tools.GetFilenameWithoutExtension(treePath))
	case tools.CommandServe:
		return serve(opts, server.NewStore(tree), converter)
	}
	return runQuery(opts, server.NewStore(tree), converter)
}

func serve(opts *tiler.TilerOptions, store server.Store, converter converters.CoordinateConverter) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(store, converter, opts.Srid).ListenAndServe(ctx, opts.TilerServeOptions.Addr)
}

// prepareTrees returns the tree files the command runs against, building the ones that do
// not exist yet from their raster.
func prepareTrees[T, A any](fileFinder tools.FileFinder, opts *tiler.TilerOptions, handle datasetHandle[T, A], shape datasets.Shape) ([]string, error) {
	if !opts.FolderProcessing {
		if !tools.FileExists(opts.TreePath) {
			if opts.Input == "" {
				return nil, fmt.Errorf("%s: %w", opts.TreePath, ErrNoRaster)
			}
			if err := buildTree(handle, opts.Input, opts.TreePath, opts, shape); err != nil {
				return nil, err
			}
		}
		return []string{opts.TreePath}, nil
	}

	tools.LogOutput("Preparing list of files to process...")
	rasterFiles, err := fileFinder.GetRasterFilesToProcess(opts)
	if err != nil {
		return nil, err
	}
	glog.Infoln("raster file list", rasterFiles)

	treePaths := make([]string, 0, len(rasterFiles))
	for i, rasterPath := range rasterFiles {
		treePath := filepath.Join(opts.TreePath, tools.GetFilenameWithoutExtension(rasterPath)+".tree")
		if !tools.FileExists(treePath) {
			tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(rasterFiles)))
			if err := buildTree(handle, rasterPath, treePath, opts, shape); err != nil {
				return nil, err
			}
		}
		treePaths = append(treePaths, treePath)
	}
	return treePaths, nil
}

func buildTree[T, A any](handle datasetHandle[T, A], rasterPath, treePath string, opts *tiler.TilerOptions, shape datasets.Shape) error {
	tools.LogOutput("> reading data from raster file...", filepath.Base(rasterPath))
	ds, err := handle.load(rasterPath, opts, shape)
	if err != nil {
		return err
	}

	tools.LogOutput("> building data structure...")
	root, err := quadtree.Build(ds)
	if err != nil {
		return fmt.Errorf("building %s: %w", rasterPath, err)
	}
	glog.Infof("%s: %d nodes over %d levels", rasterPath, root.Count(), root.Depth())

	tools.LogOutput("> writing tree...", treePath)
	if _, err := storage.WriteToFile(root, treePath); err != nil {
		return fmt.Errorf("writing %s: %w", treePath, err)
	}
	tools.LogOutput("> done processing", filepath.Base(rasterPath))
	return nil
}

// withTree maps the tree file for the duration of fn.
func withTree[T, A any](treePath string, policy quadtree.Policy[T, A], fn func(tree *storage.GeoTree[T, A]) error) error {
	tree, err := storage.Open(treePath, policy)
	if err != nil {
		return fmt.Errorf("opening %s: %w", treePath, err)
	}
	defer func() {
		if err := tree.Close(); err != nil {
			glog.Warningf("closing %s: %v", treePath, err)
		}
	}()
	return fn(tree)
}
