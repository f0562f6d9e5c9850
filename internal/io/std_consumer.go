package io

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path"
	"strconv"
	"sync"

	"github.com/golang/glog"
	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/datasets"
	"github.com/ecopia-map/raster_tiler/internal/quadtree"
	"github.com/ecopia-map/raster_tiler/internal/storage"
	"github.com/ecopia-map/raster_tiler/tools"
)

const (
	ContentFileName = "content.png"
	TilesetFileName = "tileset.json"

	// meters per degree at the equator
	metersPerDegree = 111319.49079327357
)

var ErrNotRenderable = errors.New("io: dataset tiles cannot be rendered")

type StandardConsumer[T, A any] struct {
	tree     *storage.GeoTree[T, A]
	renderer quadtree.TileRenderer[T]
}

func NewStandardConsumer[T, A any](tree *storage.GeoTree[T, A]) (*StandardConsumer[T, A], error) {
	renderer, ok := tree.Policy().(quadtree.TileRenderer[T])
	if !ok {
		return nil, ErrNotRenderable
	}
	return &StandardConsumer[T, A]{tree: tree, renderer: renderer}, nil
}

// Continually consumes WorkUnits submitted to a work channel producing corresponding content.png and tileset.json files
// continues working until work channel is closed or if an error is raised. In this last case submits the error to an error
// channel and discards the remaining work
func (c *StandardConsumer[T, A]) Consume(workchan chan *WorkUnit[T, A], errchan chan error, waitGroup *sync.WaitGroup) {
	for {
		work, ok := <-workchan
		if !ok {
			break
		}

		if err := c.doWork(work); err != nil {
			errchan <- err
			glog.Errorf("export of %s failed: %v", work.BasePath, err)
			break
		}
	}

	// keep the producer unblocked once this consumer gave up
	for range workchan {
	}
	waitGroup.Done()
}

// Takes a workunit and writes the corresponding content.png and tileset.json files
func (c *StandardConsumer[T, A]) doWork(workUnit *WorkUnit[T, A]) error {
	if err := tools.CreateDirectoryIfDoesNotExist(workUnit.BasePath); err != nil {
		return err
	}

	reader := c.tree.Reader()
	node, pos := reader.Load(workUnit.Node)
	data, _ := reader.Read(pos)

	if data.Tile != nil {
		img := c.renderer.Render(data.Tile)
		if err := datasets.WritePNG(path.Join(workUnit.BasePath, ContentFileName), img); err != nil {
			return err
		}
	}

	if isExportLeaf(node, workUnit) && workUnit.Level > 0 {
		return nil
	}
	return c.writeTilesetJsonFile(workUnit, node, data)
}

func isExportLeaf[T, A any](node storage.TileNode[T], workUnit *WorkUnit[T, A]) bool {
	return node.IsLeaf() || reachedExportDepth(workUnit.Opts, workUnit.Level)
}

// Writes the tileset.json file for the given WorkUnit
func (c *StandardConsumer[T, A]) writeTilesetJsonFile(workUnit *WorkUnit[T, A], node storage.TileNode[T], data storage.TileData[T, A]) error {
	jsonData, err := c.generateTilesetJson(workUnit, node, data)
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(workUnit.BasePath, TilesetFileName), jsonData, 0666)
}

// Generates the tileset.json content for the given tree node
func (c *StandardConsumer[T, A]) generateTilesetJson(workUnit *WorkUnit[T, A], node storage.TileNode[T], data storage.TileData[T, A]) ([]byte, error) {
	geometricError := c.geometricError(node.Bounds, data)
	root := Root{
		Content:        contentFor(data, ContentFileName),
		BoundingVolume: NewBoundingVolume(node.Bounds),
		GeometricError: geometricError,
		Refine:         "REPLACE",
		Children:       c.generateTilesetChildren(workUnit, node),
		Extras:         c.extras(data),
	}
	tileset := Tileset{
		Asset:          Asset{Version: "1.0"},
		GeometricError: geometricError,
		Root:           root,
	}
	return json.MarshalIndent(tileset, "", "\t")
}

func (c *StandardConsumer[T, A]) generateTilesetChildren(workUnit *WorkUnit[T, A], node storage.TileNode[T]) []Child {
	children := []Child{}
	if reachedExportDepth(workUnit.Opts, workUnit.Level) {
		return children
	}

	reader := c.tree.Reader()
	for i, pointer := range flattenChildren(node) {
		child, pos := reader.Load(pointer)
		data, _ := reader.Read(pos)

		filename := TilesetFileName
		if child.IsLeaf() || reachedExportDepth(workUnit.Opts, workUnit.Level+1) {
			filename = ContentFileName
			if data.Tile == nil {
				continue
			}
		}
		children = append(children, Child{
			Content:        &Content{Url: strconv.Itoa(i) + "/" + filename},
			BoundingVolume: NewBoundingVolume(child.Bounds),
			GeometricError: c.geometricError(child.Bounds, data),
			Refine:         "REPLACE",
			Extras:         c.extras(data),
		})
	}
	return children
}

func (c *StandardConsumer[T, A]) extras(data storage.TileData[T, A]) *Extras {
	if data.Aggregate == nil {
		return nil
	}
	return &Extras{Aggregate: c.tree.FormatAggregate(*data.Aggregate)}
}

func (c *StandardConsumer[T, A]) geometricError(bounds orb.Bound, data storage.TileData[T, A]) float64 {
	width := c.tree.Policy().TileSize()
	if len(data.Tile) > 0 {
		width = len(data.Tile[0])
	}
	return GeometricError(bounds, width)
}

// GeometricError is the ground size in meters of one pixel of a tile width pixels wide.
func GeometricError(bounds orb.Bound, width int) float64 {
	return (bounds.Max.X() - bounds.Min.X()) * metersPerDegree / float64(width)
}

func contentFor[T, A any](data storage.TileData[T, A], filename string) *Content {
	if data.Tile == nil {
		return nil
	}
	return &Content{Url: filename}
}

// NewBoundingVolume converts lon/lat bounds to a flat 3D Tiles region.
func NewBoundingVolume(bounds orb.Bound) BoundingVolume {
	return BoundingVolume{Region: []float64{
		toRadians(bounds.Min.X()),
		toRadians(bounds.Min.Y()),
		toRadians(bounds.Max.X()),
		toRadians(bounds.Max.Y()),
		0,
		0,
	}}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
