package io

import (
	"github.com/ecopia-map/raster_tiler/internal/storage"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
)

// Contains the minimal data needed to export a single tree node, i.e. a content.png file and,
// for inner nodes, a tileset.json file
type WorkUnit[T, A any] struct {
	Node     storage.Pointer[T]
	Level    int
	Opts     *tiler.TilerOptions
	BasePath string
}
