package io

import (
	"path"
	"strconv"
	"sync"

	"github.com/ecopia-map/raster_tiler/internal/storage"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
)

type StandardProducer[T, A any] struct {
	basePath string
	options  *tiler.TilerOptions
	tree     *storage.GeoTree[T, A]
}

func NewStandardProducer[T, A any](basepath string, subfolder string, tree *storage.GeoTree[T, A], options *tiler.TilerOptions) *StandardProducer[T, A] {
	return &StandardProducer[T, A]{
		basePath: path.Join(basepath, subfolder),
		options:  options,
		tree:     tree,
	}
}

// Walks the tree from the root and submits WorkUnits to the provided workchannel.
// Closes the channel when all work is submitted.
func (p *StandardProducer[T, A]) Produce(work chan *WorkUnit[T, A], wg *sync.WaitGroup) {
	p.produce(p.basePath, storage.Root[T](), 0, work)
	close(work)
	wg.Done()
}

func (p *StandardProducer[T, A]) produce(basePath string, node storage.Pointer[T], level int, work chan *WorkUnit[T, A]) {
	work <- &WorkUnit[T, A]{
		Node:     node,
		Level:    level,
		BasePath: basePath,
		Opts:     p.options,
	}

	if reachedExportDepth(p.options, level) {
		return
	}
	header, _ := p.tree.Reader().Load(node)
	for i, child := range flattenChildren(header) {
		p.produce(path.Join(basePath, strconv.Itoa(i)), child, level+1, work)
	}
}

// children in row-major order, matching the folder numbering
func flattenChildren[T any](node storage.TileNode[T]) []storage.Pointer[T] {
	var out []storage.Pointer[T]
	for _, row := range node.Children {
		out = append(out, row...)
	}
	return out
}

func reachedExportDepth(options *tiler.TilerOptions, level int) bool {
	if options == nil || options.TilerExportOptions == nil {
		return false
	}
	maxLevel := options.TilerExportOptions.MaxLevel
	return maxLevel >= 0 && level >= maxLevel
}
