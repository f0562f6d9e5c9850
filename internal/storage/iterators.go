package storage

import (
	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/geometry"
)

// Hit is a node yielded by a region iteration.
type Hit[T, A any] struct {
	Bounds orb.Bound
	Level  int
	Leaf   bool
	TileData[T, A]
}

type Iterator[T, A any] interface {
	Next() (Hit[T, A], bool)
	NodesVisited() int
}

type frame[T any] struct {
	pointer Pointer[T]
	level   int
}

// walk is the stack shared by both iterators.
type walk[T, A any] struct {
	reader  Reader[T, A]
	region  geometry.Region
	stack   []frame[T]
	visited int
}

func newWalk[T, A any](reader Reader[T, A], region geometry.Region) walk[T, A] {
	return walk[T, A]{reader: reader, region: region, stack: []frame[T]{{pointer: Root[T]()}}}
}

func (w *walk[T, A]) pop() (TileNode[T], int, int, bool) {
	if len(w.stack) == 0 {
		return TileNode[T]{}, 0, 0, false
	}
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.visited++
	node, pos := w.reader.Load(top.pointer)
	return node, pos, top.level, true
}

func (w *walk[T, A]) push(node TileNode[T], level int) {
	for _, row := range node.Children {
		for _, child := range row {
			w.stack = append(w.stack, frame[T]{pointer: child, level: level + 1})
		}
	}
}

func (w *walk[T, A]) hit(node TileNode[T], pos, level int) Hit[T, A] {
	data, _ := w.reader.Read(pos)
	return Hit[T, A]{Bounds: node.Bounds, Level: level, Leaf: node.IsLeaf(), TileData: data}
}

func (w *walk[T, A]) NodesVisited() int {
	return w.visited
}

// ContainsIterator yields a node as soon as the region covers it, whatever its depth, and
// only descends into nodes the region partially overlaps.
type ContainsIterator[T, A any] struct {
	walk[T, A]
}

func (it *ContainsIterator[T, A]) Next() (Hit[T, A], bool) {
	for {
		node, pos, level, ok := it.pop()
		if !ok {
			return Hit[T, A]{}, false
		}
		if it.region.ContainsBound(node.Bounds) {
			return it.hit(node, pos, level), true
		}
		if it.region.IntersectsBound(node.Bounds) {
			it.push(node, level)
		}
	}
}

// NaiveIterator only yields covered leaves and descends into every overlapping node.
type NaiveIterator[T, A any] struct {
	walk[T, A]
}

func (it *NaiveIterator[T, A]) Next() (Hit[T, A], bool) {
	for {
		node, pos, level, ok := it.pop()
		if !ok {
			return Hit[T, A]{}, false
		}
		if node.IsLeaf() && it.region.ContainsBound(node.Bounds) {
			return it.hit(node, pos, level), true
		}
		if it.region.IntersectsBound(node.Bounds) {
			it.push(node, level)
		}
	}
}
