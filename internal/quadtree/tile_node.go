package quadtree

import "github.com/paulmach/orb"

// TileNode is a node of the tree under construction. It owns its tile, its aggregate and
// its children, laid out as rows of columns.
type TileNode[T, A any] struct {
	Bounds    orb.Bound
	Tile      [][]T
	Aggregate *A
	Children  [][]*TileNode[T, A]
}

func (n *TileNode[T, A]) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits n and all of its descendants depth first, parents before children.
// Returning false from fn skips the children of that node.
func (n *TileNode[T, A]) Walk(fn func(node *TileNode[T, A], level int) bool) {
	n.walk(fn, 0)
}

func (n *TileNode[T, A]) walk(fn func(node *TileNode[T, A], level int) bool, level int) {
	if !fn(n, level) {
		return
	}
	for _, row := range n.Children {
		for _, child := range row {
			if child != nil {
				child.walk(fn, level+1)
			}
		}
	}
}

// Depth returns the level of the deepest node, the root being level 0.
func (n *TileNode[T, A]) Depth() int {
	depth := 0
	n.Walk(func(_ *TileNode[T, A], level int) bool {
		if level > depth {
			depth = level
		}
		return true
	})
	return depth
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *TileNode[T, A]) Count() int {
	count := 0
	n.Walk(func(*TileNode[T, A], int) bool {
		count++
		return true
	})
	return count
}

// TileHeight and TileWidth report the dimensions of the stored tile, 0 when it is absent.
func (n *TileNode[T, A]) TileHeight() int {
	return len(n.Tile)
}

func (n *TileNode[T, A]) TileWidth() int {
	if len(n.Tile) == 0 {
		return 0
	}
	return len(n.Tile[0])
}
