package storage

import "github.com/paulmach/orb"

// Pointer is the byte offset of a node header within a tree file. The type parameter only
// records which pixel type the file holds; on disk it is a bare word.
type Pointer[T any] struct {
	Position uint
}

// Root is where every tree file starts.
func Root[T any]() Pointer[T] {
	return Pointer[T]{}
}

// TileNode is the header of a serialized node: its bounds and where its children live.
// Children aliases the file bytes.
type TileNode[T any] struct {
	Bounds   orb.Bound
	Children [][]Pointer[T]
}

func (n TileNode[T]) IsLeaf() bool {
	return len(n.Children) == 0
}

// TileData is the payload stored right after a header. Both fields alias the file bytes and
// are nil when absent.
type TileData[T, A any] struct {
	Aggregate *A
	Tile      [][]T
}
