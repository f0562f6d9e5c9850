package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"unsafe"

	"github.com/golang/glog"
	"github.com/paulmach/orb"

	"github.com/ecopia-map/raster_tiler/internal/codec"
	"github.com/ecopia-map/raster_tiler/internal/quadtree"
	"github.com/ecopia-map/raster_tiler/tools"
)

var ErrMissingChild = errors.New("storage: tree has a nil child")

const writeBufferSize = 1 << 20

type pendingNode[T, A any] struct {
	node *quadtree.TileNode[T, A]
	path string
}

// Serialize writes the tree rooted at root to w and returns the number of bytes written.
//
// Nodes are laid out breadth first with the root at offset 0. A first pass over the tree
// writes to io.Discard to learn the offset of every node, keyed by its path from the root;
// the second pass writes the same bytes for real with the children offsets filled in.
func Serialize[T, A any](w io.Writer, root *quadtree.TileNode[T, A]) (int, error) {
	if err := codec.CheckPlain[T](); err != nil {
		return 0, err
	}
	if err := codec.CheckPlain[A](); err != nil {
		return 0, err
	}

	offsets := make(map[string]uint)
	counting := codec.NewAlignedWriter(io.Discard)
	err := breadthFirst(root, func(n pendingNode[T, A]) error {
		offsets[n.path] = uint(nodeStart(counting.Position()))
		return writeNode(counting, n, func(string) uint { return 0 })
	})
	if err != nil {
		return 0, err
	}

	out := codec.NewAlignedWriter(w)
	err = breadthFirst(root, func(n pendingNode[T, A]) error {
		if start := uint(nodeStart(out.Position())); start != offsets[n.path] {
			return fmt.Errorf("storage: node %q written at %d, planned at %d", n.path, start, offsets[n.path])
		}
		return writeNode(out, n, func(path string) uint { return offsets[path] })
	})
	if err != nil {
		return out.Position(), err
	}

	glog.V(1).Infof("serialized %d nodes in %d bytes", len(offsets), out.Position())
	return out.Position(), nil
}

// nodeStart is where a header written at pos really begins, once bounds are aligned.
func nodeStart(pos int) int {
	return pos + codec.Padding(pos, int(unsafe.Alignof(orb.Bound{})))
}

func childPath(parent string, row, col int) string {
	return parent + "/" + strconv.Itoa(row) + "," + strconv.Itoa(col)
}

func breadthFirst[T, A any](root *quadtree.TileNode[T, A], fn func(pendingNode[T, A]) error) error {
	queue := []pendingNode[T, A]{{node: root}}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if err := fn(current); err != nil {
			return err
		}
		for r, row := range current.node.Children {
			for c, child := range row {
				if child == nil {
					return fmt.Errorf("%w at %s", ErrMissingChild, childPath(current.path, r, c))
				}
				queue = append(queue, pendingNode[T, A]{node: child, path: childPath(current.path, r, c)})
			}
		}
	}
	return nil
}

func writeNode[T, A any](w *codec.AlignedWriter, n pendingNode[T, A], offsetOf func(path string) uint) error {
	node := n.node
	if err := codec.Write(w, node.Bounds); err != nil {
		return err
	}

	if err := codec.WriteLen(w, len(node.Children)); err != nil {
		return err
	}
	for r, row := range node.Children {
		pointers := make([]Pointer[T], len(row))
		for c := range row {
			pointers[c] = Pointer[T]{Position: offsetOf(childPath(n.path, r, c))}
		}
		if err := codec.WriteRow(w, pointers); err != nil {
			return err
		}
	}

	if err := codec.WriteFlag(w, node.Aggregate != nil); err != nil {
		return err
	}
	if node.Aggregate != nil {
		if err := codec.Write(w, *node.Aggregate); err != nil {
			return err
		}
	}

	if err := codec.WriteFlag(w, node.Tile != nil); err != nil {
		return err
	}
	if node.Tile != nil {
		return codec.WriteRows(w, node.Tile)
	}
	return nil
}

// WriteToFile serializes the tree to path. An existing file is left alone and reported by a
// false return. The file only appears at path once it has been completely written.
func WriteToFile[T, A any](root *quadtree.TileNode[T, A], path string) (bool, error) {
	if tools.FileExists(path) {
		glog.Warningf("%s already exists, skipping serialization", path)
		return false, nil
	}
	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(path)); err != nil {
		return false, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	buffered := bufio.NewWriterSize(tmp, writeBufferSize)
	var size int
	if size, err = Serialize(buffered, root); err != nil {
		return false, err
	}
	if err = buffered.Flush(); err != nil {
		return false, err
	}
	if err = tmp.Sync(); err != nil {
		return false, err
	}
	if err = tmp.Close(); err != nil {
		return false, err
	}
	var published bool
	if published, err = publish(tmp.Name(), path); err != nil || !published {
		return false, err
	}

	glog.Infof("wrote %s (%d bytes)", path, size)
	return true, nil
}

// publish hard links the finished file at tmp to path. Unlike a rename it fails rather than
// replacing a file created at path since the existence check.
func publish(tmp, path string) (bool, error) {
	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			glog.Warningf("%s appeared while serializing, keeping it", path)
			return false, nil
		}
		return false, err
	}
	return true, nil
}
