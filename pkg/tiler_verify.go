package pkg

import (
	"fmt"
	"time"

	"github.com/ecopia-map/raster_tiler/internal/geometry"
	"github.com/ecopia-map/raster_tiler/internal/storage"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
	"github.com/ecopia-map/raster_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/raster_tiler/tools"
)

// TilerVerify checks that pruned region iteration agrees with the leaf-level baseline.
type TilerVerify struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTilerVerify(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &TilerVerify{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

type IterationReport struct {
	Hits         int    `json:"hits"`
	NodesVisited int    `json:"nodes_visited"`
	Aggregate    string `json:"aggregate,omitempty"`
	Duration     string `json:"duration"`
}

type CompareReport struct {
	Tree     string          `json:"tree"`
	Contains IterationReport `json:"contains"`
	Naive    IterationReport `json:"naive"`
	Agree    bool            `json:"agree"`
}

func (tilerVerify *TilerVerify) RunTiler(opts *tiler.TilerOptions) error {
	defer tilerVerify.algorithmManager.GetCoordinateConverterAlgorithm().Cleanup()

	switch opts.Dataset {
	case tiler.Population:
		return runVerify(tilerVerify, opts, populationHandle)
	case tiler.LightPollution:
		return runVerify(tilerVerify, opts, lightPollutionHandle)
	case tiler.EarthMap:
		return runVerify(tilerVerify, opts, earthMapHandle)
	case tiler.CountGrid:
		return runVerify(tilerVerify, opts, countGridHandle)
	}
	return fmt.Errorf("unknown dataset %q", opts.Dataset)
}

func runVerify[T, A any](tilerVerify *TilerVerify, opts *tiler.TilerOptions, handle datasetHandle[T, A]) error {
	shape := tilerVerify.algorithmManager.GetShape()
	treePaths, err := prepareTrees(tilerVerify.fileFinder, opts, handle, shape)
	if err != nil {
		return err
	}

	for _, treePath := range treePaths {
		err := withTree(treePath, handle.policy(shape), func(tree *storage.GeoTree[T, A]) error {
			region, err := queryRegion(opts, tilerVerify.algorithmManager.GetCoordinateConverterAlgorithm(), tree.Bounds())
			if err != nil {
				return err
			}
			report := CompareIterators(tree, region)
			report.Tree = treePath
			fmt.Println(tools.FmtJSONIndent(report))
			if !report.Agree {
				tools.LogOutput("> aggregates differ for", treePath)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// CompareIterators folds region with both iterators. Aggregates are compared in their printed
// form so float sums reduced in a different order still agree.
func CompareIterators[T, A any](tree *storage.GeoTree[T, A], region geometry.Region) CompareReport {
	contains := measure(tree, tree.Contains(region))
	naive := measure(tree, tree.Naive(region))
	return CompareReport{
		Contains: contains,
		Naive:    naive,
		Agree:    contains.Aggregate == naive.Aggregate,
	}
}

func measure[T, A any](tree *storage.GeoTree[T, A], it storage.Iterator[T, A]) IterationReport {
	start := time.Now()
	counted := &countingIterator[T, A]{Iterator: it}
	aggregate, ok := tree.Fold(counted)
	report := IterationReport{
		Hits:         counted.hits,
		NodesVisited: it.NodesVisited(),
		Duration:     time.Since(start).String(),
	}
	if ok {
		report.Aggregate = tree.FormatAggregate(aggregate)
	}
	return report
}

type countingIterator[T, A any] struct {
	storage.Iterator[T, A]
	hits int
}

func (c *countingIterator[T, A]) Next() (storage.Hit[T, A], bool) {
	hit, ok := c.Iterator.Next()
	if ok {
		c.hits++
	}
	return hit, ok
}
