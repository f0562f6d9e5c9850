package pkg

import (
	"errors"
	"runtime"
	"sync"

	"github.com/golang/glog"

	"github.com/ecopia-map/raster_tiler/internal/io"
	"github.com/ecopia-map/raster_tiler/internal/storage"
	"github.com/ecopia-map/raster_tiler/internal/tiler"
)

// Exports the tiles of the given tree as content.png images indexed by tileset.json files,
// according to the options specified in the TilerOptions instance
func exportTreeAsTileset[T, A any](opts *tiler.TilerOptions, tree *storage.GeoTree[T, A], subfolder string) error {
	if opts.TilerExportOptions == nil {
		return errors.New("export options missing")
	}

	// a consumer goroutine per CPU
	numConsumers := runtime.NumCPU()

	// init channel where to submit work with a buffer 5 times greater than the number of consumer
	workChannel := make(chan *io.WorkUnit[T, A], numConsumers*5)

	// init channel where consumers can eventually submit errors that prevented them to finish the job
	errorChannel := make(chan error, numConsumers)

	var waitGroup sync.WaitGroup

	consumers := make([]*io.StandardConsumer[T, A], numConsumers)
	for i := range consumers {
		consumer, err := io.NewStandardConsumer(tree)
		if err != nil {
			return err
		}
		consumers[i] = consumer
	}

	// add producer to waitgroup and launch producer goroutine
	waitGroup.Add(1)
	producer := io.NewStandardProducer(opts.TilerExportOptions.Output, subfolder, tree, opts)
	go producer.Produce(workChannel, &waitGroup)

	// add consumers to waitgroup and launch them
	for _, consumer := range consumers {
		waitGroup.Add(1)
		go consumer.Consume(workChannel, errorChannel, &waitGroup)
	}

	waitGroup.Wait()
	close(errorChannel)

	var errs []error
	for err := range errorChannel {
		glog.Errorln(err)
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{errors.New("errors raised during export")}, errs...)...)
	}
	return nil
}
