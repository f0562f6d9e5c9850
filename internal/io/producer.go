package io

import (
	"sync"
)

type Producer[T, A any] interface {
	Produce(work chan *WorkUnit[T, A], wg *sync.WaitGroup)
}
