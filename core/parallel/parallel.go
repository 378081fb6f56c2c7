// Package parallel runs independent learners side by side.
//
// Each task owns its own optimizer and model; nothing here shares state
// between tasks, so a single learner is still driven by one goroutine.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

// Parallelize divides items into contiguous ranges, one per worker (at most
// runtime.NumCPU()), and calls fn(start, end) for each range concurrently.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ForEach calls fn(i) for i in [0, items) using Parallelize and returns the
// error of the lowest failing index. A panicking task is reported as a
// PanicError instead of crashing the process.
func ForEach(items int, fn func(i int) error) error {
	if items <= 0 {
		return nil
	}

	errs := make([]error, items)
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			i := i
			errs[i] = errors.SafeExecute("parallel.ForEach", func() error {
				return fn(i)
			})
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
