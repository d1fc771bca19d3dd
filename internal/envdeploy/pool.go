// Package envdeploy implements the environment deployment engine from
// spec §4.5: a bounded-concurrency worker pool driving six service kinds
// plus their associated routers through Create/Pause/Delete/Restart.
package envdeploy

import (
	"context"
	"fmt"
	"sync"
)

// AbortProbe is polled between task dispatches; once it reports true no
// further tasks are launched, mirroring the environment task's own
// abort-probe poll between macro-steps.
type AbortProbe interface {
	Aborted() bool
}

type noAbort struct{}

func (noAbort) Aborted() bool { return false }

// NoAbort never signals abort.
var NoAbort AbortProbe = noAbort{}

// Task is one unit of work submitted to the pool.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunBounded launches tasks with at most max(parallelism,1) running
// concurrently. It keeps only the first error observed (later ones are
// discarded), stops launching new tasks once an error or abort is seen,
// lets already-running tasks run to completion, and converts panics in
// any task to an error rather than crashing the pool.
func RunBounded(ctx context.Context, tasks []Task, parallelism int, abort AbortProbe) error {
	if abort == nil {
		abort = NoAbort
	}
	max := parallelism
	if max < 1 {
		max = 1
	}

	sem := make(chan struct{}, max)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	stopped := false

	for _, task := range tasks {
		sem <- struct{}{}
		mu.Lock()
		stop := stopped || firstErr != nil || abort.Aborted()
		mu.Unlock()
		if stop {
			<-sem
			break
		}

		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			defer func() { <-sem }()
			err := runRecovered(ctx, t)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("task %q: %w", t.Name, err)
				}
				stopped = true
				mu.Unlock()
			}
		}(task)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}

func runRecovered(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Run(ctx)
}
