// Package fanout runs N independent fallible operations concurrently and
// joins on all of them, accepting partial success. An individual failure
// never cancels siblings and never fails the group; callers inspect each
// slot's result. This is the single concurrency primitive behind the label
// section fetches and the adverse-event statistic queries.
package fanout

import (
	"context"
	"sync"
	"time"
)

// Task is one named fallible operation.
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Result is the outcome of one task, in the same slot as its task.
type Result[T any] struct {
	Name  string
	Value T
	Err   error
}

// Collect runs all tasks concurrently and returns their results in task
// order. Each task gets its own context derived from ctx, bounded by
// perCallTimeout when it is positive; ctx itself carries the overall request
// deadline. Completion order does not affect the returned slice.
func Collect[T any](ctx context.Context, perCallTimeout time.Duration, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t Task[T]) {
			defer wg.Done()

			callCtx := ctx
			if perCallTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, perCallTimeout)
				defer cancel()
			}

			v, err := t.Run(callCtx)
			results[idx] = Result[T]{Name: t.Name, Value: v, Err: err}
		}(i, task)
	}
	wg.Wait()

	return results
}

// Succeeded returns the number of results with a nil error.
func Succeeded[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}
