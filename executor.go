package pathrunner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Task is a single unit of work: the caller's function applied to one
// path, with the path already bound. Tasks must be independent of each
// other and must not share mutable state with the caller; everything a
// task needs is captured by value when it is built.
type Task func() (any, error)

// Executor runs a batch of independent tasks and returns their results
// in submission order. Implementations communicate with tasks through
// message passing only.
type Executor interface {
	// Map runs every task and returns the results in submission order.
	// The first task failure aborts the batch: Map returns that error
	// and no results.
	Map(ctx context.Context, tasks []Task) ([]any, error)

	// Close releases the executor. Map calls after Close fail with
	// ErrExecutorClosed.
	Close() error
}

// ExecutorFactory produces a fresh Executor for a single run. The
// runner acquires one executor per Run call and closes it before
// returning, on every exit path.
type ExecutorFactory func() Executor

// DefaultExecutorFactory returns a worker-pool executor sized to the
// number of CPUs.
func DefaultExecutorFactory() Executor {
	return NewWorkerExecutor(runtime.NumCPU())
}

// workerExecutor fans tasks out to a bounded pool of worker goroutines.
// Workers receive a task and report through a result channel; they never
// touch caller state directly.
type workerExecutor struct {
	workers int
	closed  atomic.Bool
}

// NewWorkerExecutor creates an Executor running up to workers tasks
// concurrently. If workers is <= 0, concurrency is bounded only by the
// size of the task batch.
func NewWorkerExecutor(workers int) Executor {
	return &workerExecutor{workers: workers}
}

type taskResult struct {
	index int
	value any
	err   error
}

// Map implements Executor.
func (e *workerExecutor) Map(ctx context.Context, tasks []Task) ([]any, error) {
	if e.closed.Load() {
		return nil, ErrExecutorClosed
	}
	for i, task := range tasks {
		if task == nil {
			return nil, fmt.Errorf("cannot submit task %d: task is nil", i)
		}
	}
	if len(tasks) == 0 {
		return []any{}, nil
	}

	workers := e.workers
	if workers <= 0 || workers > len(tasks) {
		workers = len(tasks)
	}

	// Cancelled once the first task fails, so queued tasks stop
	// launching. Already-running tasks are not interrupted; their
	// results are dropped.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	semaphore := make(chan struct{}, workers)
	resultsCh := make(chan taskResult, len(tasks))

	var wg sync.WaitGroup
	var launchErr error

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			launchErr = err
			break
		}

		// Check context again while acquiring the semaphore to avoid
		// blocking on a cancelled context.
		select {
		case <-ctx.Done():
			launchErr = ctx.Err()
		case semaphore <- struct{}{}:
		}
		if launchErr != nil {
			break
		}

		wg.Add(1)
		go func(index int, task Task) {
			defer wg.Done()
			defer func() { <-semaphore }()

			value, err := task()
			select {
			case resultsCh <- taskResult{index: index, value: value, err: err}:
			case <-ctx.Done():
			}
		}(i, task)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	results := make([]any, len(tasks))
	var execErr error
	for result := range resultsCh {
		results[result.index] = result.value
		if result.err != nil && execErr == nil {
			execErr = result.err
			cancel()
		}
	}

	if execErr == nil {
		execErr = launchErr
	}
	if execErr != nil {
		return nil, execErr
	}
	return results, nil
}

// Close implements Executor.
func (e *workerExecutor) Close() error {
	e.closed.Store(true)
	return nil
}

// serialExecutor runs tasks inline on the calling goroutine, in order.
// Useful for tests and for callers that want deterministic execution
// without pool scheduling.
type serialExecutor struct {
	closed atomic.Bool
}

// NewSerialExecutor creates an Executor that runs tasks one at a time on
// the calling goroutine.
func NewSerialExecutor() Executor {
	return &serialExecutor{}
}

// Map implements Executor.
func (e *serialExecutor) Map(ctx context.Context, tasks []Task) ([]any, error) {
	if e.closed.Load() {
		return nil, ErrExecutorClosed
	}

	results := make([]any, len(tasks))
	for i, task := range tasks {
		if task == nil {
			return nil, fmt.Errorf("cannot submit task %d: task is nil", i)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value, err := task()
		if err != nil {
			return nil, err
		}
		results[i] = value
	}
	return results, nil
}

// Close implements Executor.
func (e *serialExecutor) Close() error {
	e.closed.Store(true)
	return nil
}
