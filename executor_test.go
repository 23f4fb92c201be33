package pathrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerExecutorMapEmpty(t *testing.T) {
	exe := NewWorkerExecutor(4)
	defer exe.Close()

	results, err := exe.Map(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWorkerExecutorResultsInSubmissionOrder(t *testing.T) {
	exe := NewWorkerExecutor(8)
	defer exe.Close()

	tasks := make([]Task, 20)
	for i := range tasks {
		i := i
		tasks[i] = func() (any, error) {
			// Stagger completion so later tasks tend to finish first.
			time.Sleep(time.Duration(20-i) * time.Millisecond)
			return i * 2, nil
		}
	}

	results, err := exe.Map(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i*2, r)
	}
}

func TestWorkerExecutorFirstFaultAbortsBatch(t *testing.T) {
	exe := NewWorkerExecutor(2)
	defer exe.Close()

	boom := errors.New("boom")
	var ran atomic.Int32

	tasks := []Task{
		func() (any, error) { ran.Add(1); return 1, nil },
		func() (any, error) { return nil, boom },
		func() (any, error) { ran.Add(1); return 3, nil },
	}

	results, err := exe.Map(context.Background(), tasks)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, results, "no partial results on failure")
}

func TestWorkerExecutorBoundsConcurrency(t *testing.T) {
	const workers = 3
	exe := NewWorkerExecutor(workers)
	defer exe.Close()

	var current, peak atomic.Int32
	var mu sync.Mutex

	tasks := make([]Task, 12)
	for i := range tasks {
		tasks[i] = func() (any, error) {
			n := current.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
			return nil, nil
		}
	}

	_, err := exe.Map(context.Background(), tasks)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestWorkerExecutorHonorsContextCancellation(t *testing.T) {
	exe := NewWorkerExecutor(1)
	defer exe.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task{func() (any, error) { return 1, nil }}
	_, err := exe.Map(ctx, tasks)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWorkerExecutorRejectsNilTask(t *testing.T) {
	exe := NewWorkerExecutor(2)
	defer exe.Close()

	_, err := exe.Map(context.Background(), []Task{nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil")
}

func TestExecutorClosedRejectsSubmission(t *testing.T) {
	tests := []struct {
		name string
		exe  Executor
	}{
		{name: "worker pool", exe: NewWorkerExecutor(2)},
		{name: "serial", exe: NewSerialExecutor()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.exe.Close())

			_, err := tt.exe.Map(context.Background(), []Task{
				func() (any, error) { return nil, nil },
			})
			require.ErrorIs(t, err, ErrExecutorClosed)
		})
	}
}

func TestSerialExecutorRunsInOrder(t *testing.T) {
	exe := NewSerialExecutor()
	defer exe.Close()

	var order []int
	tasks := make([]Task, 5)
	for i := range tasks {
		i := i
		tasks[i] = func() (any, error) {
			order = append(order, i)
			return i, nil
		}
	}

	results, err := exe.Map(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	require.Len(t, results, 5)
	assert.Equal(t, 4, results[4])
}

func TestSerialExecutorStopsAtFirstFault(t *testing.T) {
	exe := NewSerialExecutor()
	defer exe.Close()

	boom := errors.New("boom")
	var ran int

	tasks := []Task{
		func() (any, error) { ran++; return nil, nil },
		func() (any, error) { return nil, boom },
		func() (any, error) { ran++; return nil, nil },
	}

	results, err := exe.Map(context.Background(), tasks)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, results)
	assert.Equal(t, 1, ran, "tasks after the fault must not run")
}
