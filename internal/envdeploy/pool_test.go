package envdeploy

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBoundedRunsAllTasksWhenNoneFail(t *testing.T) {
	var completed int32
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{Name: fmt.Sprintf("t%d", i), Run: func(ctx context.Context) error {
			atomic.AddInt32(&completed, 1)
			return nil
		}}
	}
	err := RunBounded(context.Background(), tasks, 2, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 10, completed)
}

func TestRunBoundedObservesMaxParallelismBound(t *testing.T) {
	var active, maxActive int32
	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = Task{Name: fmt.Sprintf("t%d", i), Run: func(ctx context.Context) error {
			cur := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if cur <= m || atomic.CompareAndSwapInt32(&maxActive, m, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return nil
		}}
	}
	err := RunBounded(context.Background(), tasks, 3, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, maxActive, int32(3))
}

func TestRunBoundedStopsLaunchingAfterFirstError(t *testing.T) {
	var started int32
	tasks := make([]Task, 10)
	tasks[0] = Task{Name: "failing", Run: func(ctx context.Context) error {
		atomic.AddInt32(&started, 1)
		return fmt.Errorf("boom")
	}}
	for i := 1; i < 10; i++ {
		tasks[i] = Task{Name: fmt.Sprintf("t%d", i), Run: func(ctx context.Context) error {
			atomic.AddInt32(&started, 1)
			time.Sleep(10 * time.Millisecond)
			return nil
		}}
	}
	err := RunBounded(context.Background(), tasks, 2, nil)
	require.Error(t, err)
	assert.Less(t, int(atomic.LoadInt32(&started)), 10)
}

func TestRunBoundedConvertsPanicToError(t *testing.T) {
	tasks := []Task{{Name: "panics", Run: func(ctx context.Context) error {
		panic("kaboom")
	}}}
	err := RunBounded(context.Background(), tasks, 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

type alwaysAbort struct{}

func (alwaysAbort) Aborted() bool { return true }

func TestRunBoundedHonoursAbortProbe(t *testing.T) {
	var started int32
	tasks := make([]Task, 5)
	for i := range tasks {
		tasks[i] = Task{Name: fmt.Sprintf("t%d", i), Run: func(ctx context.Context) error {
			atomic.AddInt32(&started, 1)
			return nil
		}}
	}
	err := RunBounded(context.Background(), tasks, 2, alwaysAbort{})
	require.NoError(t, err)
	assert.Zero(t, started)
}
