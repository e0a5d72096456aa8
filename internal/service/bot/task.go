package bot

import (
	"context"
	"sync"
)

// Task is a move search running in the background. It can be polled with
// TryTakeResult from an event loop or waited on.
type Task struct {
	done   chan struct{}
	once   sync.Once
	result Result
	err    error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) finish(res Result, err error) {
	t.once.Do(func() {
		t.result = res
		t.err = err
		close(t.done)
	})
}

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// TryTakeResult returns immediately. ready is false while the search is
// still running.
func (t *Task) TryTakeResult() (res Result, ready bool, err error) {
	select {
	case <-t.done:
		return t.result, true, t.err
	default:
		return Result{}, false, nil
	}
}

// Wait blocks until the search finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
