// Package async runs named tasks concurrently.
//
// Bulk operations fan out per-instance work (address waits, bootstraps,
// overlay applies) and need all of it to finish before reporting. These
// helpers start everything at once, wait for completion, and surface the
// first failure with the task's name attached.
package async

import (
	"context"
	"fmt"
)

// Task pairs a short name with the work it performs. The name appears in
// error messages, so it should identify the instance or resource involved.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel starts every task in its own goroutine and waits for all of
// them to finish. The first failure in completion order is returned wrapped
// with the task name; later failures are dropped.
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	type outcome struct {
		name string
		err  error
	}
	done := make(chan outcome, len(tasks))

	for _, task := range tasks {
		go func() {
			done <- outcome{name: task.Name, err: task.Func(ctx)}
		}()
	}

	var first error
	for range tasks {
		o := <-done
		if o.err != nil && first == nil {
			first = fmt.Errorf("%s: %w", o.name, o.err)
		}
	}
	return first
}
