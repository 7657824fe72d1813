package async

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunParallelAllSucceed(t *testing.T) {
	var count atomic.Int32

	tasks := []Task{
		{Name: "one", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
		{Name: "two", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
		{Name: "three", Func: func(_ context.Context) error {
			count.Add(1)
			return nil
		}},
	}

	if err := RunParallel(context.Background(), tasks); err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
	if count.Load() != 3 {
		t.Errorf("expected 3 tasks to run, got %d", count.Load())
	}
}

func TestRunParallelNoTasks(t *testing.T) {
	if err := RunParallel(context.Background(), nil); err != nil {
		t.Errorf("expected no error for nil tasks, got: %v", err)
	}
	if err := RunParallel(context.Background(), []Task{}); err != nil {
		t.Errorf("expected no error for empty slice, got: %v", err)
	}
}

func TestRunParallelNamesFailure(t *testing.T) {
	cause := errors.New("boom")

	tasks := []Task{
		{Name: "healthy", Func: func(_ context.Context) error {
			return nil
		}},
		{Name: "tf2-03", Func: func(_ context.Context) error {
			return cause
		}},
	}

	err := RunParallel(context.Background(), tasks)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected error to wrap %v, got: %v", cause, err)
	}
	if !strings.Contains(err.Error(), "tf2-03") {
		t.Errorf("expected task name in error, got: %v", err)
	}
}

func TestRunParallelWaitsForSlowTasks(t *testing.T) {
	var finished atomic.Int32

	tasks := []Task{
		{Name: "fast", Func: func(_ context.Context) error {
			finished.Add(1)
			return errors.New("fast failure")
		}},
		{Name: "slow", Func: func(_ context.Context) error {
			time.Sleep(50 * time.Millisecond)
			finished.Add(1)
			return nil
		}},
	}

	err := RunParallel(context.Background(), tasks)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// The slow task must have completed before RunParallel returned.
	if finished.Load() != 2 {
		t.Errorf("expected both tasks to finish, got %d", finished.Load())
	}
}

func TestRunParallelKeepsFirstError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	tasks := []Task{
		{Name: "early", Func: func(_ context.Context) error {
			return first
		}},
		{Name: "late", Func: func(_ context.Context) error {
			time.Sleep(30 * time.Millisecond)
			return second
		}},
	}

	err := RunParallel(context.Background(), tasks)
	if !errors.Is(err, first) {
		t.Errorf("expected the first completed failure, got: %v", err)
	}
	if errors.Is(err, second) {
		t.Errorf("later failure should be dropped, got: %v", err)
	}
}
