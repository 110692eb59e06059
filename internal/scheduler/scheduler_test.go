package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	s := New()

	if s.tasks == nil {
		t.Error("tasks map is nil")
	}
	if s.running == nil {
		t.Error("running map is nil")
	}
	if s.started {
		t.Error("should not be started")
	}
}

func TestScheduler_Register(t *testing.T) {
	s := New()

	t.Run("valid task", func(t *testing.T) {
		task := IntervalTask("decay", "Decay tick", time.Minute, func(ctx context.Context) error { return nil })

		if err := s.Register(task); err != nil {
			t.Errorf("Register failed: %v", err)
		}
		if _, ok := s.tasks["decay"]; !ok {
			t.Error("task not found in scheduler")
		}
		if task.Timeout == 0 {
			t.Error("default timeout not set")
		}
		if !task.Enabled {
			t.Error("task should be enabled by default")
		}
		if task.NextRun == nil {
			t.Error("NextRun not calculated")
		}
	})

	t.Run("empty ID", func(t *testing.T) {
		task := &Task{Handler: func(ctx context.Context) error { return nil }, Interval: time.Minute}
		if err := s.Register(task); err == nil {
			t.Error("expected error for empty ID")
		}
	})

	t.Run("nil handler", func(t *testing.T) {
		task := &Task{ID: "bad", Interval: time.Minute}
		if err := s.Register(task); err == nil {
			t.Error("expected error for nil handler")
		}
	})

	t.Run("zero interval", func(t *testing.T) {
		task := &Task{ID: "bad", Handler: func(ctx context.Context) error { return nil }}
		if err := s.Register(task); err == nil {
			t.Error("expected error for zero interval")
		}
	})

	t.Run("custom timeout kept", func(t *testing.T) {
		task := IntervalTask("save", "Save", time.Minute, func(ctx context.Context) error { return nil })
		task.Timeout = 10 * time.Second

		if err := s.Register(task); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if task.Timeout != 10*time.Second {
			t.Error("custom timeout overwritten")
		}
	})
}

func TestScheduler_Unregister(t *testing.T) {
	s := New()
	s.Register(IntervalTask("decay", "Decay", time.Minute, func(ctx context.Context) error { return nil }))

	s.Unregister("decay")
	if _, ok := s.tasks["decay"]; ok {
		t.Error("task should be removed")
	}

	// Unregistering an unknown ID is a no-op.
	s.Unregister("nonexistent")
}

func TestScheduler_StartStop(t *testing.T) {
	s := New()

	if err := s.Start(); err != nil {
		t.Errorf("Start failed: %v", err)
	}
	if !s.started {
		t.Error("scheduler should be started")
	}
	if err := s.Start(); err == nil {
		t.Error("expected error when already started")
	}

	s.Stop()
	if s.started {
		t.Error("scheduler should be stopped")
	}

	// Stop when not started is a no-op.
	s.Stop()
}

func TestScheduler_RunNow(t *testing.T) {
	s := New()

	executed := make(chan struct{}, 1)
	s.Register(IntervalTask("decay", "Decay", time.Hour, func(ctx context.Context) error {
		executed <- struct{}{}
		return nil
	}))

	if err := s.RunNow("decay"); err != nil {
		t.Errorf("RunNow failed: %v", err)
	}
	select {
	case <-executed:
	default:
		t.Error("task not executed")
	}

	if err := s.RunNow("nonexistent"); err == nil {
		t.Error("expected error for nonexistent task")
	}
}

func TestScheduler_ExecuteTask_Error(t *testing.T) {
	s := New()
	task := IntervalTask("save", "Save", time.Minute, func(ctx context.Context) error {
		return errors.New("disk full")
	})
	s.Register(task)

	s.executeTask(context.Background(), task)

	if task.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", task.ErrorCount)
	}
	if task.LastError != "disk full" {
		t.Errorf("LastError = %v, want 'disk full'", task.LastError)
	}
	if task.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1", task.RunCount)
	}
}

func TestScheduler_ExecuteTask_Success(t *testing.T) {
	s := New()
	task := IntervalTask("save", "Save", time.Minute, func(ctx context.Context) error { return nil })
	s.Register(task)

	s.executeTask(context.Background(), task)

	if task.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", task.ErrorCount)
	}
	if task.LastError != "" {
		t.Error("LastError should be empty on success")
	}
	if task.LastRun == nil {
		t.Error("LastRun should be set")
	}
	if task.NextRun == nil {
		t.Error("NextRun should be recalculated")
	}
}

func TestScheduler_ListTasks(t *testing.T) {
	s := New()
	handler := func(ctx context.Context) error { return nil }

	s.Register(IntervalTask("decay", "Decay", time.Minute, handler))
	s.Register(IntervalTask("save", "Save", time.Minute, handler))

	if got := s.ListTasks(); len(got) != 2 {
		t.Errorf("got %d tasks, want 2", len(got))
	}
}

func TestScheduler_ListTasksReturnsCopies(t *testing.T) {
	s := New()
	task := IntervalTask("save", "Save", time.Minute, func(ctx context.Context) error { return nil })
	s.Register(task)

	listed := s.ListTasks()[0]
	if listed.RunCount != 0 || listed.LastRun != nil {
		t.Fatal("fresh task should have no run record")
	}

	// Runs after the snapshot must not show up in it.
	s.executeTask(context.Background(), task)
	if listed.RunCount != 0 || listed.LastRun != nil {
		t.Error("snapshot changed after a task run")
	}
	if got := s.ListTasks()[0]; got.RunCount != 1 {
		t.Errorf("fresh snapshot RunCount = %d, want 1", got.RunCount)
	}
}

func TestScheduler_GetStats(t *testing.T) {
	s := New()
	handler := func(ctx context.Context) error { return nil }
	s.Register(IntervalTask("decay", "Decay", time.Hour, handler))
	task := IntervalTask("save", "Save", time.Hour, handler)
	s.Register(task)
	s.executeTask(context.Background(), task)

	stats := s.GetStats()
	if stats.Started {
		t.Error("Started should be false before Start")
	}
	if stats.TotalTasks != 2 {
		t.Errorf("TotalTasks = %d, want 2", stats.TotalTasks)
	}
	if stats.TotalRuns != 1 {
		t.Errorf("TotalRuns = %d, want 1", stats.TotalRuns)
	}
}

func TestScheduler_TaskExecution_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := New()

	var count int32
	done := make(chan struct{})
	task := IntervalTask("tick", "Tick", 10*time.Millisecond, func(ctx context.Context) error {
		if atomic.AddInt32(&count, 1) >= 2 {
			select {
			case done <- struct{}{}:
			default:
			}
		}
		return nil
	})
	task.Timeout = time.Second
	s.Register(task)
	s.Start()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
	}

	s.Stop()

	if atomic.LoadInt32(&count) < 1 {
		t.Errorf("count = %d, expected at least 1 execution", count)
	}
}
