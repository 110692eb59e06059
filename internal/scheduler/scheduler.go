// Package scheduler drives the engine's periodic maintenance: decay
// ticks, coalesced saves and storage pruning. Tasks run on fixed
// intervals, each in its own goroutine, with per-run timeouts.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ASaxcs/bot2/internal/logging"
)

// TaskHandler is the function executed for a task.
type TaskHandler func(ctx context.Context) error

// Task is one recurring maintenance job.
type Task struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Interval   time.Duration `json:"interval"`
	Handler    TaskHandler   `json:"-"`
	Enabled    bool          `json:"enabled"`
	LastRun    *time.Time    `json:"last_run,omitempty"`
	NextRun    *time.Time    `json:"next_run,omitempty"`
	RunCount   int64         `json:"run_count"`
	ErrorCount int64         `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Timeout    time.Duration `json:"timeout"`
}

// IntervalTask builds a task that runs every interval.
func IntervalTask(id, name string, interval time.Duration, handler TaskHandler) *Task {
	return &Task{
		ID:       id,
		Name:     name,
		Interval: interval,
		Handler:  handler,
	}
}

// Scheduler owns the maintenance task loops.
type Scheduler struct {
	tasks   map[string]*Task
	running map[string]context.CancelFunc
	mu      sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	log     *logging.Logger
}

// New creates an empty scheduler.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:   make(map[string]*Task),
		running: make(map[string]context.CancelFunc),
		ctx:     ctx,
		cancel:  cancel,
		log:     logging.Component("scheduler"),
	}
}

// Register adds a task. Registering while started launches it.
func (s *Scheduler) Register(task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	if task.Handler == nil {
		return fmt.Errorf("task %s: handler is required", task.ID)
	}
	if task.Interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive", task.ID)
	}
	if task.Timeout == 0 {
		task.Timeout = time.Minute
	}
	task.Enabled = true
	next := time.Now().Add(task.Interval)
	task.NextRun = &next

	s.tasks[task.ID] = task
	if s.started {
		s.startTask(task)
	}
	return nil
}

// Unregister stops and removes a task.
func (s *Scheduler) Unregister(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.running[taskID]; ok {
		cancel()
		delete(s.running, taskID)
	}
	delete(s.tasks, taskID)
}

// Start launches every enabled task loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	for _, task := range s.tasks {
		if task.Enabled {
			s.startTask(task)
		}
	}
	s.log.Info("started with %d tasks", len(s.tasks))
	return nil
}

// Stop cancels every task loop and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	for _, cancel := range s.running {
		cancel()
	}
	s.running = make(map[string]context.CancelFunc)
	s.started = false
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	s.wg.Wait()
	s.log.Info("stopped")
}

func (s *Scheduler) startTask(task *Task) {
	taskCtx, cancel := context.WithCancel(s.ctx)
	s.running[task.ID] = cancel

	s.wg.Add(1)
	go s.runLoop(taskCtx, task)
}

func (s *Scheduler) runLoop(ctx context.Context, task *Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.executeTask(ctx, task)
		}
	}
}

func (s *Scheduler) executeTask(ctx context.Context, task *Task) {
	execCtx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	now := time.Now()
	s.mu.Lock()
	task.LastRun = &now
	task.RunCount++
	s.mu.Unlock()

	err := task.Handler(execCtx)

	s.mu.Lock()
	if err != nil {
		task.ErrorCount++
		task.LastError = err.Error()
		s.log.Warn("task %s failed: %v", task.ID, err)
	} else {
		task.LastError = ""
	}
	next := time.Now().Add(task.Interval)
	task.NextRun = &next
	s.mu.Unlock()
}

// RunNow executes a task immediately, outside its normal cadence.
func (s *Scheduler) RunNow(taskID string) error {
	s.mu.RLock()
	task, ok := s.tasks[taskID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("task not found: %s", taskID)
	}
	s.executeTask(s.ctx, task)
	return nil
}

// ListTasks returns a snapshot of all registered tasks. The copies are
// safe to read while the run loops keep updating the originals.
func (s *Scheduler) ListTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		snap := *task
		if task.LastRun != nil {
			last := *task.LastRun
			snap.LastRun = &last
		}
		if task.NextRun != nil {
			next := *task.NextRun
			snap.NextRun = &next
		}
		tasks = append(tasks, snap)
	}
	return tasks
}

// Stats summarizes scheduler activity.
type Stats struct {
	Started     bool  `json:"started"`
	TotalTasks  int   `json:"total_tasks"`
	TotalRuns   int64 `json:"total_runs"`
	TotalErrors int64 `json:"total_errors"`
}

// GetStats returns scheduler statistics.
func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:    s.started,
		TotalTasks: len(s.tasks),
	}
	for _, task := range s.tasks {
		stats.TotalRuns += task.RunCount
		stats.TotalErrors += task.ErrorCount
	}
	return stats
}
