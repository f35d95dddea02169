// Package scheduler runs the periodic maintenance of the print service:
// bridge re-checks and print history retention.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a named unit of periodic work. Exactly one of Interval and Daily
// selects when it runs.
type Task struct {
	Name     string
	Interval time.Duration
	Daily    *DailyTime
	Run      func(ctx context.Context) error
}

func (t Task) valid() bool {
	if t.Name == "" || t.Run == nil {
		return false
	}
	return (t.Interval > 0) != (t.Daily != nil)
}

// TaskStatus is the outcome of the last run of a task
type TaskStatus struct {
	Name      string     `json:"name"`
	Runs      int        `json:"runs"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Config holds scheduler configuration
type Config struct {
	// TaskTimeout bounds a single run
	TaskTimeout time.Duration
	// CheckInterval is how often daily tasks look at the clock
	CheckInterval time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		TaskTimeout:   5 * time.Minute,
		CheckInterval: time.Minute,
	}
}

// Scheduler runs each registered task on its own goroutine
type Scheduler struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	tasks     []Task
	status    map[string]*TaskStatus
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	defaults := DefaultConfig()
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = defaults.TaskTimeout
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = defaults.CheckInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config: config,
		logger: logger,
		now:    time.Now,
		status: make(map[string]*TaskStatus),
	}
}

// Add registers a task. Tasks cannot be added once the scheduler started.
func (s *Scheduler) Add(task Task) error {
	if !task.valid() {
		return ErrInvalidTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	s.tasks = append(s.tasks, task)
	s.status[task.Name] = &TaskStatus{Name: task.Name}
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, task := range tasks {
		s.wg.Add(1)
		if task.Daily != nil {
			go s.runDaily(ctx, task)
		} else {
			go s.runEvery(ctx, task)
		}
	}

	s.logger.Info("Scheduler started", zap.Int("tasks", len(tasks)))
	return nil
}

// Stop stops the scheduler and waits for running tasks
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Status returns the outcome of every task in registration order
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStatus, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *s.status[task.Name])
	}
	return out
}

// IsRunning reports whether the scheduler was started and not stopped
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) runEvery(ctx context.Context, task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, task)
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context, task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	var lastRunDate string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			today := now.Format("2006-01-02")
			if lastRunDate == today || !task.Daily.Matches(now) {
				continue
			}
			lastRunDate = today
			s.execute(ctx, task)
		}
	}
}

// execute runs task once under the task timeout and records the outcome
func (s *Scheduler) execute(ctx context.Context, task Task) {
	taskCtx, cancel := context.WithTimeout(ctx, s.config.TaskTimeout)
	defer cancel()

	started := s.now()
	err := task.Run(taskCtx)

	s.mu.Lock()
	st := s.status[task.Name]
	st.Runs++
	st.LastRunAt = &started
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled task failed", zap.String("task", task.Name), zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled task completed",
		zap.String("task", task.Name),
		zap.Duration("duration", s.now().Sub(started)),
	)
}
