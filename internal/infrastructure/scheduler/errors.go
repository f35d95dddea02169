package scheduler

import "errors"

var (
	// ErrSchedulerRunning is returned when adding a task to a started scheduler
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrInvalidTask is returned for a task without name, function or schedule
	ErrInvalidTask = errors.New("invalid scheduled task")

	// ErrInvalidSchedule is returned for a daily schedule that cannot be parsed
	ErrInvalidSchedule = errors.New("invalid daily schedule")
)
