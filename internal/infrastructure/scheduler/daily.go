package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DailyTime is a local wall clock time at which a task runs once per day
type DailyTime struct {
	Hour   int
	Minute int
}

// ParseDailySchedule reads the minute and hour fields of a cron expression
// such as "30 3 * * *". The remaining fields are ignored. An empty
// expression selects 03:00.
func ParseDailySchedule(expr string) (DailyTime, error) {
	at := DailyTime{Hour: 3}
	parts := strings.Fields(expr)
	if len(parts) == 0 {
		return at, nil
	}
	if len(parts) < 2 {
		return DailyTime{}, fmt.Errorf("%w: %q needs minute and hour fields", ErrInvalidSchedule, expr)
	}

	var err error
	if at.Minute, err = parseField(parts[0], 0, 59); err != nil {
		return DailyTime{}, fmt.Errorf("%w: minute: %v", ErrInvalidSchedule, err)
	}
	if at.Hour, err = parseField(parts[1], 0, 23); err != nil {
		return DailyTime{}, fmt.Errorf("%w: hour: %v", ErrInvalidSchedule, err)
	}
	return at, nil
}

func parseField(s string, lo, hi int) (int, error) {
	if s == "*" {
		return lo, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("must be %d-%d, got %d", lo, hi, v)
	}
	return v, nil
}

// Matches reports whether now falls in the scheduled minute
func (d DailyTime) Matches(now time.Time) bool {
	return now.Hour() == d.Hour && now.Minute() == d.Minute
}

// Next returns the first scheduled time strictly after now
func (d DailyTime) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, d.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (d DailyTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}
