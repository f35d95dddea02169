package bootstrap

import (
	"context"

	"github.com/nfce/danfe/internal/infrastructure/config"
	"github.com/nfce/danfe/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// MaintenanceService is the part of the print service run periodically
type MaintenanceService interface {
	CheckBridge(ctx context.Context) bool
	PurgeHistory(ctx context.Context, days int) error
}

// NewMaintenance builds the scheduler of the periodic bridge check and the
// daily history purge. Tasks whose setting is zero are not registered.
func NewMaintenance(cfg *config.Config, svc MaintenanceService, log *zap.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.NewScheduler(scheduler.Config{TaskTimeout: cfg.Scheduler.TaskTimeout}, log.Named("scheduler"))

	if interval := cfg.Scheduler.BridgeCheckInterval; interval > 0 {
		err := s.Add(scheduler.Task{
			Name:     "bridge-check",
			Interval: interval,
			Run: func(ctx context.Context) error {
				svc.CheckBridge(ctx)
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
	}

	if days := cfg.Database.RetentionDays; days > 0 && cfg.Database.Driver != "none" {
		at, err := scheduler.ParseDailySchedule(cfg.Scheduler.RetentionSchedule)
		if err != nil {
			return nil, err
		}
		err = s.Add(scheduler.Task{
			Name:  "history-retention",
			Daily: &at,
			Run: func(ctx context.Context) error {
				return svc.PurgeHistory(ctx, days)
			},
		})
		if err != nil {
			return nil, err
		}
		log.Info("Print history retention scheduled",
			zap.Int("retention_days", days),
			zap.Stringer("at", at),
		)
	}
	return s, nil
}
