package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db and flags slow print history
// queries on their spans. It is a no-op when tracing is disabled.
func RegisterDBTracing(db *gorm.DB, enabled bool, dbSystem string, logger *zap.Logger) error {
	if !enabled {
		return nil
	}

	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markSlowQuery(tx, defaultSlowQueryThreshold) }

	cb := db.Callback()
	steps := []struct {
		name string
		err  error
	}{
		{"create", cb.Create().Before("gorm:create").Register("danfe_timing:before_create", before)},
		{"query", cb.Query().Before("gorm:query").Register("danfe_timing:before_query", before)},
		{"update", cb.Update().Before("gorm:update").Register("danfe_timing:before_update", before)},
		{"delete", cb.Delete().Before("gorm:delete").Register("danfe_timing:before_delete", before)},
		{"create", cb.Create().After("gorm:create").Register("danfe_slow_query:create", after)},
		{"query", cb.Query().After("gorm:query").Register("danfe_slow_query:query", after)},
		{"update", cb.Update().After("gorm:update").Register("danfe_slow_query:update", after)},
		{"delete", cb.Delete().After("gorm:delete").Register("danfe_slow_query:delete", after)},
	}
	for _, s := range steps {
		if s.err != nil {
			return s.err
		}
	}

	logger.Info("Database tracing enabled", zap.String("db_system", dbSystem))
	return nil
}

func markSlowQuery(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		RecordError(span, tx.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
