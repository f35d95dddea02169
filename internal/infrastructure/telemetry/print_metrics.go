package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrAction  = attribute.Key("action")
	AttrOutcome = attribute.Key("outcome")
	AttrPrinter = attribute.Key("printer")
)

// Outcome values for AttrOutcome
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// PrintActionBuckets are bucket boundaries for print action duration (seconds).
var PrintActionBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// PrintMetrics counts print actions and tracks the QZ Tray bridge readiness
type PrintMetrics struct {
	actionsTotal   *Counter
	actionDuration *Histogram
	bridgeReady    *Gauge
}

// NewPrintMetrics registers the print instruments on meter
func NewPrintMetrics(meter metric.Meter) (*PrintMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	actions, err := NewCounter(meter,
		"danfe_print_actions_total",
		"Total number of print actions by action and outcome",
		"{actions}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter,
		"danfe_print_action_duration_seconds",
		"Duration of print actions from lock acquisition to disconnect",
		"s",
		PrintActionBuckets,
	)
	if err != nil {
		return nil, err
	}

	ready, err := NewGauge(meter,
		"danfe_bridge_ready",
		"1 when the QZ Tray bridge answered the last presence check",
		"{bool}",
	)
	if err != nil {
		return nil, err
	}

	return &PrintMetrics{
		actionsTotal:   actions,
		actionDuration: duration,
		bridgeReady:    ready,
	}, nil
}

// RecordAction records one finished print action
func (m *PrintMetrics) RecordAction(ctx context.Context, action, printer string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	attrs := []attribute.KeyValue{
		AttrAction.String(action),
		AttrOutcome.String(outcome),
		AttrPrinter.String(printer),
	}
	m.actionsTotal.Inc(ctx, attrs...)
	m.actionDuration.RecordDuration(ctx, d, attrs...)
}

// SetBridgeReady records the result of a bridge presence check
func (m *PrintMetrics) SetBridgeReady(ctx context.Context, ready bool) {
	if m == nil {
		return
	}
	var v int64
	if ready {
		v = 1
	}
	m.bridgeReady.Record(ctx, v)
}
