// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// WorkflowMetrics tracks workflow runs, stage outcomes, and error patterns
// for production monitoring.
type WorkflowMetrics struct {
	// workflowCounter tracks finished runs by pattern and outcome
	workflowCounter metric.Int64Counter

	// stageCounter tracks stage invocations by stage, agent and outcome
	stageCounter metric.Int64Counter

	// stageDurationMs records stage invocation latency
	stageDurationMs metric.Float64Histogram

	// errorCounter tracks total errors by code and component
	errorCounter metric.Int64Counter

	// recoveryCounter tracks successful recoveries
	recoveryCounter metric.Int64Counter

	// healthStatusGauge tracks component health (0=unhealthy, 1=degraded, 2=healthy)
	healthStatusGauge metric.Int64Gauge

	// circuitBreakerStateGauge tracks circuit breaker state per component
	circuitBreakerStateGauge metric.Int64Gauge

	mu sync.RWMutex
}

// NewWorkflowMetrics creates a workflow metrics tracker with OTEL meters.
func NewWorkflowMetrics(ctx context.Context) (*WorkflowMetrics, error) {
	meter := otel.Meter("tradewind/workflow")

	workflowCounter, err := meter.Int64Counter(
		"tradewind.workflows.total",
		metric.WithDescription("Finished workflow runs by pattern and outcome"),
	)
	if err != nil {
		return nil, err
	}

	stageCounter, err := meter.Int64Counter(
		"tradewind.stages.total",
		metric.WithDescription("Stage invocations by stage, agent and outcome"),
	)
	if err != nil {
		return nil, err
	}

	stageDurationMs, err := meter.Float64Histogram(
		"tradewind.stage.duration_ms",
		metric.WithDescription("Stage invocation latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"tradewind.errors.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, err
	}

	recoveryCounter, err := meter.Int64Counter(
		"tradewind.errors.recovered",
		metric.WithDescription("Successful error recoveries by code"),
	)
	if err != nil {
		return nil, err
	}

	healthStatusGauge, err := meter.Int64Gauge(
		"tradewind.health.status",
		metric.WithDescription("Component health status (0=unhealthy, 1=degraded, 2=healthy)"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerStateGauge, err := meter.Int64Gauge(
		"tradewind.circuitbreaker.state",
		metric.WithDescription("Circuit breaker state per component (0=open, 1=half-open, 2=closed)"),
	)
	if err != nil {
		return nil, err
	}

	return &WorkflowMetrics{
		workflowCounter:          workflowCounter,
		stageCounter:             stageCounter,
		stageDurationMs:          stageDurationMs,
		errorCounter:             errorCounter,
		recoveryCounter:          recoveryCounter,
		healthStatusGauge:        healthStatusGauge,
		circuitBreakerStateGauge: circuitBreakerStateGauge,
	}, nil
}

// RecordWorkflow increments the run counter for the given pattern and outcome.
func (wm *WorkflowMetrics) RecordWorkflow(ctx context.Context, pattern string, succeeded bool) {
	if wm == nil {
		return
	}

	wm.mu.RLock()
	defer wm.mu.RUnlock()

	outcome := "completed"
	if !succeeded {
		outcome = "failed"
	}
	wm.workflowCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("workflow.pattern", pattern),
			attribute.String("workflow.outcome", outcome),
		),
	)
}

// RecordStage records one stage invocation outcome and its latency.
func (wm *WorkflowMetrics) RecordStage(ctx context.Context, stage, agent string, durationMs float64, succeeded bool) {
	if wm == nil {
		return
	}

	wm.mu.RLock()
	defer wm.mu.RUnlock()

	attrs := metric.WithAttributes(
		attribute.String("stage.name", stage),
		attribute.String("stage.agent", agent),
		attribute.Bool("stage.success", succeeded),
	)
	wm.stageCounter.Add(ctx, 1, attrs)
	wm.stageDurationMs.Record(ctx, durationMs, attrs)
}

// RecordErrorMetric increments the error counter for the given error and component.
func (wm *WorkflowMetrics) RecordErrorMetric(ctx context.Context, err error, component string) {
	if wm == nil || err == nil {
		return
	}

	wm.mu.RLock()
	defer wm.mu.RUnlock()

	if te, ok := err.(*errors.Error); ok {
		wm.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("error.code", string(te.Code)),
				attribute.String("component", component),
				attribute.String("recoverable", te.RecoverableString()),
			),
		)
	} else {
		wm.errorCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("error.code", "UNKNOWN"),
				attribute.String("component", component),
				attribute.String("recoverable", "unknown"),
			),
		)
	}
}

// RecordRecovery increments the recovery counter for the given error code.
// Called when an error is successfully handled (retry succeeded, fallback used).
func (wm *WorkflowMetrics) RecordRecovery(ctx context.Context, errorCode errors.ErrorCode) {
	if wm == nil {
		return
	}

	wm.mu.RLock()
	defer wm.mu.RUnlock()

	wm.recoveryCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error.code", string(errorCode)),
		),
	)
}

// RecordHealthStatus records the health status of a component (0=unhealthy, 1=degraded, 2=healthy).
func (wm *WorkflowMetrics) RecordHealthStatus(ctx context.Context, component string, status int64) {
	if wm == nil {
		return
	}

	wm.mu.RLock()
	defer wm.mu.RUnlock()

	wm.healthStatusGauge.Record(ctx, status,
		metric.WithAttributes(
			attribute.String("component", component),
		),
	)
}

// RecordCircuitBreakerState records the circuit breaker state (0=open, 1=half-open, 2=closed).
func (wm *WorkflowMetrics) RecordCircuitBreakerState(ctx context.Context, component string, state int64) {
	if wm == nil {
		return
	}

	wm.mu.RLock()
	defer wm.mu.RUnlock()

	wm.circuitBreakerStateGauge.Record(ctx, state,
		metric.WithAttributes(
			attribute.String("component", component),
		),
	)
}
