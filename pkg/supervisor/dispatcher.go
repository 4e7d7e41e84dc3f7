// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/errors"
	"github.com/tradewind-ai/tradewind/pkg/telemetry"
)

// DefaultStageAgents maps remote stages to the worker agent that serves them.
func DefaultStageAgents() map[core.Phase]string {
	return map[core.Phase]string{
		core.PhaseDataCollection: "browser",
		core.PhaseAnalysis:       "knowledge",
		core.PhaseTrading:        "executor",
	}
}

// Dispatcher walks a workflow pattern's fixed stage sequence, invoking the
// worker agent for each remote stage and recording progress in the tracker.
// Stages run strictly sequentially within one run; the dispatcher never
// retries a failed stage — retry policy belongs to the injected Invoker.
type Dispatcher struct {
	tracker    *Tracker
	invoker    core.Invoker
	classifier Classifier
	agents     map[core.Phase]string
	emitter    core.EventEmitter
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *telemetry.WorkflowMetrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClassifier replaces the default keyword classifier.
func WithClassifier(c Classifier) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.classifier = c
		}
	}
}

// WithStageAgents replaces the stage-to-agent mapping.
func WithStageAgents(agents map[core.Phase]string) DispatcherOption {
	return func(d *Dispatcher) {
		if agents != nil {
			d.agents = agents
		}
	}
}

// WithEventEmitter attaches an event emitter for run progress.
func WithEventEmitter(emitter core.EventEmitter) DispatcherOption {
	return func(d *Dispatcher) {
		if emitter != nil {
			d.emitter = emitter
		}
	}
}

// WithMetrics attaches workflow metrics. A nil tracker is tolerated; every
// recording method on WorkflowMetrics is nil-safe.
func WithMetrics(metrics *telemetry.WorkflowMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher over the given tracker and invoker.
func NewDispatcher(tracker *Tracker, invoker core.Invoker, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		tracker:    tracker,
		invoker:    invoker,
		classifier: NewKeywordClassifier(),
		agents:     DefaultStageAgents(),
		emitter:    core.NoopEventEmitter{},
		logger:     slog.Default(),
		tracer:     otel.Tracer("tradewind/supervisor"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one workflow run to completion or failure.
//
// Validation failures surface before any TaskState exists. A stage failure
// transitions the run to the failed phase, halts the sequence, and is
// returned alongside the partial WorkflowResult — earlier successful
// StageResults remain visible.
func (d *Dispatcher) Run(ctx context.Context, request core.WorkflowRequest) (core.WorkflowResult, error) {
	if err := request.Validate(); err != nil {
		return core.WorkflowResult{}, errors.New(errors.CodeInvalidInput, "invalid workflow request", err)
	}

	started := time.Now()
	pattern := d.classifier.Classify(ctx, request.Instruction)
	workflowID := request.ContextID
	ctx = core.WithWorkflowID(ctx, workflowID)

	ctx, span := d.tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(telemetry.WorkflowAttributes(workflowID, string(pattern), "", 0)...))
	defer span.End()

	if _, err := d.tracker.Create(workflowID, pattern); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return core.WorkflowResult{}, err
	}

	d.logger.InfoContext(ctx, "workflow started",
		"pattern", string(pattern))
	d.emitter.Emit(ctx, core.NewEvent(core.EventWorkflowStarted, workflowID, core.PhaseProcessInput, map[string]any{
		"pattern": string(pattern),
	}))

	stages := pattern.Stages()
	for _, stage := range stages[1:] { // process_input is the initial phase
		if err := ctx.Err(); err != nil {
			return d.fail(ctx, span, workflowID, stage, "", started,
				errors.New(errors.CodeTimeout, "workflow context canceled", err))
		}

		if !core.RemoteStage(stage) {
			if err := d.tracker.Advance(workflowID, stage, nil, ""); err != nil {
				return d.result(workflowID, started), err
			}
			continue
		}

		agent, ok := d.agents[stage]
		if !ok || agent == "" {
			return d.fail(ctx, span, workflowID, stage, "", started,
				errors.New(errors.CodeStageFailure, "no agent configured for stage", nil).
					WithContext("stage", string(stage)))
		}

		result, err := d.invokeStage(ctx, workflowID, stage, agent, request)
		if err != nil {
			if advErr := d.tracker.Advance(workflowID, core.PhaseFailed, &result, string(stage)+": "+result.Error); advErr != nil {
				return d.result(workflowID, started), advErr
			}
			return d.fail(ctx, span, workflowID, stage, agent, started,
				errors.New(errors.CodeStageFailure, "stage invocation failed", err).
					WithContext("stage", string(stage)).
					WithContext("agent", agent))
		}

		if err := d.tracker.Advance(workflowID, stage, &result, ""); err != nil {
			return d.result(workflowID, started), err
		}
	}

	d.logger.InfoContext(ctx, "workflow completed",
		"pattern", string(pattern),
		"elapsed", time.Since(started))
	d.emitter.Emit(ctx, core.NewEvent(core.EventWorkflowCompleted, workflowID, core.PhaseComplete, nil))
	d.metrics.RecordWorkflow(ctx, string(pattern), true)

	return d.result(workflowID, started), nil
}

// invokeStage issues one worker invocation and times it. The returned
// StageResult is populated for both outcomes.
func (d *Dispatcher) invokeStage(ctx context.Context, workflowID string, stage core.Phase, agent string, request core.WorkflowRequest) (core.StageResult, error) {
	ctx, span := d.tracer.Start(ctx, "workflow.stage",
		trace.WithAttributes(
			attribute.String(telemetry.AttrStageName, string(stage)),
			attribute.String(telemetry.AttrStageAgent, agent),
		))
	defer span.End()

	d.emitter.Emit(ctx, core.NewEvent(core.EventStageStarted, workflowID, stage, map[string]any{
		"agent": agent,
	}))

	stageStart := time.Now()
	payload, err := d.invoker.Invoke(ctx, agent, request.Instruction, request.ContextID)
	elapsed := time.Since(stageStart)

	result := core.StageResult{
		Stage:   stage,
		Agent:   agent,
		OK:      err == nil,
		Payload: payload,
		Elapsed: elapsed,
		EndedAt: time.Now().UTC(),
	}
	d.metrics.RecordStage(ctx, string(stage), agent, float64(elapsed.Milliseconds()), err == nil)
	if err != nil {
		result.Error = err.Error()
		span.SetStatus(codes.Error, err.Error())
		d.logger.ErrorContext(ctx, "stage failed",
			"stage", string(stage),
			"agent", agent,
			"error", err)
		d.emitter.Emit(ctx, core.NewEvent(core.EventStageFailed, workflowID, stage, map[string]any{
			"agent": agent,
			"error": err.Error(),
		}))
		return result, err
	}

	span.SetAttributes(telemetry.StageAttributes(string(stage), agent, float64(elapsed.Milliseconds()), true)...)
	d.logger.InfoContext(ctx, "stage completed",
		"stage", string(stage),
		"agent", agent,
		"elapsed", elapsed)
	d.emitter.Emit(ctx, core.NewEvent(core.EventStageCompleted, workflowID, stage, map[string]any{
		"agent": agent,
	}))
	return result, nil
}

// fail emits failure telemetry and returns the partial result with the error.
func (d *Dispatcher) fail(ctx context.Context, span trace.Span, workflowID string, stage core.Phase, agent string, started time.Time, failure *errors.Error) (core.WorkflowResult, error) {
	span.SetStatus(codes.Error, failure.Message)

	d.logger.ErrorContext(ctx, "workflow failed",
		"stage", string(stage),
		"error", failure)
	payload := map[string]any{"stage": string(stage), "error": failure.Message}
	if agent != "" {
		payload["agent"] = agent
	}
	d.emitter.Emit(ctx, core.NewEvent(core.EventWorkflowFailed, workflowID, stage, payload))
	d.metrics.RecordErrorMetric(ctx, failure, "supervisor")

	// The tracker may not hold a failed phase yet for pre-invocation
	// failures (missing agent, canceled context).
	if state, err := d.tracker.Get(workflowID); err == nil {
		d.metrics.RecordWorkflow(ctx, string(state.Pattern), false)
		if !state.Phase.IsTerminal() {
			_ = d.tracker.Advance(workflowID, core.PhaseFailed, nil, failure.Message)
		}
	}

	return d.result(workflowID, started), failure
}

// result snapshots the tracker into a WorkflowResult.
func (d *Dispatcher) result(workflowID string, started time.Time) core.WorkflowResult {
	state, err := d.tracker.Get(workflowID)
	if err != nil {
		return core.WorkflowResult{WorkflowID: workflowID, Phase: core.PhaseFailed, Elapsed: time.Since(started)}
	}
	return core.WorkflowResult{
		WorkflowID: state.WorkflowID,
		Pattern:    state.Pattern,
		Phase:      state.Phase,
		Results:    state.Results,
		Errors:     state.Errors,
		Elapsed:    time.Since(started),
	}
}

// Tracker exposes the injected tracker for status-polling surfaces.
func (d *Dispatcher) Tracker() *Tracker {
	return d.tracker
}
