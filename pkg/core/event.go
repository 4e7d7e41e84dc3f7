package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted during a workflow run.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow.started"
	EventStageStarted      EventType = "workflow.stage.started"
	EventStageCompleted    EventType = "workflow.stage.completed"
	EventStageFailed       EventType = "workflow.stage.failed"
	EventWorkflowCompleted EventType = "workflow.completed"
	EventWorkflowFailed    EventType = "workflow.failed"
)

// Event captures a semantic streaming/logging event.
type Event struct {
	Type       EventType
	WorkflowID string
	Stage      Phase
	Timestamp  time.Time
	Payload    map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// NewEvent builds a default event with timestamp.
func NewEvent(eventType EventType, workflowID string, stage Phase, payload map[string]any) Event {
	return Event{
		Type:       eventType,
		WorkflowID: workflowID,
		Stage:      stage,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}
