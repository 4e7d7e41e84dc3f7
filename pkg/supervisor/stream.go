// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/core"
)

// EventToStream translates one workflow event into an A2A stream response.
// Workflow completion and failure produce final status updates; everything
// else is a non-final working update carrying the event payload.
func EventToStream(event core.Event, taskID string) *types.StreamResponse {
	data := map[string]any{
		"event": string(event.Type),
		"stage": string(event.Stage),
	}
	for k, v := range event.Payload {
		data[k] = v
	}

	status := types.TaskStatus{
		State:     types.TaskStateWorking,
		Timestamp: event.Timestamp,
		Message: &types.Message{
			Role:      "agent",
			TaskID:    taskID,
			ContextID: event.WorkflowID,
			Parts:     []types.Part{types.DataPart(data)},
		},
	}

	final := false
	switch event.Type {
	case core.EventWorkflowCompleted:
		status.State = types.TaskStateCompleted
		final = true
	case core.EventWorkflowFailed:
		status.State = types.TaskStateFailed
		final = true
	}

	return &types.StreamResponse{
		StatusUpdate: &types.TaskStatusUpdateEvent{
			TaskID:    taskID,
			ContextID: event.WorkflowID,
			Status:    status,
			Final:     final,
		},
	}
}

// ChannelEmitter buffers workflow events for a streaming consumer.
type ChannelEmitter struct {
	mu     sync.Mutex
	ch     chan core.Event
	closed bool
}

// NewChannelEmitter creates an emitter with the given buffer size.
func NewChannelEmitter(buffer int) *ChannelEmitter {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelEmitter{ch: make(chan core.Event, buffer)}
}

// Emit implements core.EventEmitter. Events are dropped rather than blocking
// the dispatcher when the consumer falls behind.
func (e *ChannelEmitter) Emit(_ context.Context, event core.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.ch <- event:
	default:
	}
}

// Events returns the receive side of the emitter.
func (e *ChannelEmitter) Events() <-chan core.Event {
	return e.ch
}

// Close stops the emitter. Pending events remain readable.
func (e *ChannelEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}

// Drain collects events until the channel closes or the timeout elapses.
// Test helper for asserting event order.
func (e *ChannelEmitter) Drain(timeout time.Duration) []core.Event {
	var events []core.Event
	deadline := time.After(timeout)
	for {
		select {
		case event, ok := <-e.ch:
			if !ok {
				return events
			}
			events = append(events, event)
		case <-deadline:
			return events
		}
	}
}
