// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/core"
)

func TestEventToStream(t *testing.T) {
	tests := []struct {
		name      string
		eventType core.EventType
		wantState types.TaskState
		wantFinal bool
	}{
		{"stage started", core.EventStageStarted, types.TaskStateWorking, false},
		{"stage completed", core.EventStageCompleted, types.TaskStateWorking, false},
		{"workflow completed", core.EventWorkflowCompleted, types.TaskStateCompleted, true},
		{"workflow failed", core.EventWorkflowFailed, types.TaskStateFailed, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event := core.NewEvent(tc.eventType, "wf-1", core.PhaseAnalysis, map[string]any{
				"agent": "knowledge",
			})

			resp := EventToStream(event, "task-1")
			update := resp.StatusUpdate
			if update == nil {
				t.Fatal("expected a status update")
			}
			if update.TaskID != "task-1" || update.ContextID != "wf-1" {
				t.Errorf("unexpected ids: %+v", update)
			}
			if update.Status.State != tc.wantState {
				t.Errorf("state = %s, want %s", update.Status.State, tc.wantState)
			}
			if update.Final != tc.wantFinal {
				t.Errorf("final = %v, want %v", update.Final, tc.wantFinal)
			}

			data := update.Status.Message.Data()
			if data["event"] != string(tc.eventType) {
				t.Errorf("event field = %v, want %s", data["event"], tc.eventType)
			}
			if data["stage"] != string(core.PhaseAnalysis) {
				t.Errorf("stage field = %v", data["stage"])
			}
			if data["agent"] != "knowledge" {
				t.Errorf("payload not carried through: %v", data)
			}
		})
	}
}

func TestChannelEmitterDropsWhenFull(t *testing.T) {
	emitter := NewChannelEmitter(1)
	ctx := context.Background()

	emitter.Emit(ctx, core.NewEvent(core.EventStageStarted, "wf-1", core.PhaseDataCollection, nil))
	emitter.Emit(ctx, core.NewEvent(core.EventStageCompleted, "wf-1", core.PhaseDataCollection, nil))
	emitter.Close()

	events := emitter.Drain(time.Second)
	if len(events) != 1 {
		t.Fatalf("expected 1 buffered event, got %d", len(events))
	}
	if events[0].Type != core.EventStageStarted {
		t.Errorf("expected the first event kept, got %s", events[0].Type)
	}
}

func TestChannelEmitterEmitAfterClose(t *testing.T) {
	emitter := NewChannelEmitter(4)
	emitter.Close()
	emitter.Close() // idempotent

	// Must not panic on a closed channel.
	emitter.Emit(context.Background(), core.NewEvent(core.EventStageStarted, "wf-1", core.PhaseDataCollection, nil))

	if events := emitter.Drain(time.Second); len(events) != 0 {
		t.Errorf("expected no events after close, got %d", len(events))
	}
}
