// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"sort"
	"sync"
	"time"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// Tracker holds the authoritative TaskState record per workflow run. The
// dispatcher is the sole writer for a given workflow id; status polls read
// snapshots and never block an in-flight mutation. Injected into the
// dispatcher rather than held as ambient global state.
type Tracker struct {
	mu   sync.RWMutex
	runs map[string]*core.TaskState
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{runs: make(map[string]*core.TaskState)}
}

// Create initializes tracking for a workflow run at process_input, step 0.
// Fails with DUPLICATE_WORKFLOW if the id is already tracked.
func (t *Tracker) Create(workflowID string, pattern core.WorkflowPattern) (*core.TaskState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.runs[workflowID]; exists {
		return nil, errors.New(errors.CodeDuplicateWorkflow, "workflow already tracked", nil).
			WithContext("workflow_id", workflowID)
	}

	state := core.NewTaskState(workflowID, pattern)
	t.runs[workflowID] = state
	return state.Clone(), nil
}

// Advance atomically moves a run to a new phase, appending the stage outcome
// when present. Fails with UNKNOWN_WORKFLOW for untracked ids and rejects
// transitions out of terminal phases.
func (t *Tracker) Advance(workflowID string, phase core.Phase, result *core.StageResult, stageErr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.runs[workflowID]
	if !ok {
		return errors.New(errors.CodeUnknownWorkflow, "workflow not tracked", nil).
			WithContext("workflow_id", workflowID)
	}

	if state.Phase.IsTerminal() {
		return errors.New(errors.CodeInvalidInput, "workflow is in a terminal phase", nil).
			WithContext("workflow_id", workflowID).
			WithContext("phase", string(state.Phase))
	}

	state.Phase = phase
	state.Step++
	if result != nil {
		state.Results = append(state.Results, *result)
	}
	if stageErr != "" {
		state.Errors = append(state.Errors, stageErr)
	}
	state.UpdatedAt = time.Now().UTC()
	return nil
}

// Get returns a read-only snapshot of a run's state. Fails with
// UNKNOWN_WORKFLOW for untracked ids.
func (t *Tracker) Get(workflowID string) (*core.TaskState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state, ok := t.runs[workflowID]
	if !ok {
		return nil, errors.New(errors.CodeUnknownWorkflow, "workflow not tracked", nil).
			WithContext("workflow_id", workflowID)
	}
	return state.Clone(), nil
}

// List returns all tracked workflow ids.
func (t *Tracker) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.runs))
	for id := range t.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Delete removes tracking for a workflow run.
func (t *Tracker) Delete(workflowID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.runs, workflowID)
}
