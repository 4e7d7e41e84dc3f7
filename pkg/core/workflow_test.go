package core

import "testing"

func TestPatternStages(t *testing.T) {
	tests := []struct {
		pattern WorkflowPattern
		want    []Phase
	}{
		{PatternDataOnly, []Phase{PhaseProcessInput, PhaseDataCollection, PhaseComplete}},
		{PatternDataAnalysis, []Phase{PhaseProcessInput, PhaseDataCollection, PhaseAnalysis, PhaseComplete}},
		{PatternFullWorkflow, []Phase{PhaseProcessInput, PhaseDataCollection, PhaseAnalysis, PhaseTrading, PhaseComplete}},
	}
	for _, tt := range tests {
		got := tt.pattern.Stages()
		if len(got) != len(tt.want) {
			t.Fatalf("%s: expected %d stages, got %d", tt.pattern, len(tt.want), len(got))
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("%s: stage %d expected %s, got %s", tt.pattern, i, tt.want[i], got[i])
			}
		}
	}
}

func TestRequestValidate(t *testing.T) {
	if err := NewWorkflowRequest("collect today's market data", "").Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := NewWorkflowRequest("   ", "").Validate(); err == nil {
		t.Fatalf("expected validation error for blank instruction")
	}
}

func TestNewWorkflowRequestGeneratesContextID(t *testing.T) {
	req := NewWorkflowRequest("x", "")
	if req.ContextID == "" {
		t.Fatalf("expected generated context id")
	}
	req = NewWorkflowRequest("x", "ctx-1")
	if req.ContextID != "ctx-1" {
		t.Fatalf("expected context id preserved, got %q", req.ContextID)
	}
}

func TestTaskStateClone(t *testing.T) {
	state := NewTaskState("wf-1", PatternDataOnly)
	if state.Phase != PhaseProcessInput || state.Step != 0 {
		t.Fatalf("expected fresh state at process_input step 0")
	}
	state.Results = append(state.Results, StageResult{Stage: PhaseDataCollection, OK: true})

	snapshot := state.Clone()
	snapshot.Results[0].OK = false
	snapshot.Errors = append(snapshot.Errors, "boom")

	if !state.Results[0].OK {
		t.Fatalf("clone mutation leaked into original results")
	}
	if len(state.Errors) != 0 {
		t.Fatalf("clone mutation leaked into original errors")
	}
}

func TestTerminalPhases(t *testing.T) {
	for _, p := range []Phase{PhaseComplete, PhaseFailed} {
		if !p.IsTerminal() {
			t.Fatalf("%s should be terminal", p)
		}
	}
	for _, p := range []Phase{PhaseProcessInput, PhaseDataCollection, PhaseAnalysis, PhaseTrading} {
		if p.IsTerminal() {
			t.Fatalf("%s should not be terminal", p)
		}
	}
}
