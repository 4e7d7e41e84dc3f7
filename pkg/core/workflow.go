package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkflowPattern selects one of the fixed stage sequences for a run.
type WorkflowPattern string

const (
	PatternDataOnly     WorkflowPattern = "DATA_ONLY"
	PatternDataAnalysis WorkflowPattern = "DATA_ANALYSIS"
	PatternFullWorkflow WorkflowPattern = "FULL_WORKFLOW"
)

// Phase describes where a workflow run currently is.
type Phase string

const (
	PhaseProcessInput   Phase = "process_input"
	PhaseDataCollection Phase = "data_collection"
	PhaseAnalysis       Phase = "analysis"
	PhaseTrading        Phase = "trading"
	PhaseComplete       Phase = "complete"
	PhaseFailed         Phase = "failed"
)

// IsTerminal reports whether no further transition is permitted.
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// Stages returns the fixed stage sequence for the pattern, in execution order.
// process_input and complete are local bookkeeping stages; the rest invoke a
// worker agent.
func (p WorkflowPattern) Stages() []Phase {
	switch p {
	case PatternDataAnalysis:
		return []Phase{PhaseProcessInput, PhaseDataCollection, PhaseAnalysis, PhaseComplete}
	case PatternFullWorkflow:
		return []Phase{PhaseProcessInput, PhaseDataCollection, PhaseAnalysis, PhaseTrading, PhaseComplete}
	default:
		return []Phase{PhaseProcessInput, PhaseDataCollection, PhaseComplete}
	}
}

// RemoteStage reports whether the phase requires a worker agent invocation.
func RemoteStage(p Phase) bool {
	switch p {
	case PhaseDataCollection, PhaseAnalysis, PhaseTrading:
		return true
	default:
		return false
	}
}

// WorkflowRequest is the inbound user request. It is immutable after creation
// and owned by the dispatcher for the duration of one run.
type WorkflowRequest struct {
	Instruction string
	ContextID   string
}

// NewWorkflowRequest creates a request, generating a context id when absent.
func NewWorkflowRequest(instruction, contextID string) WorkflowRequest {
	if contextID == "" {
		contextID = uuid.NewString()
	}
	return WorkflowRequest{Instruction: instruction, ContextID: contextID}
}

// Validate rejects empty or whitespace-only instructions.
func (r WorkflowRequest) Validate() error {
	if strings.TrimSpace(r.Instruction) == "" {
		return ErrEmptyInstruction
	}
	return nil
}

// StageResult records the outcome of one stage invocation. It is never
// mutated after creation.
type StageResult struct {
	Stage    Phase
	Agent    string
	OK       bool
	Payload  any
	Error    string
	Elapsed  time.Duration
	EndedAt  time.Time
}

// TaskState is the authoritative mutable record of one workflow run. The
// dispatcher is the sole writer; status polls read snapshots.
type TaskState struct {
	WorkflowID string
	Pattern    WorkflowPattern
	Phase      Phase
	Step       int
	Results    []StageResult
	Errors     []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewTaskState initializes a run record at process_input, step zero.
func NewTaskState(workflowID string, pattern WorkflowPattern) *TaskState {
	now := time.Now().UTC()
	return &TaskState{
		WorkflowID: workflowID,
		Pattern:    pattern,
		Phase:      PhaseProcessInput,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy safe to hand to readers.
func (s *TaskState) Clone() *TaskState {
	if s == nil {
		return nil
	}
	out := *s
	out.Results = append([]StageResult(nil), s.Results...)
	out.Errors = append([]string(nil), s.Errors...)
	return &out
}

// WorkflowResult summarizes a finished run for the caller.
type WorkflowResult struct {
	WorkflowID string
	Pattern    WorkflowPattern
	Phase      Phase
	Results    []StageResult
	Errors     []string
	Elapsed    time.Duration
}

// Succeeded reports whether the run reached the complete phase.
func (r WorkflowResult) Succeeded() bool {
	return r.Phase == PhaseComplete
}
