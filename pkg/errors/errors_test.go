// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("connection refused")
	te := New(CodeStageFailure, "browser agent unreachable", cause)

	if te.Code != CodeStageFailure {
		t.Errorf("expected CodeStageFailure, got %v", te.Code)
	}
	if te.Message != "browser agent unreachable" {
		t.Errorf("unexpected message %q", te.Message)
	}
	if te.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !errors.Is(te, cause) {
		t.Errorf("expected errors.Is to work with wrapped error")
	}
}

func TestWithContext(t *testing.T) {
	te := New(CodeToolFailure, "tool failed", nil)
	te.WithContext("tool", "browser_navigate").
		WithContext("args", map[string]interface{}{"url": "https://example.com"})

	if te.Context["tool"] != "browser_navigate" {
		t.Errorf("expected context tool to be 'browser_navigate'")
	}
	if te.Context["args"] == nil {
		t.Errorf("expected context args to be set")
	}
}

func TestWithAttribute(t *testing.T) {
	te := New(CodeStageFailure, "stage failed", nil)
	te.WithAttribute("stage", "trading").
		WithAttribute("agent", "executor")

	if te.Attributes["stage"] != "trading" {
		t.Errorf("expected attribute stage")
	}
	if te.Attributes["agent"] != "executor" {
		t.Errorf("expected attribute agent")
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeInvalidInput, 400},
		{CodeUnknownWorkflow, 404},
		{CodeDuplicateWorkflow, 409},
		{CodeTimeout, 408},
		{CodePolicyDenied, 403},
		{CodeApprovalPending, 202},
		{CodeStageFailure, 500},
		{CodeInternal, 500},
	}
	for _, tt := range tests {
		if got := New(tt.code, "x", nil).StatusCode; got != tt.want {
			t.Errorf("%s: expected status %d, got %d", tt.code, tt.want, got)
		}
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}

	typed := New(CodeUnknownWorkflow, "no such workflow", nil)
	if AsError(typed) != typed {
		t.Fatalf("expected typed error passthrough")
	}

	wrapped := AsError(errors.New("plain"))
	if wrapped.Code != CodeInternal {
		t.Fatalf("expected plain errors wrapped as internal, got %s", wrapped.Code)
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(New(CodeTimeout, "slow", nil)) != CodeTimeout {
		t.Fatalf("expected CodeTimeout")
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Fatalf("expected CodeInternal for untyped error")
	}
}

func TestMarshalJSON(t *testing.T) {
	te := New(CodeStageFailure, "analysis failed", errors.New("timeout")).
		WithRecoverable(true)

	raw, err := json.Marshal(te)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if decoded["code"] != string(CodeStageFailure) {
		t.Errorf("expected code in JSON, got %v", decoded["code"])
	}
	if decoded["recoverable"] != true {
		t.Errorf("expected recoverable true in JSON")
	}
}
