// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"fmt"
	"testing"

	"github.com/tradewind-ai/tradewind/pkg/core"
)

func TestKeywordClassifier(t *testing.T) {
	classifier := NewKeywordClassifier()

	tests := []struct {
		instruction string
		want        core.WorkflowPattern
	}{
		{"collect today's market data", core.PatternDataOnly},
		{"collect and analyze market trends", core.PatternDataAnalysis},
		{"collect data, analyze, then execute trade", core.PatternFullWorkflow},
		{"buy 100 shares of AAPL", core.PatternFullWorkflow},
		{"evaluate sector performance", core.PatternDataAnalysis},
		{"fetch the latest prices", core.PatternDataOnly},
		// Ambiguous or empty input fails safe to the least-privileged pattern.
		{"do something", core.PatternDataOnly},
		{"", core.PatternDataOnly},
	}

	for _, tc := range tests {
		got := classifier.Classify(context.Background(), tc.instruction)
		if got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.instruction, got, tc.want)
		}
	}
}

type scriptedInvoker struct {
	answer string
	err    error
	calls  int
}

func (s *scriptedInvoker) Invoke(_ context.Context, _, _, _ string) (any, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

func TestPlannerClassifier_UsesPlannerAnswer(t *testing.T) {
	invoker := &scriptedInvoker{answer: "The pattern is FULL_WORKFLOW."}
	classifier := NewPlannerClassifier(invoker)

	got := classifier.Classify(context.Background(), "fetch prices")
	if got != core.PatternFullWorkflow {
		t.Fatalf("expected FULL_WORKFLOW from planner answer, got %s", got)
	}
	if invoker.calls != 1 {
		t.Fatalf("expected 1 planner call, got %d", invoker.calls)
	}
}

func TestPlannerClassifier_FallsBackOnError(t *testing.T) {
	invoker := &scriptedInvoker{err: fmt.Errorf("planner unreachable")}
	classifier := NewPlannerClassifier(invoker)

	got := classifier.Classify(context.Background(), "collect and analyze market trends")
	if got != core.PatternDataAnalysis {
		t.Fatalf("expected keyword fallback DATA_ANALYSIS, got %s", got)
	}
}

func TestPlannerClassifier_FallsBackOnUnparseableAnswer(t *testing.T) {
	invoker := &scriptedInvoker{answer: "I cannot decide."}
	classifier := NewPlannerClassifier(invoker)

	got := classifier.Classify(context.Background(), "fetch the latest prices")
	if got != core.PatternDataOnly {
		t.Fatalf("expected keyword fallback DATA_ONLY, got %s", got)
	}
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		text string
		want core.WorkflowPattern
		ok   bool
	}{
		{"DATA_ONLY", core.PatternDataOnly, true},
		{"answer: data_analysis", core.PatternDataAnalysis, true},
		{"FULL_WORKFLOW because trading is requested", core.PatternFullWorkflow, true},
		{"no idea", "", false},
	}

	for _, tc := range tests {
		got, ok := parsePattern(tc.text)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parsePattern(%q) = (%s, %v), want (%s, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}
