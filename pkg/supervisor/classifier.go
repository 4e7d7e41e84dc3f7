// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor implements the workflow dispatcher and task state
// tracker: inbound requests are classified into one of three fixed workflow
// patterns and walked stage by stage against remote worker agents.
package supervisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/resilience"
)

// Classifier assigns exactly one workflow pattern to an instruction.
// Ambiguity resolves to DATA_ONLY, the least-privileged pattern.
type Classifier interface {
	Classify(ctx context.Context, instruction string) core.WorkflowPattern
}

// KeywordClassifier picks a pattern from deterministic keyword tables.
// The most privileged pattern whose keywords match wins; no match at all
// falls back to DATA_ONLY.
type KeywordClassifier struct {
	// TradingKeywords upgrade a request to FULL_WORKFLOW.
	TradingKeywords []string
	// AnalysisKeywords upgrade a request to DATA_ANALYSIS.
	AnalysisKeywords []string
}

// NewKeywordClassifier creates a classifier with the default keyword tables.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		TradingKeywords:  []string{"trade", "trading", "buy", "sell", "order", "execute"},
		AnalysisKeywords: []string{"analyze", "analysis", "trend", "insight", "evaluate", "compare"},
	}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(_ context.Context, instruction string) core.WorkflowPattern {
	text := strings.ToLower(instruction)

	if containsAny(text, c.TradingKeywords) {
		return core.PatternFullWorkflow
	}
	if containsAny(text, c.AnalysisKeywords) {
		return core.PatternDataAnalysis
	}
	return core.PatternDataOnly
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// PlannerClassifier consults the planner worker for a pattern decision and
// falls back to the keyword result on any failure or unparseable answer, so
// classification never blocks a run.
type PlannerClassifier struct {
	// Invoker reaches the planner worker.
	Invoker core.Invoker
	// Agent is the planner's logical name. Default "planner".
	Agent string
	// Keyword supplies the deterministic fallback result.
	Keyword *KeywordClassifier
}

// NewPlannerClassifier creates a planner-assisted classifier.
func NewPlannerClassifier(invoker core.Invoker) *PlannerClassifier {
	return &PlannerClassifier{
		Invoker: invoker,
		Agent:   "planner",
		Keyword: NewKeywordClassifier(),
	}
}

const classifyPrompt = "Classify this request into exactly one workflow pattern. " +
	"Answer with only one of: DATA_ONLY, DATA_ANALYSIS, FULL_WORKFLOW.\n\nRequest: %s"

// Classify implements Classifier.
func (c *PlannerClassifier) Classify(ctx context.Context, instruction string) core.WorkflowPattern {
	fallback := c.Keyword.Classify(ctx, instruction)

	answer, err := resilience.WithFallback(ctx, func() (any, error) {
		return c.Invoker.Invoke(ctx, c.Agent, fmt.Sprintf(classifyPrompt, instruction), "")
	}, &resilience.StaticFallback{Value: string(fallback)})
	if err != nil {
		return fallback
	}

	text, ok := answer.(string)
	if !ok {
		return fallback
	}
	if pattern, ok := parsePattern(text); ok {
		return pattern
	}
	return fallback
}

// parsePattern extracts a pattern name from free-form text. Checked
// most-specific first: DATA_ANALYSIS contains no other pattern name, but a
// verbose answer may name several.
func parsePattern(text string) (core.WorkflowPattern, bool) {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, string(core.PatternFullWorkflow)):
		return core.PatternFullWorkflow, true
	case strings.Contains(upper, string(core.PatternDataAnalysis)):
		return core.PatternDataAnalysis, true
	case strings.Contains(upper, string(core.PatternDataOnly)):
		return core.PatternDataOnly, true
	default:
		return "", false
	}
}
