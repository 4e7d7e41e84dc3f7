// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestWorkflowAttributes(t *testing.T) {
	attrs := WorkflowAttributes("wf-123", "DATA_ANALYSIS", "analysis", 2)

	expected := map[string]any{
		AttrWorkflowID:      "wf-123",
		AttrWorkflowPattern: "DATA_ANALYSIS",
		AttrWorkflowPhase:   "analysis",
		AttrWorkflowStep:    2,
	}

	assertAttributes(t, attrs, expected)
}

func TestStageAttributes(t *testing.T) {
	attrs := StageAttributes("data_collection", "browser", 120.5, true)

	expected := map[string]any{
		AttrStageName:       "data_collection",
		AttrStageAgent:      "browser",
		AttrStageDurationMs: 120.5,
		AttrStageSuccess:    true,
	}

	assertAttributes(t, attrs, expected)
}

func TestAgentAttributes(t *testing.T) {
	attrs := AgentAttributes("planner-1", "planner", "llama3", "run-123")

	expected := map[string]any{
		AttrAgentID:    "planner-1",
		AttrAgentRunID: "run-123",
		AttrAgentRole:  "planner",
		AttrAgentModel: "llama3",
	}

	assertAttributes(t, attrs, expected)
}

func TestConversationAttributes(t *testing.T) {
	attrs := ConversationAttributes("ctx-123", true, 5, "window")

	expected := map[string]any{
		AttrConversationEnabled:  true,
		AttrContextID:            "ctx-123",
		AttrConversationMsgCount: 5,
		AttrConversationStrategy: "window",
	}

	assertAttributes(t, attrs, expected)
}

func TestMemoryAttributes(t *testing.T) {
	attrs := MemoryAttributes(true, "vector", 3, true)

	expected := map[string]any{
		AttrMemoryEnabled:   true,
		AttrMemoryType:      "vector",
		AttrMemoryRetrieved: 3,
		AttrMemoryStored:    true,
	}

	assertAttributes(t, attrs, expected)
}

func TestToolCallAttributes(t *testing.T) {
	attrs := ToolCallAttributes("fetch_market_data", "call-1", "mcp", 150.5, true)

	expected := map[string]any{
		AttrToolName:       "fetch_market_data",
		AttrToolCallID:     "call-1",
		AttrToolSource:     "mcp",
		AttrToolDurationMs: 150.5,
		AttrToolSuccess:    true,
	}

	assertAttributes(t, attrs, expected)
}

func TestToolCallArgsResult_Truncation(t *testing.T) {
	longArgs := string(make([]byte, 600))
	longResult := string(make([]byte, 700))

	attrs := ToolCallArgsResult(longArgs, longResult, 500)

	for _, attr := range attrs {
		val := attr.Value.AsString()
		if len(val) > 504 { // 500 + "..."
			t.Errorf("attribute %s not truncated: len=%d", attr.Key, len(val))
		}
	}
}

func TestLLMAttributes(t *testing.T) {
	attrs := LLMAttributes("llama3", "ollama", 5, 2)

	expected := map[string]any{
		AttrLLMModel:     "llama3",
		AttrLLMProvider:  "ollama",
		AttrLLMMessages:  5,
		AttrLLMToolCalls: 2,
	}

	assertAttributes(t, attrs, expected)
}

func TestLLMUsageAttributes(t *testing.T) {
	attrs := LLMUsageAttributes(100, 50, 1500.0, "stop")

	expected := map[string]any{
		AttrLLMTokensInput:  100,
		AttrLLMTokensOutput: 50,
		AttrLLMTokensTotal:  150,
		AttrLLMDurationMs:   1500.0,
		AttrLLMFinishReason: "stop",
	}

	assertAttributes(t, attrs, expected)
}

func assertAttributes(t *testing.T, attrs []attribute.KeyValue, expected map[string]any) {
	t.Helper()

	got := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		switch attr.Value.Type() {
		case attribute.STRING:
			got[string(attr.Key)] = attr.Value.AsString()
		case attribute.INT64:
			got[string(attr.Key)] = int(attr.Value.AsInt64())
		case attribute.FLOAT64:
			got[string(attr.Key)] = attr.Value.AsFloat64()
		case attribute.BOOL:
			got[string(attr.Key)] = attr.Value.AsBool()
		}
	}

	for key, want := range expected {
		if got[key] != want {
			t.Errorf("attribute %s: expected %v, got %v", key, want, got[key])
		}
	}
}
