// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration with rich attributes
// for workflow and agent observability.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for tradewind telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Workflow attributes
	AttrWorkflowID      = "tradewind.workflow.id"
	AttrWorkflowPattern = "tradewind.workflow.pattern"
	AttrWorkflowPhase   = "tradewind.workflow.phase"
	AttrWorkflowStep    = "tradewind.workflow.step"

	// Stage attributes
	AttrStageName       = "tradewind.stage.name"
	AttrStageAgent      = "tradewind.stage.agent"
	AttrStageDurationMs = "tradewind.stage.duration_ms"
	AttrStageSuccess    = "tradewind.stage.success"

	// Agent attributes
	AttrAgentID    = "tradewind.agent.id"
	AttrAgentRole  = "tradewind.agent.role"
	AttrAgentModel = "tradewind.agent.model"
	AttrAgentRunID = "tradewind.agent.run_id"

	// Context/conversation attributes
	AttrContextID            = "tradewind.context.id"
	AttrConversationEnabled  = "tradewind.conversation.enabled"
	AttrConversationMsgCount = "tradewind.conversation.message_count"
	AttrConversationStrategy = "tradewind.conversation.truncation_strategy"

	// Memory attributes
	AttrMemoryEnabled   = "tradewind.memory.enabled"
	AttrMemoryType      = "tradewind.memory.type"
	AttrMemoryRetrieved = "tradewind.memory.retrieved_count"
	AttrMemoryStored    = "tradewind.memory.stored"

	// Tool attributes
	AttrToolName       = "tradewind.tool.name"
	AttrToolCallID     = "tradewind.tool.call_id"
	AttrToolArgs       = "tradewind.tool.arguments"
	AttrToolResult     = "tradewind.tool.result"
	AttrToolDurationMs = "tradewind.tool.duration_ms"
	AttrToolSuccess    = "tradewind.tool.success"
	AttrToolSource     = "tradewind.tool.source" // "local", "mcp"

	// LLM attributes (extending standard gen_ai conventions)
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMProvider     = "gen_ai.system"
	AttrLLMMessages     = "gen_ai.request.messages"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrLLMTokensTotal  = "gen_ai.usage.total_tokens"
	AttrLLMDurationMs   = "gen_ai.duration_ms"
	AttrLLMToolCalls    = "gen_ai.tool_calls"
	AttrLLMFinishReason = "gen_ai.finish_reason"

	// Task attributes (A2A surface)
	AttrTaskID     = "tradewind.task.id"
	AttrTaskStatus = "tradewind.task.status"

	// Event attributes
	AttrEventType = "tradewind.event.type"
)

// WorkflowAttributes returns common attributes for workflow run spans.
func WorkflowAttributes(workflowID, pattern, phase string, step int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrWorkflowID, workflowID),
		attribute.String(AttrWorkflowPattern, pattern),
	}
	if phase != "" {
		attrs = append(attrs, attribute.String(AttrWorkflowPhase, phase))
	}
	if step > 0 {
		attrs = append(attrs, attribute.Int(AttrWorkflowStep, step))
	}
	return attrs
}

// StageAttributes returns attributes for a stage invocation span.
func StageAttributes(stage, agent string, durationMs float64, success bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrStageName, stage),
		attribute.Bool(AttrStageSuccess, success),
	}
	if agent != "" {
		attrs = append(attrs, attribute.String(AttrStageAgent, agent))
	}
	if durationMs > 0 {
		attrs = append(attrs, attribute.Float64(AttrStageDurationMs, durationMs))
	}
	return attrs
}

// AgentAttributes returns common attributes for agent spans.
func AgentAttributes(agentID, role, model, runID string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrAgentID, agentID),
		attribute.String(AttrAgentRunID, runID),
	}
	if role != "" {
		attrs = append(attrs, attribute.String(AttrAgentRole, role))
	}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrAgentModel, model))
	}
	return attrs
}

// ConversationAttributes returns attributes for conversation tracking.
func ConversationAttributes(contextID string, enabled bool, msgCount int, strategy string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Bool(AttrConversationEnabled, enabled),
	}
	if contextID != "" {
		attrs = append(attrs, attribute.String(AttrContextID, contextID))
	}
	if enabled {
		attrs = append(attrs, attribute.Int(AttrConversationMsgCount, msgCount))
		if strategy != "" {
			attrs = append(attrs, attribute.String(AttrConversationStrategy, strategy))
		}
	}
	return attrs
}

// MemoryAttributes returns attributes for memory operations.
func MemoryAttributes(enabled bool, memType string, retrieved int, stored bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Bool(AttrMemoryEnabled, enabled),
	}
	if enabled && memType != "" {
		attrs = append(attrs, attribute.String(AttrMemoryType, memType))
	}
	if retrieved > 0 {
		attrs = append(attrs, attribute.Int(AttrMemoryRetrieved, retrieved))
	}
	if stored {
		attrs = append(attrs, attribute.Bool(AttrMemoryStored, stored))
	}
	return attrs
}

// ToolCallAttributes returns attributes for a tool call span.
func ToolCallAttributes(name, callID, source string, durationMs float64, success bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrToolName, name),
		attribute.String(AttrToolCallID, callID),
		attribute.String(AttrToolSource, source),
		attribute.Float64(AttrToolDurationMs, durationMs),
		attribute.Bool(AttrToolSuccess, success),
	}
}

// ToolCallArgsResult returns attributes with tool arguments and result,
// truncated for safety.
func ToolCallArgsResult(args, result string, maxLen int) []attribute.KeyValue {
	if maxLen <= 0 {
		maxLen = 500
	}
	attrs := []attribute.KeyValue{}
	if args != "" {
		if len(args) > maxLen {
			args = args[:maxLen] + "..."
		}
		attrs = append(attrs, attribute.String(AttrToolArgs, args))
	}
	if result != "" {
		if len(result) > maxLen {
			result = result[:maxLen] + "..."
		}
		attrs = append(attrs, attribute.String(AttrToolResult, result))
	}
	return attrs
}

// LLMAttributes returns attributes for LLM call spans.
func LLMAttributes(model, provider string, msgCount int, toolCallCount int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrLLMModel, model),
		attribute.Int(AttrLLMMessages, msgCount),
	}
	if provider != "" {
		attrs = append(attrs, attribute.String(AttrLLMProvider, provider))
	}
	if toolCallCount > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMToolCalls, toolCallCount))
	}
	return attrs
}

// LLMUsageAttributes returns token usage attributes.
func LLMUsageAttributes(inputTokens, outputTokens int, durationMs float64, finishReason string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if inputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensInput, inputTokens))
	}
	if outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensOutput, outputTokens))
	}
	if inputTokens > 0 || outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensTotal, inputTokens+outputTokens))
	}
	if durationMs > 0 {
		attrs = append(attrs, attribute.Float64(AttrLLMDurationMs, durationMs))
	}
	if finishReason != "" {
		attrs = append(attrs, attribute.String(AttrLLMFinishReason, finishReason))
	}
	return attrs
}
