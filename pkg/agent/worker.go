// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradewind-ai/tradewind/pkg/a2a/server"
	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/guardrails"
	"github.com/tradewind-ai/tradewind/pkg/llm"
	"github.com/tradewind-ai/tradewind/pkg/memory"
	"github.com/tradewind-ai/tradewind/pkg/telemetry"
)

const (
	defaultMaxIterations = 8
	defaultHistoryLimit  = 20
)

// DefinedTool is a tool that carries its own LLM function definition.
// MCP tool adapters implement it; plain core.Tool values are exposed to the
// LLM with an open-ended schema.
type DefinedTool interface {
	core.Tool
	ToolDefinition() llm.Tool
}

// Worker runs one role's LLM loop behind the A2A server surface. Inbound
// messages carry the stage instruction; the loop calls tools until the model
// produces a final answer.
type Worker struct {
	id            string
	role          RoleDefinition
	provider      llm.Provider
	model         string
	temperature   float64
	tools         map[string]core.Tool
	toolDefs      []llm.Tool
	conversation  memory.ConversationMemory
	recall        core.Memory
	guard         *guardrails.Guardrails
	metrics       *telemetry.WorkflowMetrics
	logger        *slog.Logger
	tracer        trace.Tracer
	maxIterations int
	historyLimit  int
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithModel selects the model passed to the provider.
func WithModel(model string) WorkerOption {
	return func(w *Worker) { w.model = model }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) WorkerOption {
	return func(w *Worker) { w.temperature = temperature }
}

// WithWorkerTools attaches tools the LLM may call.
func WithWorkerTools(tools ...core.Tool) WorkerOption {
	return func(w *Worker) {
		for _, tool := range tools {
			if tool == nil {
				continue
			}
			w.tools[tool.Name()] = tool
			w.toolDefs = append(w.toolDefs, toolDefinition(tool))
		}
	}
}

// WithConversation attaches per-context conversation history.
func WithConversation(conversation memory.ConversationMemory) WorkerOption {
	return func(w *Worker) { w.conversation = conversation }
}

// WithRecall attaches a semantic memory consulted before each run.
func WithRecall(recall core.Memory) WorkerOption {
	return func(w *Worker) { w.recall = recall }
}

// WithGuardrails attaches input/output guardrails.
func WithGuardrails(guard *guardrails.Guardrails) WorkerOption {
	return func(w *Worker) { w.guard = guard }
}

// WithWorkerMetrics attaches workflow metrics.
func WithWorkerMetrics(metrics *telemetry.WorkflowMetrics) WorkerOption {
	return func(w *Worker) { w.metrics = metrics }
}

// WithMaxIterations bounds the tool-calling loop.
func WithMaxIterations(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.maxIterations = n
		}
	}
}

// WithHistoryLimit bounds how much conversation history each run loads.
func WithHistoryLimit(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.historyLimit = n
		}
	}
}

// WithWorkerLogger attaches a structured logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker assembles a worker from a role definition and an LLM provider.
func NewWorker(id string, role RoleDefinition, provider llm.Provider, opts ...WorkerOption) (*Worker, error) {
	if id == "" {
		return nil, NewInvalidInputError("worker id is required")
	}
	if provider == nil {
		return nil, NewInvalidInputError("LLM provider is required")
	}
	if strings.TrimSpace(role.SystemPrompt) == "" {
		return nil, NewInvalidInputError("role system prompt is required")
	}

	w := &Worker{
		id:            id,
		role:          role,
		provider:      provider,
		tools:         make(map[string]core.Tool),
		logger:        slog.Default(),
		tracer:        otel.Tracer("tradewind/agent"),
		maxIterations: defaultMaxIterations,
		historyLimit:  defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// ID returns the worker identifier.
func (w *Worker) ID() string { return w.id }

// Role returns the worker's role definition.
func (w *Worker) Role() RoleDefinition { return w.role }

// Skills returns the semantic skills advertised by the worker.
func (w *Worker) Skills() []core.Skill { return w.role.CoreSkills() }

// Run implements server.Executor: one inbound message, one finished answer.
func (w *Worker) Run(ctx context.Context, message *types.Message) (any, []types.Artifact, error) {
	instruction := strings.TrimSpace(message.Text())
	if instruction == "" {
		return nil, nil, NewInvalidInputError("message carries no instruction text")
	}
	contextID := message.ContextID

	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := w.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(telemetry.AgentAttributes(w.id, w.role.Name, w.model, runID)...))
	defer span.End()

	if w.guard != nil {
		if check := w.guard.CheckInput(ctx, instruction); check.Blocked {
			err := NewInvalidInputError("input blocked: " + check.Reason).
				WithContext("guardrail", check.GuardrailID)
			span.SetStatus(codes.Error, err.Message)
			w.metrics.RecordErrorMetric(ctx, err, "agent:"+w.id)
			return nil, nil, err
		}
	}

	w.logger.InfoContext(ctx, "agent run started",
		"agent_id", w.id,
		"role", w.role.Name,
		"run_id", runID,
		"context_id", contextID)

	messages, err := w.buildMessages(ctx, contextID, instruction)
	if err != nil {
		return nil, nil, err
	}
	w.rememberMessage(ctx, contextID, "user", instruction, "")

	var artifacts []types.Artifact
	for i := 0; i < w.maxIterations; i++ {
		resp, err := w.chat(ctx, messages)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			w.metrics.RecordErrorMetric(ctx, err, "agent:"+w.id)
			return nil, nil, err
		}

		if len(resp.ToolCalls) == 0 {
			output := w.filterOutput(ctx, resp.Content)
			w.rememberMessage(ctx, contextID, "assistant", output, "")
			w.storeRecall(ctx, instruction, output)
			w.logger.InfoContext(ctx, "agent run completed",
				"agent_id", w.id,
				"run_id", runID,
				"iterations", i+1,
				"tool_calls", len(artifacts))
			return output, artifacts, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			result, artifact, err := w.callTool(ctx, call)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				w.metrics.RecordErrorMetric(ctx, err, "agent:"+w.id)
				return nil, nil, err
			}
			artifacts = append(artifacts, artifact)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    fmt.Sprint(result),
				ToolCallID: call.ID,
			})
		}
	}

	iterErr := WrapIterationError(nil, w.maxIterations)
	span.SetStatus(codes.Error, iterErr.Message)
	w.metrics.RecordErrorMetric(ctx, iterErr, "agent:"+w.id)
	return nil, nil, iterErr
}

// buildMessages assembles system prompt, recalled context, prior conversation
// and the new instruction, in that order.
func (w *Worker) buildMessages(ctx context.Context, contextID, instruction string) ([]llm.Message, error) {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: w.role.SystemPrompt}}

	if w.recall != nil {
		if recalled, err := w.recall.Retrieve(ctx, instruction); err != nil {
			w.logger.WarnContext(ctx, "memory recall failed",
				"agent_id", w.id,
				"error", err)
		} else if recallContext := formatRecall(recalled); recallContext != "" {
			messages = append(messages, llm.Message{
				Role:    llm.RoleSystem,
				Content: "Relevant context from memory:\n" + recallContext,
			})
		}
	}

	if w.conversation != nil && contextID != "" {
		history, err := w.conversation.GetRecentMessages(ctx, contextID, w.historyLimit)
		if err != nil {
			return nil, WrapMemoryError(err, "get_recent_messages")
		}
		for _, msg := range history {
			messages = append(messages, llm.Message{
				Role:       llm.Role(msg.Role),
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		}
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: instruction}), nil
}

func (w *Worker) chat(ctx context.Context, messages []llm.Message) (*llm.ChatResponse, error) {
	ctx, span := w.tracer.Start(ctx, "agent.llm.chat",
		trace.WithAttributes(telemetry.LLMAttributes(w.model, "", len(messages), len(w.toolDefs))...))
	defer span.End()

	start := time.Now()
	resp, err := w.provider.Chat(ctx, llm.ChatRequest{
		Model:       w.model,
		Messages:    messages,
		Tools:       w.toolDefs,
		Temperature: w.temperature,
	})
	durationMs := time.Since(start).Seconds() * 1000
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, WrapLLMError(err, w.model)
	}

	span.SetAttributes(telemetry.LLMUsageAttributes(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, durationMs, "")...)
	return resp, nil
}

func (w *Worker) callTool(ctx context.Context, call llm.ToolCall) (any, types.Artifact, error) {
	name := call.Function.Name
	tool, ok := w.tools[name]
	if !ok {
		return nil, types.Artifact{}, NewNotFoundError("tool", name)
	}

	ctx, span := w.tracer.Start(ctx, "agent.tool.call")
	defer span.End()

	start := time.Now()
	result, err := tool.Call(ctx, call.Function.Arguments)
	durationMs := time.Since(start).Seconds() * 1000
	span.SetAttributes(telemetry.ToolCallAttributes(name, call.ID, toolSource(tool), durationMs, err == nil)...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, types.Artifact{}, WrapToolError(err, name, call.ID)
	}

	w.logger.InfoContext(ctx, "tool call completed",
		"agent_id", w.id,
		"tool", name,
		"tool_call_id", call.ID)

	artifact := types.Artifact{
		ArtifactID: uuid.NewString(),
		Name:       name,
		Parts: []types.Part{types.DataPart(map[string]any{
			"tool":      name,
			"arguments": call.Function.Arguments,
			"result":    fmt.Sprint(result),
		})},
	}
	return result, artifact, nil
}

func (w *Worker) filterOutput(ctx context.Context, output string) string {
	if w.guard == nil {
		return output
	}
	filtered := w.guard.FilterOutput(ctx, output)
	if filtered.Modified {
		w.logger.InfoContext(ctx, "output filtered",
			"agent_id", w.id,
			"redactions", len(filtered.Redactions))
	}
	return filtered.Content
}

// rememberMessage appends to conversation history; storage failures degrade
// to a warning, never failing the run.
func (w *Worker) rememberMessage(ctx context.Context, contextID, role, content, toolCallID string) {
	if w.conversation == nil || contextID == "" || content == "" {
		return
	}
	err := w.conversation.AppendMessage(ctx, contextID, memory.ConversationMessage{
		Role:       role,
		Content:    content,
		ToolCallID: toolCallID,
	})
	if err != nil {
		w.logger.WarnContext(ctx, "conversation store failed",
			"agent_id", w.id,
			"context_id", contextID,
			"error", err)
	}
}

func (w *Worker) storeRecall(ctx context.Context, instruction, output string) {
	if w.recall == nil || output == "" {
		return
	}
	if err := w.recall.Store(ctx, instruction+"\n"+output); err != nil {
		w.logger.WarnContext(ctx, "memory store failed",
			"agent_id", w.id,
			"error", err)
	}
}

func formatRecall(recalled any) string {
	switch v := recalled.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []string:
		return strings.TrimSpace(strings.Join(v, "\n"))
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func toolSource(tool core.Tool) string {
	if _, ok := tool.(DefinedTool); ok {
		return "mcp"
	}
	return "local"
}

func toolDefinition(tool core.Tool) llm.Tool {
	if defined, ok := tool.(DefinedTool); ok {
		return defined.ToolDefinition()
	}
	return llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:       tool.Name(),
			Parameters: map[string]any{"type": "object"},
		},
	}
}

var _ server.Executor = (*Worker)(nil)
