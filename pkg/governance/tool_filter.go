// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import (
	"context"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/errors"
	"github.com/tradewind-ai/tradewind/pkg/llm"
)

// ToolFilter restricts which tools a role receives and gates individual
// calls through the policy engine.
type ToolFilter struct {
	role      string
	allowlist map[string]bool
	engine    PolicyEngine
	approvals *ApprovalStore
}

type ToolFilterOption func(*ToolFilter)

// WithAllowlist limits the role to the named tools. Empty list means all.
func WithAllowlist(tools []string) ToolFilterOption {
	return func(tf *ToolFilter) {
		for _, tool := range tools {
			if tool != "" {
				tf.allowlist[tool] = true
			}
		}
	}
}

// WithPolicyEngine attaches per-call policy evaluation.
func WithPolicyEngine(engine PolicyEngine) ToolFilterOption {
	return func(tf *ToolFilter) { tf.engine = engine }
}

// WithApprovalStore records pending decisions so an operator can resolve
// them.
func WithApprovalStore(store *ApprovalStore) ToolFilterOption {
	return func(tf *ToolFilter) { tf.approvals = store }
}

func NewToolFilter(role string, opts ...ToolFilterOption) *ToolFilter {
	tf := &ToolFilter{
		role:      role,
		allowlist: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Filter drops tools outside the role's allowlist and wraps the rest so each
// call is policy-checked.
func (tf *ToolFilter) Filter(tools []core.Tool) []core.Tool {
	out := make([]core.Tool, 0, len(tools))
	for _, tool := range tools {
		if len(tf.allowlist) > 0 && !tf.matchesAllowlist(tool.Name()) {
			continue
		}
		out = append(out, &guardedTool{Tool: tool, filter: tf})
	}
	return out
}

func (tf *ToolFilter) matchesAllowlist(name string) bool {
	if tf.allowlist[name] {
		return true
	}
	for pattern := range tf.allowlist {
		if matchPattern(pattern, name) {
			return true
		}
	}
	return false
}

func (tf *ToolFilter) check(ctx context.Context, tool string) error {
	if tf.engine == nil {
		return nil
	}
	decision := tf.engine.Evaluate(ctx, Action{Tool: tool, Role: tf.role})
	switch {
	case decision.Denied():
		return errors.New(errors.CodePolicyDenied, "tool call denied by policy", nil).
			WithAttribute("tool_name", tool).
			WithAttribute("policy_rule", decision.RuleID).
			WithContext("reason", decision.Reason)
	case decision.Pending():
		err := errors.New(errors.CodeApprovalPending, "tool call held for approval", nil).
			WithAttribute("tool_name", tool).
			WithAttribute("policy_rule", decision.RuleID).
			WithRecoverable(true)
		if tf.approvals != nil {
			pending := tf.approvals.Request(Action{Tool: tool, Role: tf.role}, decision)
			err = err.WithContext("approval_id", pending.ID)
		}
		return err
	default:
		return nil
	}
}

// guardedTool wraps a tool so every call passes through the filter's policy
// check. The tool definition is passed through untouched so the model still
// sees the real schema.
type guardedTool struct {
	core.Tool
	filter *ToolFilter
}

func (g *guardedTool) Call(ctx context.Context, input any) (any, error) {
	if err := g.filter.check(ctx, g.Tool.Name()); err != nil {
		return nil, err
	}
	return g.Tool.Call(ctx, input)
}

// ToolDefinition forwards the wrapped tool's schema when it has one.
func (g *guardedTool) ToolDefinition() llm.Tool {
	if defined, ok := g.Tool.(interface{ ToolDefinition() llm.Tool }); ok {
		return defined.ToolDefinition()
	}
	return llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:       g.Tool.Name(),
			Parameters: map[string]any{"type": "object"},
		},
	}
}
