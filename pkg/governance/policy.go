// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package governance enforces which tools each agent role may call and which
// tool calls need an operator decision before they run. Trading tools are the
// primary target: a deny rule keeps order placement away from analysis roles,
// a pending rule holds live orders for approval.
package governance

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/tradewind-ai/tradewind/pkg/config"
)

// Action is one tool call under evaluation.
type Action struct {
	Tool     string
	Role     string
	Metadata map[string]string
}

// DecisionStatus is the policy outcome.
type DecisionStatus string

const (
	StatusAllow   DecisionStatus = "allow"
	StatusDeny    DecisionStatus = "deny"
	StatusPending DecisionStatus = "pending"
)

// Decision captures the outcome of a policy evaluation.
type Decision struct {
	Status DecisionStatus
	Reason string
	RuleID string
}

func (d Decision) Allowed() bool { return d.Status == StatusAllow }
func (d Decision) Pending() bool { return d.Status == StatusPending }
func (d Decision) Denied() bool  { return d.Status == StatusDeny }

// Rule matches tool calls by name pattern and optionally by role.
type Rule struct {
	ID     string
	Effect string // allow, deny, pending
	Tool   string // glob pattern over the tool name, empty matches all
	Roles  []string
	Reason string
}

func (r Rule) matches(action Action) bool {
	if r.Tool != "" && !matchPattern(r.Tool, action.Tool) {
		return false
	}
	if len(r.Roles) == 0 {
		return true
	}
	for _, role := range r.Roles {
		if strings.EqualFold(role, action.Role) {
			return true
		}
	}
	return false
}

// PolicyEngine evaluates actions.
type PolicyEngine interface {
	Evaluate(ctx context.Context, action Action) Decision
}

// RuleSet evaluates rules in order; the first match wins. No match allows.
type RuleSet struct {
	rules []Rule
}

func NewRuleSet(rules []Rule) *RuleSet {
	return &RuleSet{rules: append([]Rule(nil), rules...)}
}

func (r *RuleSet) Evaluate(_ context.Context, action Action) Decision {
	for _, rule := range r.rules {
		if !rule.matches(action) {
			continue
		}
		decision := Decision{Reason: rule.Reason, RuleID: rule.ID}
		switch strings.ToLower(rule.Effect) {
		case "deny":
			decision.Status = StatusDeny
		case "pending":
			decision.Status = StatusPending
		default:
			decision.Status = StatusAllow
		}
		return decision
	}
	return Decision{Status: StatusAllow}
}

func matchPattern(pattern, value string) bool {
	if ok, err := path.Match(pattern, value); err == nil && ok {
		return true
	}
	return pattern == value
}

// RulesFromConfig converts configured policy rules into a rule set.
func RulesFromConfig(cfg config.GovernanceConfig) *RuleSet {
	rules := make([]Rule, 0, len(cfg.Policies))
	for i, rule := range cfg.Policies {
		id := strings.TrimSpace(rule.ID)
		if id == "" {
			id = fmt.Sprintf("rule-%d", i)
		}
		rules = append(rules, Rule{
			ID:     id,
			Effect: rule.Effect,
			Tool:   rule.Tool,
			Roles:  rule.Roles,
			Reason: rule.Reason,
		})
	}
	return NewRuleSet(rules)
}
