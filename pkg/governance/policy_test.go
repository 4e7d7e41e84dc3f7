// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package governance

import (
	"context"
	"testing"
)

func TestRuleSetFirstMatchWins(t *testing.T) {
	rules := NewRuleSet([]Rule{
		{ID: "hold-orders", Effect: "pending", Tool: "place_order", Roles: []string{"executor"}},
		{ID: "no-trading-tools", Effect: "deny", Tool: "place_order"},
		{ID: "no-cancel", Effect: "deny", Tool: "cancel_*"},
	})

	tests := []struct {
		name   string
		action Action
		status DecisionStatus
		rule   string
	}{
		{"executor order held", Action{Tool: "place_order", Role: "executor"}, StatusPending, "hold-orders"},
		{"other role order denied", Action{Tool: "place_order", Role: "knowledge"}, StatusDeny, "no-trading-tools"},
		{"glob matches cancel", Action{Tool: "cancel_order", Role: "executor"}, StatusDeny, "no-cancel"},
		{"unmatched tool allowed", Action{Tool: "fetch_quotes", Role: "browser"}, StatusAllow, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := rules.Evaluate(context.Background(), tc.action)
			if decision.Status != tc.status {
				t.Errorf("status = %s, want %s", decision.Status, tc.status)
			}
			if decision.RuleID != tc.rule {
				t.Errorf("rule = %q, want %q", decision.RuleID, tc.rule)
			}
		})
	}
}

func TestRuleSetRoleMatchIsCaseInsensitive(t *testing.T) {
	rules := NewRuleSet([]Rule{
		{ID: "r1", Effect: "deny", Tool: "place_order", Roles: []string{"Executor"}},
	})

	decision := rules.Evaluate(context.Background(), Action{Tool: "place_order", Role: "executor"})
	if !decision.Denied() {
		t.Errorf("expected deny, got %s", decision.Status)
	}
}

func TestEmptyRuleSetAllows(t *testing.T) {
	rules := NewRuleSet(nil)
	decision := rules.Evaluate(context.Background(), Action{Tool: "anything", Role: "browser"})
	if !decision.Allowed() {
		t.Errorf("expected allow, got %s", decision.Status)
	}
}
