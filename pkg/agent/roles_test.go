// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

func TestDefaultRoles(t *testing.T) {
	roles, err := DefaultRoles()
	if err != nil {
		t.Fatalf("DefaultRoles failed: %v", err)
	}

	for _, name := range []string{"planner", "browser", "knowledge", "executor"} {
		role, ok := roles[name]
		if !ok {
			t.Errorf("role %q missing from default pack", name)
			continue
		}
		if role.SystemPrompt == "" {
			t.Errorf("role %q has empty system prompt", name)
		}
		if len(role.Skills) == 0 {
			t.Errorf("role %q has no skills", name)
		}
	}
}

func TestRoleStageMapping(t *testing.T) {
	tests := []struct {
		role  string
		stage core.Phase
	}{
		{"browser", core.PhaseDataCollection},
		{"knowledge", core.PhaseAnalysis},
		{"executor", core.PhaseTrading},
	}

	for _, tc := range tests {
		role, err := Role(tc.role)
		if err != nil {
			t.Fatalf("Role(%q) failed: %v", tc.role, err)
		}
		manifest := role.Manifest()
		if len(manifest.Stages) != 1 || manifest.Stages[0] != tc.stage {
			t.Errorf("role %q stages = %v, want [%s]", tc.role, manifest.Stages, tc.stage)
		}
	}

	planner, err := Role("planner")
	if err != nil {
		t.Fatalf("Role(planner) failed: %v", err)
	}
	if len(planner.Manifest().Stages) != 0 {
		t.Errorf("planner must not own a workflow stage: %v", planner.Manifest().Stages)
	}
}

func TestRoleUnknown(t *testing.T) {
	_, err := Role("astrologer")
	if errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestLoadRolesOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	pack := `roles:
  - name: browser
    description: custom scraper
    stages: [data_collection]
    system_prompt: |
      Custom prompt.
`
	if err := os.WriteFile(path, []byte(pack), 0o600); err != nil {
		t.Fatalf("write role pack: %v", err)
	}

	roles, err := LoadRoles(path)
	if err != nil {
		t.Fatalf("LoadRoles failed: %v", err)
	}

	if roles["browser"].Description != "custom scraper" {
		t.Errorf("override not applied: %+v", roles["browser"])
	}
	// Roles absent from the override file keep their defaults.
	if _, ok := roles["executor"]; !ok {
		t.Error("default executor role lost after override")
	}
}

func TestLoadRolesRejectsInvalidPack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	if err := os.WriteFile(path, []byte("roles:\n  - name: broken\n"), 0o600); err != nil {
		t.Fatalf("write role pack: %v", err)
	}

	if _, err := LoadRoles(path); err == nil {
		t.Fatal("expected error for role without system prompt")
	}
}

func TestRoleCoreSkills(t *testing.T) {
	role, err := Role("executor")
	if err != nil {
		t.Fatalf("Role failed: %v", err)
	}

	skills := role.CoreSkills()
	if len(skills) != 1 || skills[0].ID != "execute-trade" {
		t.Fatalf("unexpected skills: %+v", skills)
	}
	if len(skills[0].Tags) == 0 {
		t.Error("skill tags lost in conversion")
	}
}
