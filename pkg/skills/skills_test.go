// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"os"
	"path/filepath"
	"testing"
)

const riskChecklist = `---
name: risk-checklist
description: Pre-trade risk review steps for the executor agent
allowed-tools:
  - place_order
  - fetch_quotes
---

# Risk checklist

1. Confirm the order size is within position limits.
2. Check current volatility before placing market orders.
`

func writeSkill(t *testing.T, root, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "SKILL.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write skill: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	path := writeSkill(t, root, "risk-checklist", riskChecklist)

	spec, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if spec.Name != "risk-checklist" {
		t.Errorf("name = %s", spec.Name)
	}
	if spec.Description == "" {
		t.Error("description empty")
	}
	if len(spec.AllowedTools) != 2 {
		t.Errorf("allowed tools = %v", spec.AllowedTools)
	}
	if spec.Body == "" || spec.Body[0] != '#' {
		t.Errorf("body = %q", spec.Body)
	}
}

func TestLoadFileRejectsBadSkills(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		content string
	}{
		{"missing frontmatter", "no-front", "# just a body\n"},
		{"missing name", "no-name", "---\ndescription: x\n---\nbody"},
		{"missing description", "no-desc", "---\nname: no-desc\n---\nbody"},
		{"uppercase name", "bad-name", "---\nname: BadName\ndescription: x\n---\nbody"},
		{"name directory mismatch", "mismatch", "---\nname: other\ndescription: x\n---\nbody"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSkill(t, t.TempDir(), tc.dir, tc.content)
			if _, err := LoadFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDirSkipsNonSkillDirectories(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, root, "risk-checklist", riskChecklist)
	if err := os.MkdirAll(filepath.Join(root, "not-a-skill"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	specs, err := LoadDir(root)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "risk-checklist" {
		t.Errorf("specs = %+v", specs)
	}
}
