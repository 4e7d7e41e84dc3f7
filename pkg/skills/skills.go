// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package skills loads markdown playbooks (SKILL.md files) and exposes them
// to workers as callable tools. A skill's frontmatter is what the model sees
// up front; the body is only delivered when the skill is activated, keeping
// long procedures out of the system prompt.
package skills

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Spec is one parsed skill.
type Spec struct {
	Name         string
	Description  string
	Metadata     map[string]string
	AllowedTools []string
	Body         string
	Dir          string
}

const (
	maxNameLen        = 64
	maxDescriptionLen = 1024
)

var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// LoadDir scans a directory for skill subdirectories containing SKILL.md.
// Subdirectories without one are skipped.
func LoadDir(root string) ([]Spec, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []Spec
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name(), "SKILL.md")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		spec, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, spec)
	}
	return out, nil
}

// LoadFile parses a single SKILL.md file.
func LoadFile(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, err
	}
	front, body, err := splitFrontmatter(string(data))
	if err != nil {
		return Spec{}, err
	}

	var parsed struct {
		Name         string            `yaml:"name"`
		Description  string            `yaml:"description"`
		Metadata     map[string]string `yaml:"metadata"`
		AllowedTools []string          `yaml:"allowed-tools"`
	}
	if err := yaml.Unmarshal([]byte(front), &parsed); err != nil {
		return Spec{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	spec := Spec{
		Name:         strings.TrimSpace(parsed.Name),
		Description:  strings.TrimSpace(parsed.Description),
		Metadata:     parsed.Metadata,
		AllowedTools: dedupe(parsed.AllowedTools),
		Body:         strings.TrimSpace(body),
		Dir:          filepath.Dir(path),
	}
	if err := spec.validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func splitFrontmatter(content string) (string, string, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "---") {
		return "", "", errors.New("missing frontmatter")
	}
	parts := strings.SplitN(trimmed, "---", 3)
	if len(parts) < 3 {
		return "", "", errors.New("unterminated frontmatter")
	}
	return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), nil
}

func (s Spec) validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(s.Name) > maxNameLen {
		return fmt.Errorf("name exceeds %d characters", maxNameLen)
	}
	if !namePattern.MatchString(s.Name) {
		return fmt.Errorf("name must match %s", namePattern.String())
	}
	if dir := filepath.Base(s.Dir); dir != s.Name {
		return fmt.Errorf("name must match directory name (%s)", dir)
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if utf8.RuneCountInString(s.Description) > maxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	return nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
