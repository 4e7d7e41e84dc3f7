// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tradewind-ai/tradewind/pkg/core"
)

//go:embed roles.yaml
var defaultRolePack []byte

// RoleDefinition is one worker role loaded from a role pack.
type RoleDefinition struct {
	Name         string      `yaml:"name"`
	Description  string      `yaml:"description"`
	Stages       []string    `yaml:"stages"`
	SystemPrompt string      `yaml:"system_prompt"`
	Skills       []roleSkill `yaml:"skills"`
}

type roleSkill struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

type rolePack struct {
	Roles []RoleDefinition `yaml:"roles"`
}

// CoreSkills converts the role's skill entries to core.Skill values.
func (r RoleDefinition) CoreSkills() []core.Skill {
	skills := make([]core.Skill, 0, len(r.Skills))
	for _, s := range r.Skills {
		skills = append(skills, core.Skill{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Tags:        append([]string(nil), s.Tags...),
		})
	}
	return skills
}

// Manifest builds the role manifest advertised over the agent card.
func (r RoleDefinition) Manifest() core.RoleManifest {
	stages := make([]core.Phase, 0, len(r.Stages))
	for _, s := range r.Stages {
		stages = append(stages, core.Phase(s))
	}
	return core.RoleManifest{
		Role:           r.Name,
		Responsibility: r.Description,
		Stages:         stages,
	}
}

// DefaultRoles parses the embedded role pack.
func DefaultRoles() (map[string]RoleDefinition, error) {
	return parseRolePack(defaultRolePack)
}

// LoadRoles reads a role pack from a YAML file, replacing the defaults for
// any role names it contains.
func LoadRoles(path string) (map[string]RoleDefinition, error) {
	roles, err := DefaultRoles()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return roles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role pack: %w", err)
	}
	overrides, err := parseRolePack(raw)
	if err != nil {
		return nil, err
	}
	for name, role := range overrides {
		roles[name] = role
	}
	return roles, nil
}

// Role resolves a single role by name from the embedded pack.
func Role(name string) (RoleDefinition, error) {
	roles, err := DefaultRoles()
	if err != nil {
		return RoleDefinition{}, err
	}
	role, ok := roles[name]
	if !ok {
		return RoleDefinition{}, NewNotFoundError("role", name)
	}
	return role, nil
}

func parseRolePack(raw []byte) (map[string]RoleDefinition, error) {
	var pack rolePack
	if err := yaml.Unmarshal(raw, &pack); err != nil {
		return nil, fmt.Errorf("parse role pack: %w", err)
	}

	roles := make(map[string]RoleDefinition, len(pack.Roles))
	for _, role := range pack.Roles {
		name := strings.TrimSpace(role.Name)
		if name == "" {
			return nil, fmt.Errorf("role pack entry missing name")
		}
		if strings.TrimSpace(role.SystemPrompt) == "" {
			return nil, fmt.Errorf("role %q missing system_prompt", name)
		}
		role.Name = name
		roles[name] = role
	}
	return roles, nil
}
