// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package skills

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/llm"
)

// Tool exposes a skill to the model. Activation returns the skill body;
// load_resource fetches supporting files from the skill directory.
type Tool struct {
	spec Spec
}

func NewTool(spec Spec) *Tool {
	return &Tool{spec: spec}
}

func (t *Tool) Name() string { return t.spec.Name }

func (t *Tool) Spec() Spec { return t.spec }

// Response is the activation payload handed back to the model.
type Response struct {
	Name         string   `json:"name"`
	Instructions string   `json:"instructions"`
	Resources    []string `json:"resources,omitempty"`
}

func (t *Tool) Call(_ context.Context, input any) (any, error) {
	action, resource := parseRequest(input)
	switch action {
	case "load_resource":
		return t.loadResource(resource)
	case "list_resources":
		return t.listResources(), nil
	default:
		return &Response{
			Name:         t.spec.Name,
			Instructions: t.spec.Body,
			Resources:    t.listResources(),
		}, nil
	}
}

func parseRequest(input any) (action, resource string) {
	args, ok := input.(map[string]any)
	if !ok {
		return "activate", ""
	}
	action, _ = args["action"].(string)
	resource, _ = args["resource"].(string)
	if action == "" {
		action = "activate"
	}
	return action, resource
}

func (t *Tool) loadResource(resource string) (any, error) {
	if resource == "" {
		return nil, fmt.Errorf("resource path is required")
	}
	clean := filepath.Clean(resource)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid resource path %q", resource)
	}
	data, err := os.ReadFile(filepath.Join(t.spec.Dir, clean))
	if err != nil {
		return nil, fmt.Errorf("load resource %s: %w", resource, err)
	}
	return string(data), nil
}

// listResources reports supporting files under the skill's conventional
// subdirectories.
func (t *Tool) listResources() []string {
	var resources []string
	for _, subdir := range []string{"scripts", "references", "assets"} {
		entries, err := os.ReadDir(filepath.Join(t.spec.Dir, subdir))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				resources = append(resources, filepath.Join(subdir, entry.Name()))
			}
		}
	}
	return resources
}

// ToolDefinition advertises only the skill metadata; the body stays hidden
// until activation.
func (t *Tool) ToolDefinition() llm.Tool {
	return llm.Tool{
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionDef{
			Name:        t.spec.Name,
			Description: t.spec.Description,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"enum":        []string{"activate", "load_resource", "list_resources"},
						"description": "activate returns the skill instructions; load_resource reads a supporting file",
					},
					"resource": map[string]any{
						"type":        "string",
						"description": "Path to a resource file, for load_resource",
					},
				},
			},
		},
	}
}

// LoadToolsFromDir loads every skill under root as a tool.
func LoadToolsFromDir(root string) ([]*Tool, error) {
	specs, err := LoadDir(root)
	if err != nil {
		return nil, err
	}
	tools := make([]*Tool, len(specs))
	for i, spec := range specs {
		tools[i] = NewTool(spec)
	}
	return tools, nil
}

var _ core.Tool = (*Tool)(nil)
