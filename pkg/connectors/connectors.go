// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package connectors turns external data surfaces into agent tools. An
// OpenAPI connector exposes market-data REST APIs as callable tools, and a
// SQL connector exposes portfolio database tables the same way. Both
// implement the Connector interface and hand out core.Tool values the
// worker loop can invoke directly.
package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/llm"
)

// Connector generates tools from an external surface and executes calls
// against it.
type Connector interface {
	Tools() []core.Tool
	Execute(ctx context.Context, toolName string, args map[string]any) (any, error)
}

// executor is the Execute half of Connector; tool adapters only need this.
type executor interface {
	Execute(ctx context.Context, toolName string, args map[string]any) (any, error)
}

// toolAdapter bridges one generated tool definition to its connector.
type toolAdapter struct {
	name       string
	definition llm.Tool
	exec       executor
}

func (t *toolAdapter) Name() string { return t.name }

func (t *toolAdapter) ToolDefinition() llm.Tool { return t.definition }

func (t *toolAdapter) Call(ctx context.Context, input any) (any, error) {
	if t.exec == nil {
		return nil, errors.New("connector tool has no executor")
	}
	args, err := normalizeToolArgs(input)
	if err != nil {
		return nil, err
	}
	return t.exec.Execute(ctx, t.name, args)
}

func coreToolsFromDefinitions(defs []llm.Tool, exec executor) []core.Tool {
	if exec == nil || len(defs) == 0 {
		return nil
	}
	tools := make([]core.Tool, 0, len(defs))
	for _, def := range defs {
		name := strings.TrimSpace(def.Function.Name)
		if name == "" {
			continue
		}
		if def.Type == "" {
			def.Type = llm.ToolTypeFunction
		}
		def.Function.Name = name
		tools = append(tools, &toolAdapter{name: name, definition: def, exec: exec})
	}
	return tools
}

// normalizeToolArgs accepts the input shapes the worker loop produces:
// decoded maps, raw JSON, or plain text.
func normalizeToolArgs(input any) (map[string]any, error) {
	switch value := input.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return value, nil
	case json.RawMessage:
		return decodeArgs([]byte(value))
	case []byte:
		return decodeArgs(value)
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return map[string]any{}, nil
		}
		if strings.HasPrefix(trimmed, "{") {
			if args, err := decodeArgs([]byte(trimmed)); err == nil {
				return args, nil
			}
		}
		return map[string]any{"input": value}, nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("connector tool args: unsupported type %T", input)
		}
		return decodeArgs(encoded)
	}
}

func decodeArgs(data []byte) (map[string]any, error) {
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("connector tool args: invalid JSON: %w", err)
	}
	return decoded, nil
}
