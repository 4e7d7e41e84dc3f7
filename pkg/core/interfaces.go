package core

import (
	"context"
	"errors"
)

// ErrEmptyInstruction rejects requests with no instruction content.
var ErrEmptyInstruction = errors.New("core: instruction is empty")

// Skill describes a semantic capability advertised by a worker agent.
type Skill struct {
	ID          string
	Name        string
	Description string
	Tags        []string
}

// Tool is a concrete capability implementation, typically backed by MCP.
type Tool interface {
	Name() string
	Call(ctx context.Context, input any) (any, error)
}

// Memory stores and retrieves contextual data for agents.
type Memory interface {
	Store(ctx context.Context, data any) error
	Retrieve(ctx context.Context, query any) (any, error)
}

// Invoker issues one request to a worker agent and blocks until a result or
// failure comes back. Retry and backoff policy live behind this interface,
// never in the dispatcher.
type Invoker interface {
	Invoke(ctx context.Context, agent, instruction, contextID string) (any, error)
}

// Agent is the minimal executable unit of the runtime.
type Agent interface {
	ID() string
	Role() string
	Skills() []Skill
	Memory() Memory
	Run(ctx context.Context, input any) (any, error)
}
