// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

// Context keys for the correlation values that flow through a workflow:
// the run ID minted per worker invocation, the workflow ID the dispatcher
// is driving, and the memory backend tools read during a run.
type ctxKey uint8

const (
	runIDCtxKey ctxKey = iota
	workflowIDCtxKey
	memoryCtxKey
)

// WithRunID attaches a run ID to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDCtxKey, id)
}

// RunID returns the run ID if present.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDCtxKey).(string)
	return id, ok
}

// EnsureRunID returns the context's run ID, minting one when absent.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return WithRunID(ctx, "run-unknown"), "run-unknown"
	}
	id := "run-" + hex.EncodeToString(buf)
	return WithRunID(ctx, id), id
}

// WithWorkflowID attaches the dispatched workflow's ID to the context so
// logs and events emitted below the dispatcher carry it.
func WithWorkflowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, workflowIDCtxKey, id)
}

// WorkflowID returns the workflow ID if present.
func WorkflowID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(workflowIDCtxKey).(string)
	return id, ok
}

// WithMemory attaches a memory backend to the context.
func WithMemory(ctx context.Context, mem Memory) context.Context {
	return context.WithValue(ctx, memoryCtxKey, mem)
}

// MemoryFromContext returns the memory backend if present.
func MemoryFromContext(ctx context.Context) (Memory, bool) {
	mem, ok := ctx.Value(memoryCtxKey).(Memory)
	return mem, ok
}
