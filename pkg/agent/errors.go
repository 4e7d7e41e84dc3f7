// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// WrapLLMError wraps an LLM error with appropriate context.
func WrapLLMError(err error, model string) *errors.Error {
	if err == nil {
		return nil
	}
	return errors.New(errors.CodeLLMError, "LLM call failed", err).
		WithContext("model", model).
		WithAttribute("gen_ai.request.model", model).
		WithRecoverable(true)
}

// WrapToolError wraps a tool execution error with appropriate context.
func WrapToolError(err error, toolName, toolCallID string) *errors.Error {
	if err == nil {
		return nil
	}
	return errors.New(errors.CodeToolFailure, "tool execution failed", err).
		WithContext("tool_name", toolName).
		WithContext("tool_call_id", toolCallID).
		WithAttribute("tradewind.tool.name", toolName).
		WithRecoverable(true)
}

// WrapMemoryError wraps a memory system error with appropriate context.
func WrapMemoryError(err error, operation string) *errors.Error {
	if err == nil {
		return nil
	}
	return errors.New(errors.CodeMemoryError, "memory operation failed", err).
		WithContext("operation", operation).
		WithAttribute("tradewind.memory.operation", operation).
		WithRecoverable(true)
}

// WrapIterationError wraps a loop-budget exhaustion with appropriate context.
func WrapIterationError(err error, maxIterations int) *errors.Error {
	return errors.New(errors.CodeTimeout, "agent loop exceeded max iterations", err).
		WithContext("max_iterations", maxIterations).
		WithRecoverable(false)
}

// NewInvalidInputError creates a new invalid input error.
func NewInvalidInputError(msg string) *errors.Error {
	return errors.New(errors.CodeInvalidInput, msg, nil).
		WithRecoverable(false)
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, name string) *errors.Error {
	return errors.New(errors.CodeNotFound, resource+" not found", nil).
		WithContext("resource", resource).
		WithContext("name", name).
		WithRecoverable(false)
}
