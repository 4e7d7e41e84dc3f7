// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed error handling with rich context for
// Tradewind workflow runs and agent invocations.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Tradewind errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates a malformed or empty workflow request.
	// Reported before any task state is created.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeStageFailure indicates a worker-agent invocation failed for a
	// stage (network, timeout, malformed response).
	CodeStageFailure ErrorCode = "STAGE_FAILURE"

	// CodeUnknownWorkflow indicates an operation referenced a workflow
	// identifier with no tracked state.
	CodeUnknownWorkflow ErrorCode = "UNKNOWN_WORKFLOW"

	// CodeDuplicateWorkflow indicates a workflow identifier is already
	// being tracked.
	CodeDuplicateWorkflow ErrorCode = "DUPLICATE_WORKFLOW"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeUnauthorized indicates authorization failed.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeToolFailure indicates an MCP tool execution failed.
	CodeToolFailure ErrorCode = "TOOL_FAILURE"

	// CodeLLMError indicates an LLM provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeMemoryError indicates a memory backend error.
	CodeMemoryError ErrorCode = "MEMORY_ERROR"

	// CodePolicyDenied indicates a tool call was rejected by governance
	// policy.
	CodePolicyDenied ErrorCode = "POLICY_DENIED"

	// CodeApprovalPending indicates a tool call is held for an operator
	// decision.
	CodeApprovalPending ErrorCode = "APPROVAL_PENDING"
)

// Error is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type Error struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int // For A2A HTTP responses
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new Error with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *Error) WithAttribute(key, value string) *Error {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

// AsError attempts to convert an error to a typed Error.
// Returns the error as *Error if it is one, or wraps it otherwise.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if te, ok := err.(*Error); ok {
		return te
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the error code, or CodeInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if te, ok := err.(*Error); ok {
		return te.Code
	}
	return CodeInternal
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *Error) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound, CodeUnknownWorkflow:
		return 404
	case CodeUnauthorized:
		return 401
	case CodePolicyDenied:
		return 403
	case CodeApprovalPending:
		return 202
	case CodeInvalidInput:
		return 400
	case CodeDuplicateWorkflow:
		return 409
	case CodeTimeout:
		return 408
	default:
		return 500
	}
}
