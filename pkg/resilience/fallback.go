// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"

	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// FallbackStrategy defines a fallback behavior when the primary operation fails.
type FallbackStrategy interface {
	Execute(ctx context.Context, primaryErr error) (any, error)
}

// FallbackFunc wraps a function as a FallbackStrategy.
type FallbackFunc func(ctx context.Context, primaryErr error) (any, error)

// Execute implements FallbackStrategy.
func (f FallbackFunc) Execute(ctx context.Context, err error) (any, error) {
	return f(ctx, err)
}

// StaticFallback returns a static value on failure.
type StaticFallback struct {
	Value any
}

// Execute implements FallbackStrategy.
func (s *StaticFallback) Execute(ctx context.Context, primaryErr error) (any, error) {
	return s.Value, nil
}

// ErrorFallback returns an error with additional context.
type ErrorFallback struct {
	Message string
}

// Execute implements FallbackStrategy.
func (e *ErrorFallback) Execute(ctx context.Context, primaryErr error) (any, error) {
	return nil, errors.New(errors.CodeInternal, e.Message, primaryErr).
		WithContext("fallback", "error").
		WithRecoverable(false)
}

// ChainedFallback tries multiple fallbacks in sequence.
type ChainedFallback struct {
	Fallbacks []FallbackStrategy
}

// Execute implements FallbackStrategy.
func (c *ChainedFallback) Execute(ctx context.Context, primaryErr error) (any, error) {
	lastErr := primaryErr

	for _, fallback := range c.Fallbacks {
		value, err := fallback.Execute(ctx, lastErr)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

// WithFallback executes fn, and on error, uses the fallback strategy.
func WithFallback(ctx context.Context, fn func() (any, error), fallback FallbackStrategy) (any, error) {
	value, err := fn()
	if err == nil {
		return value, nil
	}

	return fallback.Execute(ctx, err)
}
