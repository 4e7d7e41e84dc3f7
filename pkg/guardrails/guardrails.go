// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package guardrails screens instruction and response content around the
// worker loop. Input checks run before an instruction reaches the model and
// block prompt injection and market-abuse requests; output filters run
// before a response leaves the worker and scrub account identifiers and
// other sensitive values.
//
// Guardrails inspect message content. Tool-call authorization is the
// governance package's job.
package guardrails

import "context"

// CheckResult is the outcome of one input check.
type CheckResult struct {
	Blocked     bool
	Reason      string
	GuardrailID string
	Detail      map[string]string
}

// Redaction records one value an output filter replaced.
type Redaction struct {
	Kind        string
	Replacement string
}

// FilterResult is the outcome of output filtering.
type FilterResult struct {
	Content    string
	Modified   bool
	Redactions []Redaction
}

// InputCheck examines an instruction before the model sees it.
type InputCheck interface {
	ID() string
	Check(ctx context.Context, input string) CheckResult
}

// OutputFilter rewrites a response before it leaves the worker.
type OutputFilter interface {
	ID() string
	Filter(ctx context.Context, output string) FilterResult
}

// Guardrails is an immutable check/filter pipeline assembled at worker
// startup.
type Guardrails struct {
	checks  []InputCheck
	filters []OutputFilter
}

type Option func(*Guardrails)

func New(opts ...Option) *Guardrails {
	g := &Guardrails{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithInputCheck appends a custom input check.
func WithInputCheck(check InputCheck) Option {
	return func(g *Guardrails) { g.checks = append(g.checks, check) }
}

// WithOutputFilter appends a custom output filter.
func WithOutputFilter(filter OutputFilter) Option {
	return func(g *Guardrails) { g.filters = append(g.filters, filter) }
}

// CheckInput runs every input check in order; the first block wins. A
// cancelled context blocks rather than waving unchecked input through.
func (g *Guardrails) CheckInput(ctx context.Context, input string) CheckResult {
	for _, check := range g.checks {
		if ctx.Err() != nil {
			return CheckResult{
				Blocked:     true,
				Reason:      "guardrail check cancelled",
				GuardrailID: "pipeline",
			}
		}
		if result := check.Check(ctx, input); result.Blocked {
			if result.GuardrailID == "" {
				result.GuardrailID = check.ID()
			}
			return result
		}
	}
	return CheckResult{}
}

// FilterOutput chains every output filter, each receiving the previous
// filter's content.
func (g *Guardrails) FilterOutput(ctx context.Context, output string) FilterResult {
	result := FilterResult{Content: output}
	for _, filter := range g.filters {
		if ctx.Err() != nil {
			return result
		}
		next := filter.Filter(ctx, result.Content)
		if next.Modified {
			result.Content = next.Content
			result.Modified = true
			result.Redactions = append(result.Redactions, next.Redactions...)
		}
	}
	return result
}
