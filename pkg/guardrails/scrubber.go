// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package guardrails

import (
	"context"
	"regexp"
)

// scrubRule masks one kind of sensitive value.
type scrubRule struct {
	kind    string
	pattern *regexp.Regexp
	mask    string
}

// Values a trading worker can plausibly leak: broker credentials pulled
// from config or tool output, account identifiers from portfolio rows, and
// personal contact details. Rules run in order; more specific formats come
// before the ones they overlap with.
var defaultScrubRules = []scrubRule{
	{"api_key", regexp.MustCompile(`(?i)\b(?:sk|pk|api|key|token)[-_][A-Za-z0-9]{16,}\b`), "[API_KEY]"},
	{"iban", regexp.MustCompile(`\b[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}\b`), "[IBAN]"},
	{"card_number", regexp.MustCompile(`\b[0-9]{4}[- ]?[0-9]{4}[- ]?[0-9]{4}[- ]?[0-9]{4}\b`), "[CARD]"},
	{"tax_id", regexp.MustCompile(`\b[0-9]{3}[- ]?[0-9]{2}[- ]?[0-9]{4}\b`), "[TAX_ID]"},
	{"account_number", regexp.MustCompile(`(?i)\b(?:account|acct)[ #:]+[0-9]{6,}\b`), "[ACCOUNT]"},
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`), "[EMAIL]"},
	{"phone", regexp.MustCompile(`\+[0-9]{1,3}[-. ]?[0-9]{2,4}[-. ]?[0-9]{3}[-. ]?[0-9]{3,4}`), "[PHONE]"},
}

// Scrubber masks sensitive values in worker output before it is returned,
// stored in conversation history, or written to long-term memory.
type Scrubber struct {
	rules []scrubRule
}

type ScrubberOption func(*Scrubber)

// WithScrubRule adds a deployment-specific masking rule.
func WithScrubRule(kind, pattern, mask string) ScrubberOption {
	return func(s *Scrubber) {
		s.rules = append(s.rules, scrubRule{kind, regexp.MustCompile(pattern), mask})
	}
}

func NewScrubber(opts ...ScrubberOption) *Scrubber {
	s := &Scrubber{rules: defaultScrubRules}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scrubber) ID() string { return "sensitive-value-scrubber" }

// Filter replaces every match of every rule. Redactions carry the kind and
// mask, never the original value.
func (s *Scrubber) Filter(ctx context.Context, output string) FilterResult {
	result := FilterResult{Content: output}
	if output == "" {
		return result
	}
	for _, rule := range s.rules {
		if ctx.Err() != nil {
			return result
		}
		count := len(rule.pattern.FindAllStringIndex(result.Content, -1))
		if count == 0 {
			continue
		}
		result.Content = rule.pattern.ReplaceAllString(result.Content, rule.mask)
		result.Modified = true
		for i := 0; i < count; i++ {
			result.Redactions = append(result.Redactions, Redaction{Kind: rule.kind, Replacement: rule.mask})
		}
	}
	return result
}

// Check blocks input that carries credentials: an instruction should never
// need a raw API key or account number inline.
func (s *Scrubber) Check(ctx context.Context, input string) CheckResult {
	if input == "" {
		return CheckResult{}
	}
	for _, rule := range s.rules {
		if ctx.Err() != nil {
			return CheckResult{}
		}
		if rule.pattern.MatchString(input) {
			return CheckResult{
				Blocked:     true,
				Reason:      "sensitive value in input: " + rule.kind,
				GuardrailID: s.ID(),
				Detail:      map[string]string{"kind": rule.kind},
			}
		}
	}
	return CheckResult{}
}

// WithOutputScrubber adds value masking to the output chain.
func WithOutputScrubber(opts ...ScrubberOption) Option {
	return func(g *Guardrails) {
		g.filters = append(g.filters, NewScrubber(opts...))
	}
}

// WithSensitiveInputCheck blocks instructions that embed credentials.
func WithSensitiveInputCheck(opts ...ScrubberOption) Option {
	return func(g *Guardrails) {
		g.checks = append(g.checks, NewScrubber(opts...))
	}
}
