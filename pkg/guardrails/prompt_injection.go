// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package guardrails

import (
	"context"
	"regexp"
)

// injectionGroup is one family of injection technique. The group name goes
// into the block reason so operators can tell an override attempt from a
// risk-limit bypass in the logs.
type injectionGroup struct {
	name     string
	patterns []*regexp.Regexp
}

var defaultInjectionGroups = compileInjectionGroups([]rawInjectionGroup{
	{"instruction-override", []string{
		`ignore (all |any )?(previous|prior|earlier|above) (instructions?|prompts?|rules?|messages?)`,
		`(disregard|forget|override) (all |any )?(previous|prior|earlier|above) (instructions?|prompts?|rules?)`,
		`new (system )?instructions?:`,
		`from now on,? (you|your) `,
	}},
	{"persona-swap", []string{
		`you are (now|no longer) (a|an|the) `,
		`pretend (you are|to be) `,
		`act as (a|an|if|though) `,
		`switch to \w+ mode`,
	}},
	{"prompt-exfiltration", []string{
		`(show|reveal|print|repeat|dump) (me )?(your|the) (system )?(prompt|instructions?)`,
		`what (is|are) your (system )?(prompt|instructions?)`,
	}},
	{"delimiter-smuggling", []string{
		`<\|[^|]*\|>`,
		`\[/?inst\]`,
		`<<\/?sys>>`,
		`\]\]\s*system\s*:`,
	}},
	// Instructions that read as normal trading requests but ask the worker
	// to step around its own controls.
	{"control-bypass", []string{
		`(bypass|skip|disable|turn off) (the )?(risk|compliance|governance|approval|guardrail) (checks?|limits?|gates?|reviews?|policies)`,
		`ignore (the |your )?(risk|position|exposure|loss) limits?`,
		`(place|submit|execute) (the |this )?orders? without (approval|review|confirmation)`,
		`(hide|conceal|omit) (this|the|that) (order|trade|position) from`,
		`do not (log|record|report) (this|the) (order|trade)`,
	}},
})

type rawInjectionGroup struct {
	name     string
	patterns []string
}

func compileInjectionGroups(raw []rawInjectionGroup) []injectionGroup {
	groups := make([]injectionGroup, 0, len(raw))
	for _, g := range raw {
		compiled := injectionGroup{name: g.name}
		for _, p := range g.patterns {
			compiled.patterns = append(compiled.patterns, regexp.MustCompile(`(?i)`+p))
		}
		groups = append(groups, compiled)
	}
	return groups
}

// PromptInjectionDetector blocks instructions that try to rewrite the
// worker's behavior: system-prompt overrides, persona swaps, prompt
// exfiltration, delimiter smuggling, and control-bypass requests.
type PromptInjectionDetector struct {
	groups []injectionGroup
}

type PromptInjectionOption func(*PromptInjectionDetector)

// WithInjectionPatterns adds deployment-specific patterns under the named
// group. Patterns are case-insensitive.
func WithInjectionPatterns(group string, patterns ...string) PromptInjectionOption {
	return func(d *PromptInjectionDetector) {
		extra := compileInjectionGroups([]rawInjectionGroup{{group, patterns}})
		d.groups = append(d.groups, extra...)
	}
}

func NewPromptInjectionDetector(opts ...PromptInjectionOption) *PromptInjectionDetector {
	d := &PromptInjectionDetector{groups: defaultInjectionGroups}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *PromptInjectionDetector) ID() string { return "prompt-injection" }

// Check blocks on the first matching group. One technique is enough; there
// is no score to accumulate.
func (d *PromptInjectionDetector) Check(ctx context.Context, input string) CheckResult {
	if input == "" {
		return CheckResult{}
	}
	for _, group := range d.groups {
		if ctx.Err() != nil {
			return CheckResult{}
		}
		for _, pattern := range group.patterns {
			if pattern.MatchString(input) {
				return CheckResult{
					Blocked:     true,
					Reason:      "prompt injection: " + group.name,
					GuardrailID: d.ID(),
					Detail:      map[string]string{"group": group.name},
				}
			}
		}
	}
	return CheckResult{}
}

// WithPromptInjectionDetector adds injection detection to the input chain.
func WithPromptInjectionDetector(opts ...PromptInjectionOption) Option {
	return func(g *Guardrails) {
		g.checks = append(g.checks, NewPromptInjectionDetector(opts...))
	}
}
