// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package guardrails

import (
	"context"
	"regexp"
)

// abuseRule names a manipulative trading practice and the phrasings that
// ask for it.
type abuseRule struct {
	practice string
	patterns []*regexp.Regexp
}

var defaultAbuseRules = compileAbuseRules(map[string][]string{
	"spoofing": {
		`(place|submit|stack) .{0,40}orders? .{0,40}(cancel|pull) (them |it )?before (they |it )?(fill|execute)`,
		`spoof(ing)? (the )?(order book|market|bids?|asks?)`,
		`layer(ing)? (the )?(book|bids?|asks?)`,
	},
	"wash-trading": {
		`wash trad(e|es|ing)`,
		`(trade|buy and sell) .{0,30}(with|against) (myself|ourselves|our own account)`,
		`(buy|sell) .{0,30}to (myself|ourselves|our own account)`,
	},
	"pump-and-dump": {
		`pump and dump`,
		`(inflate|pump) (the )?price .{0,40}(then |and )?(sell|dump|unload)`,
		`(spread|post) .{0,30}(rumors?|false information) .{0,40}(stock|price|market)`,
	},
	"front-running": {
		`front[- ]?run(ning)?`,
		`trade ahead of (the |a )?(client|customer|fund) orders?`,
	},
	"insider-trading": {
		`insider (information|tip|knowledge)`,
		`material non[- ]?public information`,
		`\bmnpi\b`,
	},
})

func compileAbuseRules(raw map[string][]string) []abuseRule {
	rules := make([]abuseRule, 0, len(raw))
	for practice, patterns := range raw {
		rule := abuseRule{practice: practice}
		for _, p := range patterns {
			rule.patterns = append(rule.patterns, regexp.MustCompile(`(?i)`+p))
		}
		rules = append(rules, rule)
	}
	return rules
}

// MarketAbuseChecker blocks instructions asking a worker to engage in
// manipulative trading practice. It screens the request text; whether a
// specific order sequence is manipulative in context is a compliance
// decision this detector does not attempt.
type MarketAbuseChecker struct {
	rules []abuseRule
}

type MarketAbuseOption func(*MarketAbuseChecker)

// WithAbusePatterns adds deployment-specific phrasings for a practice.
func WithAbusePatterns(practice string, patterns ...string) MarketAbuseOption {
	return func(c *MarketAbuseChecker) {
		c.rules = append(c.rules, compileAbuseRules(map[string][]string{practice: patterns})...)
	}
}

func NewMarketAbuseChecker(opts ...MarketAbuseOption) *MarketAbuseChecker {
	c := &MarketAbuseChecker{rules: defaultAbuseRules}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MarketAbuseChecker) ID() string { return "market-abuse" }

func (c *MarketAbuseChecker) Check(ctx context.Context, input string) CheckResult {
	if input == "" {
		return CheckResult{}
	}
	for _, rule := range c.rules {
		if ctx.Err() != nil {
			return CheckResult{}
		}
		for _, pattern := range rule.patterns {
			if pattern.MatchString(input) {
				return CheckResult{
					Blocked:     true,
					Reason:      "market abuse request: " + rule.practice,
					GuardrailID: c.ID(),
					Detail:      map[string]string{"practice": rule.practice},
				}
			}
		}
	}
	return CheckResult{}
}

// WithMarketAbuseChecker adds market-abuse screening to the input chain.
func WithMarketAbuseChecker(opts ...MarketAbuseOption) Option {
	return func(g *Guardrails) {
		g.checks = append(g.checks, NewMarketAbuseChecker(opts...))
	}
}
