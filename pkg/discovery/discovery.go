// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Package discovery locates the agents of a deployment: which logical names
// exist, where they listen, and what their published agent cards advertise.
package discovery

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// Agent is one discovered agent endpoint. Card fields are only populated by
// providers that actually fetched the agent card.
type Agent struct {
	Name      string
	URL       string
	Version   string
	Skills    []string
	Reachable bool
}

// Provider lists agent endpoints from one source.
type Provider interface {
	List(ctx context.Context) ([]Agent, error)
}

// Resolver merges providers in priority order. Earlier providers win on
// duplicate names, so a probing provider listed first can overlay liveness
// onto a static table listed after it.
type Resolver struct {
	providers []Provider
}

func NewResolver(providers ...Provider) (*Resolver, error) {
	filtered := make([]Provider, 0, len(providers))
	for _, provider := range providers {
		if provider != nil {
			filtered = append(filtered, provider)
		}
	}
	if len(filtered) == 0 {
		return nil, errors.New("discovery: no providers configured")
	}
	return &Resolver{providers: filtered}, nil
}

// Resolve returns the merged agent list, deduped by name, sorted by name.
func (r *Resolver) Resolve(ctx context.Context) ([]Agent, error) {
	seen := map[string]struct{}{}
	var out []Agent
	for _, provider := range r.providers {
		agents, err := provider.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, agent := range agents {
			key := strings.ToLower(strings.TrimSpace(agent.Name))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, agent)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
