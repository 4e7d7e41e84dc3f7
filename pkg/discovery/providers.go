// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"sort"

	"github.com/tradewind-ai/tradewind/pkg/a2a/agentcard"
	"github.com/tradewind-ai/tradewind/pkg/config"
)

// ConfigProvider lists agents from the deployment endpoint table without
// touching the network.
type ConfigProvider struct {
	endpoints map[string]string
}

// NewConfigProvider builds a provider over the full agent table, supervisor
// included.
func NewConfigProvider(cfg *config.Config) (*ConfigProvider, error) {
	endpoints, err := cfg.WorkerEndpoints()
	if err != nil {
		return nil, err
	}
	supervisorURL, err := cfg.AgentURL("supervisor")
	if err != nil {
		return nil, err
	}
	endpoints["supervisor"] = supervisorURL
	return &ConfigProvider{endpoints: endpoints}, nil
}

func (p *ConfigProvider) List(_ context.Context) ([]Agent, error) {
	out := make([]Agent, 0, len(p.endpoints))
	for name, url := range p.endpoints {
		out = append(out, Agent{Name: name, URL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// WellKnownProvider probes each endpoint for its published agent card. An
// unreachable endpoint still appears in the result, marked not reachable, so
// callers can report holes in the deployment.
type WellKnownProvider struct {
	endpoints map[string]string
}

func NewWellKnownProvider(endpoints map[string]string) *WellKnownProvider {
	return &WellKnownProvider{endpoints: endpoints}
}

func (p *WellKnownProvider) List(ctx context.Context) ([]Agent, error) {
	out := make([]Agent, 0, len(p.endpoints))
	for name, url := range p.endpoints {
		agent := Agent{Name: name, URL: url}
		if card, err := agentcard.Fetch(ctx, url); err == nil {
			agent.Reachable = true
			agent.Version = card.Version
			for _, skill := range card.Skills {
				agent.Skills = append(agent.Skills, skill.ID)
			}
		}
		out = append(out, agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
