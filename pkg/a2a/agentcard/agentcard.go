// Package agentcard builds, publishes and fetches A2A agent cards.
package agentcard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
)

// Discovery constants for AgentCard HTTP endpoints.
const (
	// WellKnownPath is the standardized location for AgentCard discovery.
	WellKnownPath = "/.well-known/agent-card.json"
	// DefaultMediaType is the A2A media type for JSON payloads.
	DefaultMediaType = "application/a2a+json"

	protocolVersion = "0.3.0"
)

// Config describes AgentCard fields derived from runtime settings.
type Config struct {
	Name        string
	Description string
	URL         string
	Version     string
	Streaming   bool
	Skills      []types.AgentSkill
}

// Build assembles an AgentCard from the provided config.
func Build(cfg Config) *types.AgentCard {
	return &types.AgentCard{
		ProtocolVersion: protocolVersion,
		Name:            cfg.Name,
		Description:     cfg.Description,
		URL:             cfg.URL,
		Version:         cfg.Version,
		Capabilities: types.AgentCapabilities{
			Streaming: cfg.Streaming,
		},
		DefaultInputModes:  []string{"text/plain", "application/json"},
		DefaultOutputModes: []string{"text/plain", "application/json"},
		Skills:             cfg.Skills,
	}
}

// PublishHandler serves the provided AgentCard as JSON.
func PublishHandler(card *types.AgentCard) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if card == nil {
			http.Error(w, "agent card not configured", http.StatusNotFound)
			return
		}
		payload, err := json.Marshal(card)
		if err != nil {
			http.Error(w, "failed to encode agent card", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", DefaultMediaType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	})
}

// Fetch retrieves an AgentCard from a base URL.
func Fetch(ctx context.Context, baseURL string) (*types.AgentCard, error) {
	url := strings.TrimRight(baseURL, "/") + WellKnownPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", DefaultMediaType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent card fetch failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var card types.AgentCard
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}
