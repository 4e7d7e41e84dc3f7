package agentcard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
)

func TestBuild(t *testing.T) {
	card := Build(Config{
		Name:        "SupervisorAgent",
		Description: "workflow orchestrator",
		URL:         "http://localhost:8000",
		Version:     "1.0.0",
		Streaming:   true,
		Skills: []types.AgentSkill{
			{ID: "automation_orchestrator", Name: "Workflow orchestration"},
		},
	})

	if card.ProtocolVersion == "" {
		t.Fatalf("expected protocol version set")
	}
	if !card.Capabilities.Streaming {
		t.Fatalf("expected streaming capability")
	}
	if len(card.Skills) != 1 || card.Skills[0].ID != "automation_orchestrator" {
		t.Fatalf("unexpected skills: %+v", card.Skills)
	}
}

func TestPublishAndFetch(t *testing.T) {
	card := Build(Config{
		Name:        "BrowserAgent",
		Description: "web data collection",
		URL:         "http://localhost:8003",
		Version:     "1.0.0",
	})

	mux := http.NewServeMux()
	mux.Handle(WellKnownPath, PublishHandler(card))
	server := httptest.NewServer(mux)
	defer server.Close()

	fetched, err := Fetch(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if fetched.Name != "BrowserAgent" {
		t.Fatalf("expected BrowserAgent, got %q", fetched.Name)
	}
	if fetched.URL != "http://localhost:8003" {
		t.Fatalf("unexpected url %q", fetched.URL)
	}
}

func TestFetchRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	if _, err := Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for missing card")
	}
}
