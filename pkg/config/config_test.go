package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Deployment != "local" {
		t.Errorf("expected default deployment local, got %s", cfg.Deployment)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected default provider ollama, got %s", cfg.LLM.Provider)
	}
	if cfg.Agent.MaxIterations != 8 {
		t.Errorf("expected default max_iterations 8, got %d", cfg.Agent.MaxIterations)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected default store backend memory, got %s", cfg.Store.Backend)
	}
	if cfg.Telemetry.Exporter != "stdout" {
		t.Errorf("expected default exporter stdout, got %s", cfg.Telemetry.Exporter)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRADEWIND_LLM_PROVIDER", "openai")
	t.Setenv("TRADEWIND_DEPLOYMENT", "docker")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("expected provider openai from env, got %s", cfg.LLM.Provider)
	}
	if cfg.Deployment != "docker" {
		t.Errorf("expected deployment docker from env, got %s", cfg.Deployment)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
deployment: docker
llm:
  model: llama3.1
store:
  backend: sqlite
  path: /var/lib/tradewind/tasks.db
mcp:
  servers:
    market-data:
      transport: http
      url: http://localhost:9100/mcp
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Model != "llama3.1" {
		t.Errorf("model = %s", cfg.LLM.Model)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/var/lib/tradewind/tasks.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
	server, ok := cfg.MCP.Servers["market-data"]
	if !ok || server.Transport != "http" || server.URL != "http://localhost:9100/mcp" {
		t.Errorf("mcp servers = %+v", cfg.MCP.Servers)
	}
	// File values merge over defaults without clobbering unrelated keys.
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider default lost: %s", cfg.LLM.Provider)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"deployment", map[string]string{"TRADEWIND_DEPLOYMENT": "cloud"}},
		{"store backend", map[string]string{"TRADEWIND_STORE_BACKEND": "postgres"}},
		{"telemetry exporter", map[string]string{"TRADEWIND_TELEMETRY_EXPORTER": "jaeger"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for key, value := range tc.env {
				t.Setenv(key, value)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAgentURL(t *testing.T) {
	cfg := &Config{Deployment: "local"}

	url, err := cfg.AgentURL("browser")
	if err != nil {
		t.Fatalf("AgentURL failed: %v", err)
	}
	if url != "http://localhost:8003" {
		t.Errorf("local browser url = %s", url)
	}

	cfg.Deployment = "docker"
	url, _ = cfg.AgentURL("executor")
	if url != "http://executor:8004" {
		t.Errorf("docker executor url = %s", url)
	}

	cfg.Agents.Endpoints = map[string]string{"executor": "http://broker-gw:9000"}
	url, _ = cfg.AgentURL("executor")
	if url != "http://broker-gw:9000" {
		t.Errorf("override lost: %s", url)
	}

	if _, err := cfg.AgentURL("ghost"); err == nil {
		t.Error("expected error for unknown agent")
	}
}

func TestWorkerEndpoints(t *testing.T) {
	cfg := &Config{Deployment: "local"}

	endpoints, err := cfg.WorkerEndpoints()
	if err != nil {
		t.Fatalf("WorkerEndpoints failed: %v", err)
	}

	want := map[string]string{
		"planner":   "http://localhost:8001",
		"knowledge": "http://localhost:8002",
		"browser":   "http://localhost:8003",
		"executor":  "http://localhost:8004",
	}
	if len(endpoints) != len(want) {
		t.Fatalf("endpoints = %v", endpoints)
	}
	for agent, url := range want {
		if endpoints[agent] != url {
			t.Errorf("%s = %s, want %s", agent, endpoints[agent], url)
		}
	}
}

func TestListenAddr(t *testing.T) {
	cfg := &Config{}

	addr, err := cfg.ListenAddr("supervisor")
	if err != nil {
		t.Fatalf("ListenAddr failed: %v", err)
	}
	if addr != ":8000" {
		t.Errorf("supervisor addr = %s", addr)
	}

	if _, err := cfg.ListenAddr("ghost"); err == nil {
		t.Error("expected error for unknown agent")
	}
}
