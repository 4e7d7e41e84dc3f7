// Package config loads layered configuration: defaults, YAML file, then
// TRADEWIND_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Deployment selects the per-agent endpoint table: local or docker.
	Deployment string          `koanf:"deployment"`
	Log        LogConfig       `koanf:"log"`
	LLM        LLMConfig       `koanf:"llm"`
	Agent      AgentConfig     `koanf:"agent"`
	Agents     AgentsConfig    `koanf:"agents"`
	Telemetry  TelemetryConfig `koanf:"telemetry"`
	Memory     MemoryConfig    `koanf:"memory"`
	Store      StoreConfig     `koanf:"store"`
	MCP        MCPConfig       `koanf:"mcp"`
	Governance GovernanceConfig `koanf:"governance"`
	Connectors ConnectorsConfig `koanf:"connectors"`

	// path is the file this config was loaded from, empty when running on
	// defaults and environment only.
	path string
}

// Source returns the config file path, or "" when no file was used.
func (c *Config) Source() string { return c.path }

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // ollama, openai
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

// AgentConfig tunes the worker loop.
type AgentConfig struct {
	MaxIterations int    `koanf:"max_iterations"`
	HistoryLimit  int    `koanf:"history_limit"`
	RolePack      string `koanf:"role_pack"`  // optional YAML override file
	SkillsDir     string `koanf:"skills_dir"` // optional SKILL.md playbook directory
	Guardrails    bool   `koanf:"guardrails"`
}

// AgentsConfig overrides the deployment endpoint table per agent.
type AgentsConfig struct {
	Endpoints map[string]string `koanf:"endpoints"`
}

type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	Exporter     string `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type MemoryConfig struct {
	Enabled          bool   `koanf:"enabled"`
	Provider         string `koanf:"provider"` // vector, inmemory
	QdrantAddr       string `koanf:"qdrant_addr"`
	Collection       string `koanf:"collection"`
	EmbedderProvider string `koanf:"embedder_provider"` // ollama
	EmbedderBaseURL  string `koanf:"embedder_base_url"`
	EmbedderModel    string `koanf:"embedder_model"`
}

// StoreConfig selects the task/conversation persistence backend.
type StoreConfig struct {
	Backend string `koanf:"backend"` // memory, sqlite
	Path    string `koanf:"path"`
}

// MCPServerConfig describes one MCP server connection.
type MCPServerConfig struct {
	Transport string   `koanf:"transport"` // stdio, http
	Command   string   `koanf:"command"`
	Args      []string `koanf:"args"`
	URL       string   `koanf:"url"`
}

type MCPConfig struct {
	Servers map[string]MCPServerConfig `koanf:"servers"`
}

// GovernanceConfig restricts tool access per role and holds sensitive tool
// calls for operator approval.
type GovernanceConfig struct {
	Enabled      bool                `koanf:"enabled"`
	AllowedTools map[string][]string `koanf:"allowed_tools"` // per role
	Policies     []PolicyRuleConfig  `koanf:"policies"`
	ApprovalTTL  time.Duration       `koanf:"approval_ttl"`
}

// PolicyRuleConfig is one governance rule. Effect is allow, deny, or pending.
type PolicyRuleConfig struct {
	ID     string   `koanf:"id"`
	Effect string   `koanf:"effect"`
	Tool   string   `koanf:"tool"`
	Roles  []string `koanf:"roles"`
	Reason string   `koanf:"reason"`
}

// ConnectorsConfig attaches external data surfaces as worker tools.
type ConnectorsConfig struct {
	OpenAPI []OpenAPIConnectorConfig `koanf:"openapi"`
	SQL     []SQLConnectorConfig     `koanf:"sql"`
}

// OpenAPIConnectorConfig points at an OpenAPI document. Spec is a file
// path or URL.
type OpenAPIConnectorConfig struct {
	Spec         string `koanf:"spec"`
	BaseURL      string `koanf:"base_url"`
	APIKeyHeader string `koanf:"api_key_header"`
	APIKey       string `koanf:"api_key"`
	BearerToken  string `koanf:"bearer_token"`
}

// SQLConnectorConfig describes one database to expose as tools.
type SQLConnectorConfig struct {
	Driver     string `koanf:"driver"` // sqlite, postgres, mysql
	DSN        string `koanf:"dsn"`
	ToolPrefix string `koanf:"tool_prefix"`
	ReadOnly   bool   `koanf:"read_only"`
}

// agentPorts is the fixed port assignment shared by every deployment mode.
var agentPorts = map[string]int{
	"supervisor": 8000,
	"planner":    8001,
	"knowledge":  8002,
	"browser":    8003,
	"executor":   8004,
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	k = koanf.New(".")
	setDefaults()

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (TRADEWIND_LLM_PROVIDER -> llm.provider)
	if err := k.Load(env.Provider("TRADEWIND_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "TRADEWIND_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.path = path

	return &cfg, nil
}

func setDefaults() {
	k.Set("deployment", "local")

	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "qwen2.5-coder:7b-instruct-q5_K_M")
	k.Set("llm.base_url", "http://localhost:11434")

	k.Set("agent.max_iterations", 8)
	k.Set("agent.history_limit", 20)
	k.Set("agent.guardrails", true)

	k.Set("telemetry.enabled", false)
	k.Set("telemetry.exporter", "stdout")

	k.Set("memory.enabled", false)
	k.Set("memory.provider", "vector")
	k.Set("memory.qdrant_addr", "localhost:6334")
	k.Set("memory.collection", "tradewind")
	k.Set("memory.embedder_provider", "ollama")
	k.Set("memory.embedder_base_url", "http://localhost:11434")
	k.Set("memory.embedder_model", "nomic-embed-text")

	k.Set("store.backend", "memory")
	k.Set("store.path", "tradewind.db")

	k.Set("governance.enabled", false)
	k.Set("governance.approval_ttl", "15m")
}

// Validate rejects values with no defined behavior.
func (c *Config) Validate() error {
	switch c.Deployment {
	case "local", "docker":
	default:
		return fmt.Errorf("config: unknown deployment mode %q", c.Deployment)
	}
	switch c.Store.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	switch c.Telemetry.Exporter {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("config: unknown telemetry exporter %q", c.Telemetry.Exporter)
	}
	return nil
}

// ListenAddr returns the bind address for the named agent.
func (c *Config) ListenAddr(agent string) (string, error) {
	port, ok := agentPorts[agent]
	if !ok {
		return "", fmt.Errorf("config: unknown agent %q", agent)
	}
	return fmt.Sprintf(":%d", port), nil
}

// AgentURL returns the endpoint URL for the named agent under the active
// deployment mode, honoring per-agent overrides.
func (c *Config) AgentURL(agent string) (string, error) {
	if override, ok := c.Agents.Endpoints[agent]; ok && override != "" {
		return override, nil
	}
	port, ok := agentPorts[agent]
	if !ok {
		return "", fmt.Errorf("config: unknown agent %q", agent)
	}

	host := "localhost"
	if c.Deployment == "docker" {
		// Compose service names mirror the agent names.
		host = agent
	}
	return fmt.Sprintf("http://%s:%d", host, port), nil
}

// WorkerEndpoints returns the endpoint table for every worker agent.
func (c *Config) WorkerEndpoints() (map[string]string, error) {
	endpoints := make(map[string]string, len(agentPorts)-1)
	for agent := range agentPorts {
		if agent == "supervisor" {
			continue
		}
		url, err := c.AgentURL(agent)
		if err != nil {
			return nil, err
		}
		endpoints[agent] = url
	}
	return endpoints, nil
}
