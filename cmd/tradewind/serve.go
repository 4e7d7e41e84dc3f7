// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tradewind-ai/tradewind/pkg/a2a/agentcard"
	"github.com/tradewind-ai/tradewind/pkg/a2a/client"
	"github.com/tradewind-ai/tradewind/pkg/a2a/jsonrpc"
	"github.com/tradewind-ai/tradewind/pkg/a2a/server"
	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/agent"
	"github.com/tradewind-ai/tradewind/pkg/config"
	"github.com/tradewind-ai/tradewind/pkg/connectors"
	"github.com/tradewind-ai/tradewind/pkg/core"
	"github.com/tradewind-ai/tradewind/pkg/governance"
	"github.com/tradewind-ai/tradewind/pkg/guardrails"
	"github.com/tradewind-ai/tradewind/pkg/llm"
	"github.com/tradewind-ai/tradewind/pkg/mcp"
	"github.com/tradewind-ai/tradewind/pkg/mcp/pool"
	"github.com/tradewind-ai/tradewind/pkg/memory"
	"github.com/tradewind-ai/tradewind/pkg/memory/ollama"
	"github.com/tradewind-ai/tradewind/pkg/memory/qdrant"
	"github.com/tradewind-ai/tradewind/pkg/resilience"
	"github.com/tradewind-ai/tradewind/pkg/skills"
	"github.com/tradewind-ai/tradewind/pkg/supervisor"
	"github.com/tradewind-ai/tradewind/pkg/telemetry"
)

func runSupervisor(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig("tradewind-supervisor", version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer shutdownTelemetry(shutdown, logger)
	}

	if stopWatch := watchConfig(ctx, cfg, logger); stopWatch != nil {
		defer stopWatch()
	}

	store, cleanup, err := newTaskStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	endpoints, err := cfg.WorkerEndpoints()
	if err != nil {
		return err
	}
	invoker := supervisor.NewA2AInvoker(endpoints, client.WithRetry(resilience.DefaultRetryConfig()))

	opts := []supervisor.DispatcherOption{
		supervisor.WithClassifier(supervisor.NewPlannerClassifier(invoker)),
		supervisor.WithLogger(logger),
	}
	if cfg.Telemetry.Enabled {
		metrics, err := telemetry.NewWorkflowMetrics(ctx)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		opts = append(opts, supervisor.WithMetrics(metrics))
	}
	dispatcher := supervisor.NewDispatcher(supervisor.NewTracker(), invoker, opts...)

	url, err := cfg.AgentURL("supervisor")
	if err != nil {
		return err
	}
	card := agentcard.Build(agentcard.Config{
		Name:        "tradewind-supervisor",
		Description: "Classifies trading instructions and dispatches workflow stages to worker agents",
		URL:         url,
		Version:     version,
		Streaming:   true,
		Skills: []types.AgentSkill{
			{
				ID:          "run-workflow",
				Name:        "Run trading workflow",
				Description: "Execute a data collection, analysis, or full trading workflow",
				Tags:        []string{"workflow", "trading", "orchestration"},
			},
		},
	})

	handler := &server.SimpleHandler{
		Store:     store,
		Executor:  &supervisor.Executor{Dispatcher: dispatcher},
		AgentCard: card,
	}

	mux := http.NewServeMux()
	mux.Handle(agentcard.WellKnownPath, agentcard.PublishHandler(card))
	mux.Handle("/", jsonrpc.New(handler))

	addr, err := cfg.ListenAddr("supervisor")
	if err != nil {
		return err
	}
	return serveHTTP(ctx, logger, "supervisor", addr, mux)
}

func runWorker(ctx context.Context, cfg *config.Config, roleName string) error {
	addr, err := cfg.ListenAddr(roleName)
	if err != nil {
		return err
	}
	if roleName == "supervisor" {
		return fmt.Errorf("supervisor is not a worker role")
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitWithConfig("tradewind-"+roleName, version, telemetry.Config{
			Exporter:     cfg.Telemetry.Exporter,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer shutdownTelemetry(shutdown, logger)
	}

	if stopWatch := watchConfig(ctx, cfg, logger); stopWatch != nil {
		defer stopWatch()
	}

	roles, err := agent.LoadRoles(cfg.Agent.RolePack)
	if err != nil {
		return err
	}
	role, ok := roles[roleName]
	if !ok {
		return fmt.Errorf("unknown worker role %q", roleName)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	tools, closeTools := connectMCPTools(ctx, cfg, logger)
	defer closeTools()

	connectorTools, closeConnectors, err := connectConnectorTools(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeConnectors()
	tools = append(tools, connectorTools...)

	if cfg.Agent.SkillsDir != "" {
		skillTools, err := skills.LoadToolsFromDir(cfg.Agent.SkillsDir)
		if err != nil {
			return fmt.Errorf("load skills: %w", err)
		}
		for _, tool := range skillTools {
			tools = append(tools, tool)
		}
		logger.Info("skills loaded", "dir", cfg.Agent.SkillsDir, "count", len(skillTools))
	}

	if cfg.Governance.Enabled {
		approvals := governance.NewApprovalStore(cfg.Governance.ApprovalTTL)
		sweeper := governance.NewSweeper(approvals, time.Minute, logger)
		sweeper.Start(ctx)
		defer sweeper.Stop()

		filter := governance.NewToolFilter(roleName,
			governance.WithAllowlist(cfg.Governance.AllowedTools[roleName]),
			governance.WithPolicyEngine(governance.RulesFromConfig(cfg.Governance)),
			governance.WithApprovalStore(approvals),
		)
		tools = filter.Filter(tools)
	}

	conversation, closeConversation, err := newConversation(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeConversation()

	workerOpts := []agent.WorkerOption{
		agent.WithModel(cfg.LLM.Model),
		agent.WithWorkerTools(tools...),
		agent.WithConversation(conversation),
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithHistoryLimit(cfg.Agent.HistoryLimit),
		agent.WithWorkerLogger(logger),
	}
	if cfg.Agent.Guardrails {
		workerOpts = append(workerOpts, agent.WithGuardrails(guardrails.New(
			guardrails.WithPromptInjectionDetector(),
			guardrails.WithMarketAbuseChecker(),
			guardrails.WithOutputScrubber(),
		)))
	}
	if recall := newRecall(ctx, cfg, logger); recall != nil {
		workerOpts = append(workerOpts, agent.WithRecall(recall))
	}
	if cfg.Telemetry.Enabled {
		metrics, err := telemetry.NewWorkflowMetrics(ctx)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		workerOpts = append(workerOpts, agent.WithWorkerMetrics(metrics))
	}

	worker, err := agent.NewWorker(roleName, role, provider, workerOpts...)
	if err != nil {
		return err
	}

	store, cleanup, err := newTaskStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	url, err := cfg.AgentURL(roleName)
	if err != nil {
		return err
	}
	card := agentcard.Build(agentcard.Config{
		Name:        "tradewind-" + roleName,
		Description: role.Description,
		URL:         url,
		Version:     version,
		Streaming:   true,
		Skills:      agentSkills(role.CoreSkills()),
	})

	handler := &server.SimpleHandler{
		Store:     store,
		Executor:  worker,
		AgentCard: card,
	}

	mux := http.NewServeMux()
	mux.Handle(agentcard.WellKnownPath, agentcard.PublishHandler(card))
	mux.Handle("/", jsonrpc.New(handler))

	return serveHTTP(ctx, logger, roleName, addr, mux)
}

// watchConfig polls the config file behind a running agent and applies the
// settings that can change live, currently the log level. Returns nil when
// the agent runs on defaults and environment only.
func watchConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	path := cfg.Source()
	if path == "" {
		return nil
	}

	watcher, err := config.NewWatcher(path, config.WithWatchLogger(logger))
	if err != nil {
		logger.Warn("config watch disabled", "path", path, "error", err)
		return nil
	}
	watcher.OnChange(func(next *config.Config) {
		telemetry.SetLogLevel(next.Log.Level)
		logger.Info("log level applied", "level", next.Log.Level)
	})
	watcher.Start(ctx)
	return watcher.Stop
}

func newProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return llm.NewOllama(cfg.LLM.BaseURL), nil
	case "openai":
		return llm.NewOpenAI(cfg.LLM.BaseURL, cfg.LLM.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func newTaskStore(cfg *config.Config) (server.TaskStore, func(), error) {
	if cfg.Store.Backend != "sqlite" {
		return server.NewMemoryTaskStore(), func() {}, nil
	}
	db, err := server.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open task store: %w", err)
	}
	store, err := server.NewSQLiteTaskStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init task store: %w", err)
	}
	return store, func() { db.Close() }, nil
}

func newConversation(ctx context.Context, cfg *config.Config) (memory.ConversationMemory, func(), error) {
	if cfg.Store.Backend != "sqlite" {
		return memory.NewInMemoryConversation(memory.ConversationConfig{}), func() {}, nil
	}
	db, err := memory.OpenConversationDB(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open conversation store: %w", err)
	}
	conversation, err := memory.NewSQLiteConversation(memory.SQLiteConversationConfig{DB: db})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := conversation.Initialize(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init conversation store: %w", err)
	}
	return conversation, func() { db.Close() }, nil
}

// newRecall connects long-term vector memory. Failures are logged, not fatal:
// a worker without recall still serves its stage.
func newRecall(ctx context.Context, cfg *config.Config, logger *slog.Logger) core.Memory {
	if !cfg.Memory.Enabled {
		return nil
	}
	store, err := qdrant.New(cfg.Memory.QdrantAddr)
	if err != nil {
		logger.Warn("vector memory unavailable", "error", err)
		return nil
	}
	embedder := ollama.NewEmbedder(cfg.Memory.EmbedderBaseURL, cfg.Memory.EmbedderModel)
	recall := memory.NewVectorMemory(store, embedder, cfg.Memory.Collection)
	if err := recall.Initialize(ctx); err != nil {
		logger.Warn("vector memory init failed", "error", err)
		return nil
	}
	return recall
}

// connectMCPTools registers every configured MCP server with a shared
// connection pool and adapts its tools. Unreachable servers are skipped
// with a warning so workers can start while a tool backend is still coming
// up; the pool's health loop retires connections that break later.
func connectMCPTools(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]core.Tool, func()) {
	if len(cfg.MCP.Servers) == 0 {
		return nil, func() {}
	}

	mcpPool := pool.New(pool.WithPoolLogger(logger))
	var tools []core.Tool

	for name, serverCfg := range cfg.MCP.Servers {
		err := mcpPool.Register(pool.Server{
			Name:      name,
			Transport: serverCfg.Transport,
			Command:   serverCfg.Command,
			Args:      serverCfg.Args,
			URL:       serverCfg.URL,
		})
		if err != nil {
			logger.Warn("invalid mcp server config", "server", name, "error", err)
			continue
		}

		mcpClient, err := mcpPool.Get(ctx, name)
		if err != nil {
			logger.Warn("mcp server unavailable", "server", name, "error", err)
			continue
		}

		listed, err := mcpClient.ListTools(ctx)
		if err != nil {
			logger.Warn("mcp tool listing failed", "server", name, "error", err)
			mcpPool.Release(name)
			continue
		}

		for _, tool := range listed {
			adapter, err := mcp.NewToolAdapter(tool, mcpClient)
			if err != nil {
				logger.Warn("skipping mcp tool", "server", name, "tool", tool.Name, "error", err)
				continue
			}
			tools = append(tools, adapter)
		}
		logger.Info("mcp server connected", "server", name, "tools", len(listed))
	}

	return tools, func() { mcpPool.Close() }
}

// connectConnectorTools builds tools from configured OpenAPI documents and
// databases. Connector errors are fatal: unlike MCP servers these are static
// definitions, and a worker silently missing its portfolio tools is worse
// than one that fails to start.
func connectConnectorTools(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]core.Tool, func(), error) {
	var tools []core.Tool
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, apiCfg := range cfg.Connectors.OpenAPI {
		var opts []connectors.OpenAPIOption
		if apiCfg.BaseURL != "" {
			opts = append(opts, connectors.WithBaseURL(apiCfg.BaseURL))
		}
		if apiCfg.APIKey != "" {
			opts = append(opts, connectors.WithAPIKey(apiCfg.APIKeyHeader, apiCfg.APIKey))
		}
		if apiCfg.BearerToken != "" {
			opts = append(opts, connectors.WithBearerToken(apiCfg.BearerToken))
		}

		var connector *connectors.OpenAPIConnector
		var err error
		if strings.HasPrefix(apiCfg.Spec, "http://") || strings.HasPrefix(apiCfg.Spec, "https://") {
			connector, err = connectors.NewFromURL(apiCfg.Spec, opts...)
		} else {
			connector, err = connectors.NewFromFile(apiCfg.Spec, opts...)
		}
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("openapi connector %s: %w", apiCfg.Spec, err)
		}
		generated := connector.Tools()
		tools = append(tools, generated...)
		logger.Info("openapi connector attached", "spec", apiCfg.Spec, "tools", len(generated))
	}

	for _, sqlCfg := range cfg.Connectors.SQL {
		db, err := sql.Open(sqlCfg.Driver, sqlCfg.DSN)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("sql connector %s: %w", sqlCfg.Driver, err)
		}
		var opts []connectors.SQLOption
		if sqlCfg.ToolPrefix != "" {
			opts = append(opts, connectors.WithSQLToolPrefix(sqlCfg.ToolPrefix))
		}
		if sqlCfg.ReadOnly {
			opts = append(opts, connectors.WithSQLReadOnly())
		}
		connector, err := connectors.NewSQLConnector(ctx, db, sqlCfg.Driver, opts...)
		if err != nil {
			db.Close()
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, connector.Close)
		generated := connector.Tools()
		tools = append(tools, generated...)
		logger.Info("sql connector attached", "driver", sqlCfg.Driver, "tools", len(generated))
	}

	return tools, closeAll, nil
}

func agentSkills(skills []core.Skill) []types.AgentSkill {
	out := make([]types.AgentSkill, 0, len(skills))
	for _, skill := range skills {
		out = append(out, types.AgentSkill{
			ID:          skill.ID,
			Name:        skill.Name,
			Description: skill.Description,
			Tags:        skill.Tags,
		})
	}
	return out
}

func serveHTTP(ctx context.Context, logger *slog.Logger, name, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("agent listening", "agent", name, "addr", addr)

	select {
	case <-ctx.Done():
		logger.Info("shutting down", "agent", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func shutdownTelemetry(shutdown telemetry.ShutdownFunc, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", "error", err)
	}
}
