// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tradewind-ai/tradewind/pkg/core"
)

// cachedCheck rate-limits an expensive health probe.
type cachedCheck struct {
	lastCheck   time.Time
	lastResult  core.HealthResult
	minInterval time.Duration
	mu          sync.Mutex
}

func (c *cachedCheck) run(probe func() core.HealthResult) core.HealthResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.lastCheck) < c.minInterval && !c.lastResult.LastCheck.IsZero() {
		return c.lastResult
	}
	c.lastResult = probe()
	c.lastCheck = time.Now()
	return c.lastResult
}

// WorkerHealthChecker reports the health of a worker's wiring.
type WorkerHealthChecker struct {
	worker *Worker
	cache  cachedCheck
}

// NewWorkerHealthChecker creates a health checker for a worker.
func NewWorkerHealthChecker(worker *Worker) *WorkerHealthChecker {
	return &WorkerHealthChecker{
		worker: worker,
		cache:  cachedCheck{minInterval: 5 * time.Second},
	}
}

// Check returns the health status of the worker.
func (h *WorkerHealthChecker) Check(_ context.Context) core.HealthResult {
	return h.cache.run(func() core.HealthResult {
		result := core.HealthResult{
			Component: "agent:" + h.worker.id,
			LastCheck: time.Now(),
		}
		if h.worker.provider == nil {
			result.Status = core.HealthUnhealthy
			result.Message = "LLM provider not configured"
			return result
		}
		result.Status = core.HealthHealthy
		result.Message = fmt.Sprintf("worker operational (%d tools)", len(h.worker.tools))
		return result
	})
}

// LLMHealthChecker probes an LLM provider endpoint.
type LLMHealthChecker struct {
	name  string
	probe func(ctx context.Context) error
	cache cachedCheck
}

// NewLLMHealthChecker creates a health checker for an LLM provider. A nil
// probe reports healthy.
func NewLLMHealthChecker(name string, probe func(ctx context.Context) error) *LLMHealthChecker {
	return &LLMHealthChecker{
		name:  name,
		probe: probe,
		cache: cachedCheck{minInterval: 30 * time.Second},
	}
}

// Check returns the health status of the LLM provider.
func (h *LLMHealthChecker) Check(ctx context.Context) core.HealthResult {
	return h.cache.run(func() core.HealthResult {
		result := core.HealthResult{
			Component: "llm:" + h.name,
			LastCheck: time.Now(),
		}
		if h.probe == nil {
			result.Status = core.HealthHealthy
			result.Message = "no probe configured"
			return result
		}

		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := h.probe(probeCtx); err != nil {
			result.Status = core.HealthUnhealthy
			result.Message = err.Error()
			result.Error = err
			return result
		}
		result.Status = core.HealthHealthy
		result.Message = "provider responsive"
		return result
	})
}

// MemoryHealthChecker probes a memory backend with a no-op retrieve.
type MemoryHealthChecker struct {
	name   string
	memory core.Memory
	cache  cachedCheck
}

// NewMemoryHealthChecker creates a health checker for a memory backend.
func NewMemoryHealthChecker(name string, memory core.Memory) *MemoryHealthChecker {
	return &MemoryHealthChecker{
		name:   name,
		memory: memory,
		cache:  cachedCheck{minInterval: 10 * time.Second},
	}
}

// Check returns the health status of the memory backend.
func (h *MemoryHealthChecker) Check(ctx context.Context) core.HealthResult {
	return h.cache.run(func() core.HealthResult {
		result := core.HealthResult{
			Component: "memory:" + h.name,
			LastCheck: time.Now(),
		}
		if h.memory == nil {
			result.Status = core.HealthUnhealthy
			result.Message = "memory backend not configured"
			return result
		}

		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := h.memory.Retrieve(probeCtx, nil); err != nil {
			result.Status = core.HealthDegraded
			result.Message = "memory retrieve failed: " + err.Error()
			result.Error = err
			return result
		}
		result.Status = core.HealthHealthy
		result.Message = "memory backend responsive"
		return result
	})
}

// MCPHealthChecker probes an MCP client through tool discovery.
type MCPHealthChecker struct {
	name      string
	listTools func(ctx context.Context) (int, error)
	cache     cachedCheck
}

// NewMCPHealthChecker creates a health checker for an MCP client.
func NewMCPHealthChecker(name string, listTools func(ctx context.Context) (int, error)) *MCPHealthChecker {
	return &MCPHealthChecker{
		name:      name,
		listTools: listTools,
		cache:     cachedCheck{minInterval: 30 * time.Second},
	}
}

// Check returns the health status of the MCP client.
func (h *MCPHealthChecker) Check(ctx context.Context) core.HealthResult {
	return h.cache.run(func() core.HealthResult {
		result := core.HealthResult{
			Component: "mcp:" + h.name,
			LastCheck: time.Now(),
		}
		if h.listTools == nil {
			result.Status = core.HealthHealthy
			result.Message = "no probe configured"
			return result
		}

		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		count, err := h.listTools(probeCtx)
		if err != nil {
			result.Status = core.HealthUnhealthy
			result.Message = "tool discovery failed: " + err.Error()
			result.Error = err
			return result
		}
		result.Status = core.HealthHealthy
		result.Message = fmt.Sprintf("client operational (%d tools)", count)
		return result
	})
}

var (
	_ core.HealthChecker = (*WorkerHealthChecker)(nil)
	_ core.HealthChecker = (*LLMHealthChecker)(nil)
	_ core.HealthChecker = (*MemoryHealthChecker)(nil)
	_ core.HealthChecker = (*MCPHealthChecker)(nil)
)
