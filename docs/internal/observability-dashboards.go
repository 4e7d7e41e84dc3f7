// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

// Tradewind Observability Dashboards
// This file documents dashboard templates for Grafana or the OTEL UI against
// the instruments registered in pkg/telemetry/metrics.go.
//
// DASHBOARD: Workflow Throughput
//   Shows workflow runs by pattern and outcome.
//
//   Queries:
//   - tradewind.workflows.total{pattern, outcome} (rate 5m)
//     Display: Stacked bar per pattern (DATA_ONLY, DATA_ANALYSIS, FULL_WORKFLOW)
//     Alert Threshold: outcome="failed" > 10% of total for 5m
//
//   - tradewind.stages.total{stage, agent, outcome} (rate 5m)
//     Display: Line chart per agent
//     Insight: Which worker stalls a workflow pattern?
//
//   - tradewind.stage.duration_ms{stage, agent}
//     Display: p50/p95/p99 heatmap per stage
//     Alert Threshold: p95 > 30s for the analysis stage
//
// DASHBOARD: Error Rate & Recovery
//   Shows error trends with breakdown by error code and component.
//
//   Queries:
//   - tradewind.errors.total{error.code} (rate 5m)
//     Display: Line chart with legend (TOOL_FAILURE, TIMEOUT, RATE_LIMITED, LLM_ERROR, ...)
//     Alert Threshold: > 10 errors/min for INTERNAL or MEMORY_ERROR
//
//   - tradewind.errors.recovered{error.code} (rate 5m)
//     Display: Stacked area chart
//     Goal: errors.recovered / errors.total > 80%
//
// DASHBOARD: Component Health
//   Shows health of agents and their dependencies (LLM backend, Qdrant, MCP
//   servers, market-data connectors).
//
//   Queries:
//   - tradewind.health.status{component}
//     Metric: Current health (0=unhealthy, 1=degraded, 2=healthy)
//     Display: Status grid, red/yellow/green
//
//   - tradewind.circuitbreaker.state{component}
//     Metric: Circuit breaker state (0=open, 1=half-open, 2=closed)
//     Display: Status panels per component
//
// ALERT RULES (Prometheus/AlertManager format):
//
// Alert 1: High Error Rate
//   Name: TradewindHighErrorRate
//   Condition: rate(tradewind.errors.total[5m]) > 10
//   Duration: 2m
//   Severity: critical
//   Message: "Tradewind error rate {{ $value }} errors/sec, threshold 10"
//
// Alert 2: Low Recovery Rate
//   Name: TradewindLowRecoveryRate
//   Condition: rate(tradewind.errors.recovered[5m]) / rate(tradewind.errors.total[5m]) < 0.8
//   Duration: 5m
//   Severity: warning
//
// Alert 3: Circuit Breaker Open
//   Name: TradewindCircuitBreakerOpen
//   Condition: tradewind.circuitbreaker.state{component=~".*"} == 0
//   Duration: 1m
//   Severity: critical
//   Message: "Circuit breaker OPEN on {{ $labels.component }}, using fallback"
//
// Alert 4: Component Unhealthy
//   Name: TradewindComponentUnhealthy
//   Condition: tradewind.health.status{component=~".*"} == 0
//   Duration: 1m
//   Severity: critical
//
// Alert 5: Workflow Failures
//   Name: TradewindWorkflowFailures
//   Condition: rate(tradewind.workflows.total{outcome="failed"}[5m]) > 1
//   Duration: 2m
//   Severity: warning
//   Message: "{{ $value }} failed workflows/sec"
//
// PROMQL EXAMPLES:
//
// 1. Error Rate by Code (5-minute)
//    rate(tradewind.errors.total{error.code=~".+"}[5m]) group by (error.code)
//
// 2. Recovery Success Percentage
//    (rate(tradewind.errors.recovered[5m]) / rate(tradewind.errors.total[5m])) * 100
//
// 3. Slowest Stages
//    topk(5, histogram_quantile(0.95, tradewind.stage.duration_ms))
//
// 4. Workflow Mix
//    sum(rate(tradewind.workflows.total[1h])) by (pattern)
//
// SLO TRACKING:
//   - Error rate SLO: errors/min < 5
//   - Recovery rate SLO: recovered/errors > 80%
//   - Stage latency SLO: p95 stage duration < 30s
//   - Component health SLO: all components HEALTHY >= 95% of time
//
package internal

// This file is documentation only and is not compiled.
// See pkg/telemetry/metrics.go for the instruments.
