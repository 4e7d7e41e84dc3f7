// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Exercises a real OTLP collector. Gated behind env vars so CI without a
// collector skips it.
func TestOTLPSmoke(t *testing.T) {
	cfg := smokeConfigFromEnv(t)

	shutdown, err := InitWithConfig("tradewind-smoke", "dev", cfg)
	if err != nil {
		t.Fatalf("init telemetry: %v", err)
	}

	tracer := otel.Tracer("tradewind/smoke")
	ctx, span := tracer.Start(context.Background(), "workflow.dispatch")
	span.SetAttributes(
		attribute.String("tradewind.workflow.pattern", "data_only"),
		attribute.String("tradewind.workflow.id", "smoke"),
	)
	span.End()

	meter := otel.Meter("tradewind/smoke")
	if counter, err := meter.Int64Counter("tradewind.workflows.total"); err == nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("pattern", "data_only")))
	}

	// Give the batcher a chance to export before the flush deadline.
	time.Sleep(2 * time.Second)

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		t.Fatalf("telemetry shutdown: %v", err)
	}
}

func smokeConfigFromEnv(t *testing.T) Config {
	t.Helper()
	if os.Getenv("TRADEWIND_OTLP_SMOKE_TEST") != "1" {
		t.Skip("set TRADEWIND_OTLP_SMOKE_TEST=1 to run")
	}
	endpoint := os.Getenv("TRADEWIND_TELEMETRY_OTLP_ENDPOINT")
	if endpoint == "" {
		t.Skip("set TRADEWIND_TELEMETRY_OTLP_ENDPOINT for the OTLP smoke test")
	}

	cfg := Config{
		Exporter:     "otlp",
		OTLPEndpoint: endpoint,
		OTLPInsecure: os.Getenv("TRADEWIND_TELEMETRY_OTLP_INSECURE") == "true",
	}
	if raw := os.Getenv("TRADEWIND_TELEMETRY_OTLP_TIMEOUT_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			cfg.OTLPTimeoutSeconds = seconds
		}
	}
	return cfg
}
