// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/tradewind-ai/tradewind/pkg/core"
)

// logLevel backs every logger built by ConfigureSlog. SetLogLevel flips it
// at runtime, so a config reload changes verbosity without a restart.
var logLevel slog.LevelVar

// ConfigureSlog installs the process-wide logger. Records carry the active
// trace and span IDs and the workflow run ID when the context has them.
func ConfigureSlog(output io.Writer, level, format string) *slog.Logger {
	logLevel.Set(ParseLogLevel(level))
	opts := &slog.HandlerOptions{Level: &logLevel}

	var base slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		base = slog.NewJSONHandler(output, opts)
	} else {
		base = slog.NewTextHandler(output, opts)
	}

	logger := slog.New(&contextHandler{next: base})
	slog.SetDefault(logger)
	return logger
}

// SetLogLevel changes the level of every logger built by ConfigureSlog.
func SetLogLevel(level string) {
	logLevel.Set(ParseLogLevel(level))
}

// ParseLogLevel maps a config string to a slog level. Unknown values fall
// back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler stamps records with correlation IDs pulled from the
// context: the OTel trace and span when a span is active, and the workflow
// run ID when the dispatcher or worker has set one.
type contextHandler struct {
	next slog.Handler
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, record slog.Record) error {
	if ctx != nil {
		var attrs []slog.Attr
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			attrs = append(attrs,
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}
		if workflowID, ok := core.WorkflowID(ctx); ok {
			attrs = append(attrs, slog.String("workflow_id", workflowID))
		}
		if runID, ok := core.RunID(ctx); ok {
			attrs = append(attrs, slog.String("run_id", runID))
		}
		record.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, record)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name)}
}
