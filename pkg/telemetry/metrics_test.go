// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"
	"testing"

	"github.com/tradewind-ai/tradewind/pkg/errors"
)

func TestNewWorkflowMetrics(t *testing.T) {
	wm, err := NewWorkflowMetrics(context.Background())
	if err != nil {
		t.Fatalf("failed to create workflow metrics: %v", err)
	}
	if wm == nil {
		t.Fatal("expected non-nil WorkflowMetrics")
	}
}

func TestWorkflowMetricsRecording(t *testing.T) {
	ctx := context.Background()
	wm, err := NewWorkflowMetrics(ctx)
	if err != nil {
		t.Fatalf("failed to create workflow metrics: %v", err)
	}

	// The default no-op meter accepts all instruments; these must not panic.
	wm.RecordWorkflow(ctx, "DATA_ONLY", true)
	wm.RecordWorkflow(ctx, "FULL_WORKFLOW", false)
	wm.RecordStage(ctx, "data_collection", "browser", 12.5, true)
	wm.RecordStage(ctx, "trading", "executor", 420.0, false)

	wm.RecordErrorMetric(ctx, errors.New(errors.CodeStageFailure, "stage failed", nil), "supervisor")
	wm.RecordErrorMetric(ctx, fmt.Errorf("plain error"), "supervisor")
	wm.RecordErrorMetric(ctx, nil, "supervisor")

	wm.RecordRecovery(ctx, errors.CodeLLMError)
	wm.RecordHealthStatus(ctx, "qdrant", 2)
	wm.RecordCircuitBreakerState(ctx, "executor", 1)
}

func TestWorkflowMetricsNilReceiver(t *testing.T) {
	var wm *WorkflowMetrics

	ctx := context.Background()
	wm.RecordWorkflow(ctx, "DATA_ONLY", true)
	wm.RecordStage(ctx, "analysis", "knowledge", 1.0, true)
	wm.RecordErrorMetric(ctx, fmt.Errorf("x"), "c")
	wm.RecordRecovery(ctx, errors.CodeInternal)
	wm.RecordHealthStatus(ctx, "c", 0)
	wm.RecordCircuitBreakerState(ctx, "c", 0)
}
