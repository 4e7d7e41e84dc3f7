// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"

	"github.com/google/uuid"

	"github.com/tradewind-ai/tradewind/pkg/a2a/server"
	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/core"
)

// Executor bridges the dispatcher into the A2A server surface: inbound
// messages become workflow requests, finished runs become response payloads
// plus one artifact per stage result.
type Executor struct {
	Dispatcher *Dispatcher
}

// Run implements server.Executor.
func (e *Executor) Run(ctx context.Context, message *types.Message) (any, []types.Artifact, error) {
	request := core.NewWorkflowRequest(message.Text(), message.ContextID)

	result, err := e.Dispatcher.Run(ctx, request)
	if err != nil {
		return nil, nil, err
	}

	payload := map[string]any{
		"workflow_id": result.WorkflowID,
		"pattern":     string(result.Pattern),
		"phase":       string(result.Phase),
		"stages":      len(result.Results),
		"elapsed_ms":  result.Elapsed.Milliseconds(),
	}

	artifacts := make([]types.Artifact, 0, len(result.Results))
	for _, stage := range result.Results {
		artifacts = append(artifacts, stageArtifact(stage))
	}

	return payload, artifacts, nil
}

func stageArtifact(result core.StageResult) types.Artifact {
	data := map[string]any{
		"stage":      string(result.Stage),
		"agent":      result.Agent,
		"ok":         result.OK,
		"elapsed_ms": result.Elapsed.Milliseconds(),
	}
	if result.Payload != nil {
		data["payload"] = result.Payload
	}
	if result.Error != "" {
		data["error"] = result.Error
	}

	return types.Artifact{
		ArtifactID: uuid.NewString(),
		Name:       string(result.Stage),
		Parts:      []types.Part{types.DataPart(data)},
	}
}

var _ server.Executor = (*Executor)(nil)
