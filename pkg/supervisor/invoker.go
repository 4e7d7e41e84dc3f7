// Copyright 2026 © The Tradewind Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"

	"github.com/google/uuid"

	"github.com/tradewind-ai/tradewind/pkg/a2a/client"
	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
	"github.com/tradewind-ai/tradewind/pkg/errors"
)

// A2AInvoker reaches worker agents over their A2A JSON-RPC endpoints. One
// client per configured agent; retry and circuit-breaker policy is carried by
// the client options, opaque to the dispatcher.
type A2AInvoker struct {
	clients map[string]*client.Client
}

// NewA2AInvoker creates an invoker from a logical agent name to endpoint URL
// mapping. The options apply to every agent client.
func NewA2AInvoker(endpoints map[string]string, opts ...client.Option) *A2AInvoker {
	clients := make(map[string]*client.Client, len(endpoints))
	for agent, endpoint := range endpoints {
		clients[agent] = client.New(endpoint, opts...)
	}
	return &A2AInvoker{clients: clients}
}

// Invoke sends one blocking message to the named agent and returns its
// response payload: the structured data part when present, the text
// otherwise.
func (i *A2AInvoker) Invoke(ctx context.Context, agent, instruction, contextID string) (any, error) {
	cl, ok := i.clients[agent]
	if !ok {
		return nil, errors.New(errors.CodeStageFailure, "no endpoint configured for agent", nil).
			WithContext("agent", agent)
	}

	resp, err := cl.SendMessage(ctx, &types.SendMessageRequest{
		Message: &types.Message{
			MessageID: uuid.NewString(),
			Role:      "user",
			Parts:     []types.Part{types.TextPart(instruction)},
			ContextID: contextID,
		},
		Configuration: &types.SendMessageConfiguration{Blocking: true},
	})
	if err != nil {
		return nil, err
	}

	if resp.Message != nil {
		if data := resp.Message.Data(); data != nil {
			return data, nil
		}
		return resp.Message.Text(), nil
	}

	if resp.Task != nil {
		if resp.Task.Status.State == types.TaskStateFailed {
			msg := "agent task failed"
			if resp.Task.Status.Message != nil {
				msg = resp.Task.Status.Message.Text()
			}
			return nil, errors.New(errors.CodeStageFailure, msg, nil).
				WithContext("agent", agent).
				WithContext("task_id", resp.Task.ID)
		}
		return resp.Task, nil
	}

	return nil, errors.New(errors.CodeStageFailure, "empty response from agent", nil).
		WithContext("agent", agent)
}
