package server

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tradewind-ai/tradewind/pkg/a2a/types"
)

// ResponseMessage builds an agent message from an executor output. Messages
// pass through unchanged (with ids normalized), maps become data parts, and
// everything else is stringified into a text part.
func ResponseMessage(output any, contextID, taskID string) *types.Message {
	switch v := output.(type) {
	case *types.Message:
		return normalizeMessage(v, contextID, taskID)
	case map[string]any:
		return &types.Message{
			MessageID: uuid.NewString(),
			ContextID: contextID,
			TaskID:    taskID,
			Role:      "agent",
			Parts:     []types.Part{types.DataPart(v)},
		}
	default:
		return &types.Message{
			MessageID: uuid.NewString(),
			ContextID: contextID,
			TaskID:    taskID,
			Role:      "agent",
			Parts:     []types.Part{types.TextPart(fmt.Sprint(output))},
		}
	}
}

// ValidateMessage ensures required fields are present.
func ValidateMessage(message *types.Message) error {
	if message == nil {
		return fmt.Errorf("message is nil")
	}
	if message.MessageID == "" {
		return fmt.Errorf("message_id is required")
	}
	if len(message.Parts) == 0 {
		return fmt.Errorf("message parts are required")
	}
	return nil
}

func normalizeMessage(message *types.Message, contextID, taskID string) *types.Message {
	if message.MessageID == "" {
		message.MessageID = uuid.NewString()
	}
	if contextID != "" {
		message.ContextID = contextID
	}
	if taskID != "" {
		message.TaskID = taskID
	}
	if message.Role == "" {
		message.Role = "agent"
	}
	return message
}

// UserMessage builds a user message carrying a single text instruction.
func UserMessage(text, contextID string) *types.Message {
	return &types.Message{
		MessageID: uuid.NewString(),
		ContextID: contextID,
		Role:      "user",
		Parts:     []types.Part{types.TextPart(text)},
	}
}
