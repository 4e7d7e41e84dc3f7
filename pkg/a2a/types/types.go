// Package types defines the JSON wire types for the A2A protocol surface.
// Specification: https://a2a-protocol.org/
package types

import "time"

// TaskState describes the lifecycle state of an A2A task.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateCancelled TaskState = "canceled"
	TaskStateRejected  TaskState = "rejected"
)

// Terminal reports whether no further state transition is permitted.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateFailed, TaskStateCancelled, TaskStateRejected:
		return true
	default:
		return false
	}
}

// Part is one unit of message content, either text or structured data.
type Part struct {
	Kind string         `json:"kind"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Kind: "text", Text: text}
}

// DataPart builds a structured data content part.
func DataPart(data map[string]any) Part {
	return Part{Kind: "data", Data: data}
}

// Message is a single communication turn between user and agent.
type Message struct {
	MessageID string `json:"messageId"`
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
}

// Text returns the concatenated text content of the message.
func (m *Message) Text() string {
	var out string
	for _, part := range m.Parts {
		if part.Kind == "text" {
			if out != "" {
				out += "\n"
			}
			out += part.Text
		}
	}
	return out
}

// Data returns the first data part payload, if any.
func (m *Message) Data() map[string]any {
	for _, part := range m.Parts {
		if part.Kind == "data" && part.Data != nil {
			return part.Data
		}
	}
	return nil
}

// TaskStatus pairs a task state with the message that produced it.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Artifact is an output produced by a task beyond its response message.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// Task is the unit of work tracked by an A2A server.
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	History   []*Message `json:"history,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// SendMessageConfiguration controls how SendMessage executes.
type SendMessageConfiguration struct {
	Blocking      bool  `json:"blocking,omitempty"`
	HistoryLength int32 `json:"historyLength,omitempty"`
}

// SendMessageRequest is the payload of the SendMessage method.
type SendMessageRequest struct {
	Message       *Message                  `json:"message"`
	Configuration *SendMessageConfiguration `json:"configuration,omitempty"`
}

// SendMessageResponse carries either the final message or the created task.
type SendMessageResponse struct {
	Message *Message `json:"message,omitempty"`
	Task    *Task    `json:"task,omitempty"`
}

// GetTaskRequest is the payload of the GetTask method.
type GetTaskRequest struct {
	ID            string `json:"id"`
	HistoryLength int32  `json:"historyLength,omitempty"`
}

// ListTasksRequest is the payload of the ListTasks method.
type ListTasksRequest struct {
	ContextID        string    `json:"contextId,omitempty"`
	Status           TaskState `json:"status,omitempty"`
	PageSize         int32     `json:"pageSize,omitempty"`
	HistoryLength    int32     `json:"historyLength,omitempty"`
	IncludeArtifacts bool      `json:"includeArtifacts,omitempty"`
	LastUpdatedAfter int64     `json:"lastUpdatedAfter,omitempty"`
}

// ListTasksResponse is the result of the ListTasks method.
type ListTasksResponse struct {
	Tasks     []*Task `json:"tasks"`
	PageSize  int32   `json:"pageSize"`
	TotalSize int32   `json:"totalSize"`
}

// CancelTaskRequest is the payload of the CancelTask method.
type CancelTaskRequest struct {
	ID string `json:"id"`
}

// TaskStatusUpdateEvent signals a task status change on a stream.
type TaskStatusUpdateEvent struct {
	TaskID    string     `json:"taskId"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Final     bool       `json:"final"`
}

// TaskArtifactUpdateEvent signals a new artifact on a stream.
type TaskArtifactUpdateEvent struct {
	TaskID    string   `json:"taskId"`
	ContextID string   `json:"contextId"`
	Artifact  Artifact `json:"artifact"`
	Append    bool     `json:"append"`
}

// StreamResponse is one event on a streaming method. Exactly one field is set.
type StreamResponse struct {
	Task           *Task                    `json:"task,omitempty"`
	Message        *Message                 `json:"message,omitempty"`
	StatusUpdate   *TaskStatusUpdateEvent   `json:"statusUpdate,omitempty"`
	ArtifactUpdate *TaskArtifactUpdateEvent `json:"artifactUpdate,omitempty"`
}

// AgentSkill describes one callable capability on an agent card.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// AgentCapabilities advertises protocol features the agent supports.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming,omitempty"`
	PushNotifications bool `json:"pushNotifications,omitempty"`
}

// AgentCard is the agent's discoverable capability descriptor.
type AgentCard struct {
	ProtocolVersion    string            `json:"protocolVersion,omitempty"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url"`
	Version            string            `json:"version"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitempty"`
	Skills             []AgentSkill      `json:"skills"`
}
