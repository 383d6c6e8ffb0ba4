package agent

import "context"

// ToolSpec is a capability schema as exposed to the reasoning backend.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// TurnReply is the backend's answer to one tool-forced turn.
type TurnReply struct {
	Content   string
	ToolCalls []ToolCall
}

// StructuredSchema names a strict JSON schema for structured-output
// calls (critique, judge).
type StructuredSchema struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// ChatService is the reasoning backend. Transport failures from either
// call are fatal to the run; they are propagated, not retried.
type ChatService interface {
	// ChatTools runs one conversation turn with the tool schemas
	// attached and tool choice forced, so the backend must answer with
	// at least one tool call.
	ChatTools(ctx context.Context, messages []Message, tools []ToolSpec) (*TurnReply, error)

	// ChatStructured runs a single system+user exchange constrained to
	// a strict JSON schema and decodes the answer into out.
	ChatStructured(ctx context.Context, system, user string, schema StructuredSchema, out interface{}) error
}
