package agent

import "errors"

// Role identifies the kind of a conversation turn. The set is closed:
// every turn in a run is one of these four.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single turn in the conversation. Only the fields valid
// for the turn's role are populated; use the constructors below rather
// than building Messages by hand.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant turns only
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool turns only
}

// SystemTurn builds a system message.
func SystemTurn(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserTurn builds a user message.
func UserTurn(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant message, optionally carrying the
// tool calls the backend issued on that turn.
func AssistantTurn(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolTurn builds the reply for a single tool call. Every issued call
// must receive exactly one of these.
func ToolTurn(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// ToolCall is a capability invocation issued by the reasoning backend.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Source is a cited reference, addressed from bullets via [N] markers.
type Source struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// Candidate is a finish proposal. It is not an accepted output until
// the critique gate passes it.
type Candidate struct {
	Bullets []string `json:"bullets"`
	Sources []Source `json:"sources"`
}

// Outcome is a critique gate decision.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
)

// Verdict is the result of one critique call.
type Verdict struct {
	Outcome Outcome `json:"verdict"`
	Reason  string  `json:"reason"`
}

// Explanation is the accepted final output of a run.
type Explanation struct {
	Bullets  []string `json:"bullets"`
	Sources  []Source `json:"sources"`
	PostText string   `json:"post_text"`
}

var (
	// ErrEmptyPost means the fetched post carried no text, a fatal
	// precondition checked before the loop starts.
	ErrEmptyPost = errors.New("fetched post has empty text; cannot explain")

	// ErrNoToolCalls means the backend returned plain text despite the
	// forced tool choice, an unrecoverable protocol anomaly.
	ErrNoToolCalls = errors.New("backend returned no tool calls despite forced tool choice")

	// ErrExhausted means no candidate passed the critique gate within
	// the iteration ceiling.
	ErrExhausted = errors.New("no passing explanation within the iteration budget")
)
