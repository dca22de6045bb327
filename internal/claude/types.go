// Package claude runs prompts through the Claude CLI and serves them as a
// generative text backend.
//
// The CLI is spawned in print mode with stream-json output. Its events are
// parsed line by line and the assistant text is collected into a single
// completion.
//
// Key types:
//   - [Executor]: Interface for running one prompt through the CLI
//   - [Parser]: Interface for parsing streaming JSON output
//   - [Event]: Parsed event with convenience methods for common checks
//   - [Backend]: Adapter that satisfies the backend.Backend interface
//
// For testing, use [MockExecutor] which implements [Executor] without spawning
// real processes.
package claude

// StreamEvent represents a raw JSON event from the CLI's stream-json output.
//
// Most callers should work with [Event] instead, which flattens the fields
// the pipeline needs.
type StreamEvent struct {
	Type    string          `json:"type"`
	Subtype string          `json:"subtype,omitempty"`
	Message *MessageContent `json:"message,omitempty"`
	Result  string          `json:"result,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
}

// MessageContent is the content of an assistant message.
type MessageContent struct {
	Content []ContentBlock `json:"content,omitempty"`
}

// ContentBlock is a single block of an assistant message. Only "text"
// blocks carry completion text.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
}

// EventType is the type of a streamed event.
type EventType string

const (
	// EventTypeSystem indicates a system event, typically session initialization.
	EventTypeSystem EventType = "system"

	// EventTypeAssistant indicates output from the model.
	EventTypeAssistant EventType = "assistant"

	// EventTypeUser indicates tool results returned to the model.
	EventTypeUser EventType = "user"

	// EventTypeResult indicates the session has completed. It carries the
	// final completion text, or the error message when IsError is set.
	EventTypeResult EventType = "result"
)

// SubtypeInit is the subtype of system initialization events.
const SubtypeInit = "init"

// Event is a parsed event from the CLI's streaming output.
type Event struct {
	// Raw is the original stream event.
	Raw *StreamEvent

	Type    EventType
	Subtype string

	// Text holds the concatenated text blocks of an assistant event.
	Text string

	// ToolName is set when an assistant event invokes a tool.
	ToolName string

	// Result is the final text of a result event.
	Result string

	// IsError is set on a result event that reports a failed session.
	IsError bool

	SessionStarted  bool
	SessionComplete bool
}

// NewEventFromStream creates an [Event] from a raw [StreamEvent].
func NewEventFromStream(raw *StreamEvent) Event {
	e := Event{
		Raw:     raw,
		Type:    EventType(raw.Type),
		Subtype: raw.Subtype,
	}

	switch e.Type {
	case EventTypeSystem:
		e.SessionStarted = raw.Subtype == SubtypeInit

	case EventTypeAssistant:
		if raw.Message != nil {
			for _, block := range raw.Message.Content {
				switch block.Type {
				case "text":
					e.Text += block.Text
				case "tool_use":
					e.ToolName = block.Name
				}
			}
		}

	case EventTypeResult:
		e.SessionComplete = true
		e.Result = raw.Result
		e.IsError = raw.IsError
	}

	return e
}

// IsText reports whether the event carries assistant text.
func (e Event) IsText() bool {
	return e.Type == EventTypeAssistant && e.Text != ""
}

// IsToolUse reports whether the event is a tool invocation.
func (e Event) IsToolUse() bool {
	return e.Type == EventTypeAssistant && e.ToolName != ""
}
