package dto

import "time"

// Fixed, non-leaking client-facing messages. Raw storage or validation
// internals never reach a response; handlers pick from this taxonomy.
const (
	MsgUnauthorized = "authentication required"
	MsgInvalidID    = "invalid id"
	MsgNotFound     = "requested resource not found"
	MsgInternal     = "internal server error"

	MsgTodoCreateFailed = "failed to create todo"
	MsgTodoUpdateFailed = "failed to update todo"
	MsgTodoDeleteFailed = "failed to delete todo"
	MsgTodoFetchFailed  = "failed to fetch todos"
)

// Envelope is the uniform response wrapper: every endpoint returns
// {success, data?, error?, message?, timestamp}.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func stamp() string { return time.Now().UTC().Format(time.RFC3339) }

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data, Timestamp: stamp()}
}

// OKMessage wraps data with an additional human-readable message.
func OKMessage(data any, msg string) Envelope {
	return Envelope{Success: true, Data: data, Message: msg, Timestamp: stamp()}
}

// Err wraps an error message in a failure envelope.
func Err(msg string) Envelope {
	return Envelope{Success: false, Error: msg, Timestamp: stamp()}
}
