// Package intent defines the tool-calling collaborator that maps a
// transcribed utterance plus device context to spoken text and structured
// command invocations.
package intent

import (
	"context"
	"errors"

	"github.com/hearthware/tvpilot/pkg/command"
)

// ErrNoChoices is returned when the model yields no candidates at all.
var ErrNoChoices = errors.New("intent: no choices in model response")

// ErrBlocked is returned when the model refuses or a safety filter fires.
var ErrBlocked = errors.New("intent: response blocked")

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the bounded per-session conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one inference call. History is ordered oldest first and already
// pruned to the session's window; the final turn is the user utterance being
// answered.
type Request struct {
	System  string
	Tools   []*Tool
	History []Turn
}

// Result is the engine's parsed output: the text to speak back and zero or
// more tool invocations for the command translator.
type Result struct {
	SpokenText  string
	Invocations []command.Invocation
}

// Engine runs one bounded inference. Implementations must honor context
// cancellation and deadlines; the hub applies the pipeline timeout through
// ctx.
type Engine interface {
	Infer(ctx context.Context, req Request) (Result, error)
}

// EngineFunc adapts an ordinary function to the Engine interface.
type EngineFunc func(ctx context.Context, req Request) (Result, error)

// Infer calls the underlying function.
func (f EngineFunc) Infer(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}
