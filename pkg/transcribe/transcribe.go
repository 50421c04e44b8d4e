// Package transcribe defines the speech-to-text collaborator consumed by the
// hub and an implementation for OpenAI-compatible transcription endpoints.
package transcribe

import (
	"context"
	"errors"
)

// ErrNoAudio is returned when a clip carries no audio bytes.
var ErrNoAudio = errors.New("transcribe: empty audio clip")

// Clip is one complete voice capture as submitted by a remote client. The
// audio bytes are opaque to the hub; Format names the container the remote
// declared in its audio header.
type Clip struct {
	Audio      []byte
	SampleRate int
	Format     string
	Language   string // optional hint, empty for auto-detect
}

// Result is a finished transcription. DurationSeconds and Language are zero
// when the engine does not report them.
type Result struct {
	Text            string
	DurationSeconds float64
	Language        string
}

// Transcriber turns one audio clip into text. Implementations must honor
// context cancellation.
type Transcriber interface {
	Transcribe(ctx context.Context, clip Clip) (Result, error)
}

// Func adapts an ordinary function to the Transcriber interface.
type Func func(ctx context.Context, clip Clip) (Result, error)

// Transcribe calls the underlying function.
func (f Func) Transcribe(ctx context.Context, clip Clip) (Result, error) {
	return f(ctx, clip)
}
