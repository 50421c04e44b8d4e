// Package journal persists voice exchanges so operators can review what
// the assistant heard, said, and dispatched for any session.
package journal

import (
	"context"
	"time"
)

// Exchange is one recorded voice round trip.
type Exchange struct {
	// SessionID identifies the remote session. Must not contain ':'.
	SessionID string `json:"sessionId" msgpack:"sid"`

	// At is the unix nanosecond timestamp of the exchange. Zero means
	// "now" at record time.
	At int64 `json:"at" msgpack:"at"`

	Transcription string   `json:"transcription,omitempty" msgpack:"transcription,omitempty"`
	Response      string   `json:"response,omitempty" msgpack:"response,omitempty"`
	Commands      []string `json:"commands,omitempty" msgpack:"commands,omitempty"` // dispatched command kinds
	TVOffline     bool     `json:"tvOffline,omitempty" msgpack:"tv_offline,omitempty"`
	Err           string   `json:"err,omitempty" msgpack:"err,omitempty"`
}

// Time returns the exchange timestamp as time.Time.
func (x Exchange) Time() time.Time {
	return time.Unix(0, x.At)
}

// Journal records and replays exchanges. Implementations must be safe for
// concurrent use; the hub records from every session handler.
type Journal interface {
	// Record appends one exchange.
	Record(ctx context.Context, x Exchange) error

	// Recent returns the n most recent exchanges of one session in
	// chronological order, oldest first.
	Recent(ctx context.Context, sessionID string, n int) ([]Exchange, error)

	// Sessions lists the session IDs present in the journal.
	Sessions(ctx context.Context) ([]string, error)

	Close() error
}
