// Package protocol defines the wire messages exchanged with remote and
// display clients. Every inbound message decodes at the boundary into a
// closed tagged union; unrecognized tags surface as a MalformedError, never
// as a silent pass-through.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message type tags.
const (
	// Remote → server.
	TypeAudio    = "audio"
	TypeNavigate = "navigate"
	TypePlayback = "playback"

	// Server → remote.
	TypeState    = "state"
	TypeResponse = "response"
	TypeTVStatus = "tvStatus"
	TypeTVState  = "tvState"
	TypeError    = "error"

	// Display ↔ server. The display reuses the "state" tag for its
	// upstream state reports.
	TypeEvent   = "event"
	TypeCommand = "command"
)

// MalformedError reports a frame that does not decode to any known message
// shape for the connection's role. The connection stays open; the hub logs
// the error and moves on.
type MalformedError struct {
	Role string // "remote" or "display"
	Tag  string // the unrecognized type tag, if one decoded
	Err  error  // underlying decode error, if any
}

func (e *MalformedError) Error() string {
	switch {
	case e.Err != nil && e.Tag != "":
		return fmt.Sprintf("malformed %s message %q: %v", e.Role, e.Tag, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("malformed %s message: %v", e.Role, e.Err)
	default:
		return fmt.Sprintf("malformed %s message: unknown type %q", e.Role, e.Tag)
	}
}

func (e *MalformedError) Unwrap() error { return e.Err }

func typeTag(data []byte) (string, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return "", err
	}
	return tag.Type, nil
}

// spliceTag marshals v and adds the type tag alongside its fields.
func spliceTag(tag string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(`"` + tag + `"`)
	return json.Marshal(fields)
}
