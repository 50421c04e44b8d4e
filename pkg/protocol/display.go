package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hearthware/tvpilot/pkg/command"
	"github.com/hearthware/tvpilot/pkg/jsontime"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// Ensure all display-origin messages implement DisplayMessage.
var (
	_ DisplayMessage = (*StateReport)(nil)
	_ DisplayMessage = (*EventReport)(nil)
)

// DisplayMessage is the closed union of text messages the display client
// may send to the hub.
type DisplayMessage interface {
	isDisplayMessage()
}

// StateReport is an upstream partial state update, merged into the device
// state store key by key.
type StateReport struct {
	State tvstate.Partial `json:"state"`
}

func (*StateReport) isDisplayMessage() {}

// EventReport is an upstream physical-control event. It is forwarded to the
// application hook verbatim and never merged into device state.
type EventReport struct {
	Event string `json:"event"`

	// Raw preserves the full frame for the hook.
	Raw json.RawMessage `json:"-"`
}

func (*EventReport) isDisplayMessage() {}

// MarshalDisplayMessage encodes a display-origin message for the wire, adding
// the type tag ParseDisplayMessage dispatches on.
func MarshalDisplayMessage(msg DisplayMessage) ([]byte, error) {
	switch msg.(type) {
	case *StateReport:
		return spliceTag(TypeState, msg)
	case *EventReport:
		return spliceTag(TypeEvent, msg)
	default:
		return nil, fmt.Errorf("unsupported display message %T", msg)
	}
}

// ParseDisplayMessage decodes a text frame from the display client.
func ParseDisplayMessage(data []byte) (DisplayMessage, error) {
	tag, err := typeTag(data)
	if err != nil {
		return nil, &MalformedError{Role: "display", Err: err}
	}
	switch tag {
	case TypeState:
		msg := new(StateReport)
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, &MalformedError{Role: "display", Tag: tag, Err: err}
		}
		return msg, nil
	case TypeEvent:
		msg := new(EventReport)
		if err := json.Unmarshal(data, msg); err != nil {
			return nil, &MalformedError{Role: "display", Tag: tag, Err: err}
		}
		msg.Raw = append(json.RawMessage(nil), data...)
		return msg, nil
	default:
		return nil, &MalformedError{Role: "display", Tag: tag}
	}
}

// DisplayCommand is one dispatched command on its way to the display:
// {"type":"command","timestamp":...,"command":"<kind>", ...fields}.
type DisplayCommand struct {
	Timestamp jsontime.Milli
	Command   command.Command
}

// NewDisplayCommand stamps a command for dispatch.
func NewDisplayCommand(cmd command.Command, at time.Time) *DisplayCommand {
	return &DisplayCommand{Timestamp: jsontime.FromTime(at), Command: cmd}
}

// MarshalJSON implements json.Marshaler.
func (m DisplayCommand) MarshalJSON() ([]byte, error) {
	fields, err := command.Fields(m.Command)
	if err != nil {
		return nil, err
	}
	ts, err := json.Marshal(m.Timestamp)
	if err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(`"` + TypeCommand + `"`)
	fields["command"] = json.RawMessage(`"` + m.Command.Kind() + `"`)
	fields["timestamp"] = ts
	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *DisplayCommand) UnmarshalJSON(data []byte) error {
	var head struct {
		Type      string         `json:"type"`
		Command   string         `json:"command"`
		Timestamp jsontime.Milli `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Type != TypeCommand {
		return &MalformedError{Role: "display", Tag: head.Type}
	}
	cmd, err := command.New(head.Command)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cmd); err != nil {
		return err
	}
	*m = DisplayCommand{Timestamp: head.Timestamp, Command: cmd}
	return nil
}
