package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/hearthware/tvpilot/pkg/command"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// Ensure all remote-origin messages implement RemoteMessage.
var (
	_ RemoteMessage = (*AudioHeader)(nil)
	_ RemoteMessage = (*NavigateRequest)(nil)
	_ RemoteMessage = (*PlaybackRequest)(nil)
)

// RemoteMessage is the closed union of text messages a remote client may
// send to the hub.
type RemoteMessage interface {
	isRemoteMessage()
}

// AudioHeader announces that the next frame on the connection is one binary
// frame of encoded audio. The header-then-binary ordering is a protocol
// invariant; anything else arriving next discards the header.
type AudioHeader struct {
	SampleRate int    `json:"sampleRate"`
	Format     string `json:"format"`
}

func (*AudioHeader) isRemoteMessage() {}

// NavigateRequest is a direct bypass navigation command from a D-pad.
type NavigateRequest struct {
	Direction string `json:"direction"`
}

func (*NavigateRequest) isRemoteMessage() {}

// PlaybackRequest is a direct bypass playback command.
type PlaybackRequest struct {
	Action string `json:"action"`
}

func (*PlaybackRequest) isRemoteMessage() {}

// MarshalRemoteMessage encodes a remote-origin message for the wire, adding
// the type tag ParseRemoteMessage dispatches on.
func MarshalRemoteMessage(msg RemoteMessage) ([]byte, error) {
	switch msg.(type) {
	case *AudioHeader:
		return spliceTag(TypeAudio, msg)
	case *NavigateRequest:
		return spliceTag(TypeNavigate, msg)
	case *PlaybackRequest:
		return spliceTag(TypePlayback, msg)
	default:
		return nil, fmt.Errorf("unsupported remote message %T", msg)
	}
}

// ParseRemoteMessage decodes a text frame from a remote client.
func ParseRemoteMessage(data []byte) (RemoteMessage, error) {
	tag, err := typeTag(data)
	if err != nil {
		return nil, &MalformedError{Role: "remote", Err: err}
	}
	var msg RemoteMessage
	switch tag {
	case TypeAudio:
		msg = new(AudioHeader)
	case TypeNavigate:
		msg = new(NavigateRequest)
	case TypePlayback:
		msg = new(PlaybackRequest)
	default:
		return nil, &MalformedError{Role: "remote", Tag: tag}
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, &MalformedError{Role: "remote", Tag: tag, Err: err}
	}
	return msg, nil
}

// Ensure all server-origin messages implement ServerMessage.
var (
	_ ServerMessage = (*InitialState)(nil)
	_ ServerMessage = (*VoiceResponse)(nil)
	_ ServerMessage = (*TVStatus)(nil)
	_ ServerMessage = (*TVState)(nil)
	_ ServerMessage = (*ErrorMessage)(nil)
)

// ServerMessage is the closed union of messages the hub sends to a remote
// client.
type ServerMessage interface {
	isServerMessage()
}

// InitialState is the one-time snapshot a remote receives immediately after
// registration, before any broadcast can reach it.
type InitialState struct {
	Type        string        `json:"type"`
	TVConnected bool          `json:"tvConnected"`
	DeviceState tvstate.State `json:"deviceState"`
}

func (*InitialState) isServerMessage() {}

// NewInitialState builds the registration snapshot message.
func NewInitialState(tvConnected bool, state tvstate.State) *InitialState {
	return &InitialState{Type: TypeState, TVConnected: tvConnected, DeviceState: state}
}

// VoiceResponse answers one voice request. Commands lists what the
// translator produced, whether or not the display was reachable; TVOffline
// reports delivery failure.
type VoiceResponse struct {
	Type          string        `json:"type"`
	Transcription string        `json:"transcription"`
	Response      string        `json:"response"`
	Commands      []WireCommand `json:"commands"`
	TVOffline     bool          `json:"tvOffline,omitempty"`
}

func (*VoiceResponse) isServerMessage() {}

// NewVoiceResponse builds a response message for one voice request.
func NewVoiceResponse(transcription, response string, commands []command.Command) *VoiceResponse {
	wire := make([]WireCommand, 0, len(commands))
	for _, cmd := range commands {
		wire = append(wire, WireCommand{Command: cmd})
	}
	return &VoiceResponse{
		Type:          TypeResponse,
		Transcription: transcription,
		Response:      response,
		Commands:      wire,
	}
}

// TVStatus broadcasts a display connectivity change.
type TVStatus struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

func (*TVStatus) isServerMessage() {}

// NewTVStatus builds a connectivity broadcast message.
func NewTVStatus(connected bool) *TVStatus {
	return &TVStatus{Type: TypeTVStatus, Connected: connected}
}

// TVState broadcasts a device state change.
type TVState struct {
	Type  string        `json:"type"`
	State tvstate.State `json:"state"`
}

func (*TVState) isServerMessage() {}

// NewTVState builds a state broadcast message.
func NewTVState(state tvstate.State) *TVState {
	return &TVState{Type: TypeTVState, State: state}
}

// ErrorMessage reports a per-request error to a remote client.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func (*ErrorMessage) isServerMessage() {}

// NewErrorMessage builds an error message.
func NewErrorMessage(text string) *ErrorMessage {
	return &ErrorMessage{Type: TypeError, Error: text}
}

// ParseServerMessage decodes a hub message on the remote client side.
func ParseServerMessage(data []byte) (ServerMessage, error) {
	tag, err := typeTag(data)
	if err != nil {
		return nil, &MalformedError{Role: "remote", Err: err}
	}
	var msg ServerMessage
	switch tag {
	case TypeState:
		msg = new(InitialState)
	case TypeResponse:
		msg = new(VoiceResponse)
	case TypeTVStatus:
		msg = new(TVStatus)
	case TypeTVState:
		msg = new(TVState)
	case TypeError:
		msg = new(ErrorMessage)
	default:
		return nil, &MalformedError{Role: "remote", Tag: tag}
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, &MalformedError{Role: "remote", Tag: tag, Err: err}
	}
	return msg, nil
}

// WireCommand carries a command in a remote-facing response, tagged with its
// kind under "type" and its fields spliced alongside.
type WireCommand struct {
	command.Command
}

// MarshalJSON implements json.Marshaler.
func (w WireCommand) MarshalJSON() ([]byte, error) {
	fields, err := command.Fields(w.Command)
	if err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(`"` + w.Kind() + `"`)
	return json.Marshal(fields)
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *WireCommand) UnmarshalJSON(data []byte) error {
	tag, err := typeTag(data)
	if err != nil {
		return err
	}
	cmd, err := command.New(tag)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cmd); err != nil {
		return err
	}
	w.Command = cmd
	return nil
}
