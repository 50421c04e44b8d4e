package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hearthware/tvpilot/pkg/command"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// ====== Remote-origin messages ======

func TestParseRemoteMessage(t *testing.T) {
	tests := []struct {
		name string
		data string
		want any
	}{
		{"audio header", `{"type":"audio","sampleRate":16000,"format":"webm"}`, &AudioHeader{SampleRate: 16000, Format: "webm"}},
		{"navigate bypass", `{"type":"navigate","direction":"up"}`, &NavigateRequest{Direction: "up"}},
		{"playback bypass", `{"type":"playback","action":"pause"}`, &PlaybackRequest{Action: "pause"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRemoteMessage([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseRemoteMessage error: %v", err)
			}
			switch want := tt.want.(type) {
			case *AudioHeader:
				if h, ok := got.(*AudioHeader); !ok || *h != *want {
					t.Errorf("got %#v, want %#v", got, want)
				}
			case *NavigateRequest:
				if n, ok := got.(*NavigateRequest); !ok || *n != *want {
					t.Errorf("got %#v, want %#v", got, want)
				}
			case *PlaybackRequest:
				if p, ok := got.(*PlaybackRequest); !ok || *p != *want {
					t.Errorf("got %#v, want %#v", got, want)
				}
			}
		})
	}
}

func TestParseRemoteMessage_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown tag", `{"type":"selfie"}`},
		{"missing tag", `{"direction":"up"}`},
		{"not json", `ping`},
		{"wrong field type", `{"type":"audio","sampleRate":"high"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRemoteMessage([]byte(tt.data))
			if err == nil {
				t.Fatal("ParseRemoteMessage should fail")
			}
			var malformed *MalformedError
			if !errors.As(err, &malformed) {
				t.Errorf("error type = %T, want *MalformedError", err)
			}
			if malformed.Role != "remote" {
				t.Errorf("Role = %q, want %q", malformed.Role, "remote")
			}
		})
	}
}

func TestMarshalRemoteMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  RemoteMessage
	}{
		{"audio header", &AudioHeader{SampleRate: 24000, Format: "webm"}},
		{"navigate", &NavigateRequest{Direction: "left"}},
		{"playback", &PlaybackRequest{Action: "stop"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalRemoteMessage(tt.msg)
			if err != nil {
				t.Fatalf("MarshalRemoteMessage error: %v", err)
			}
			parsed, err := ParseRemoteMessage(data)
			if err != nil {
				t.Fatalf("ParseRemoteMessage error: %v", err)
			}
			switch want := tt.msg.(type) {
			case *AudioHeader:
				if got, ok := parsed.(*AudioHeader); !ok || *got != *want {
					t.Errorf("round trip = %#v, want %#v", parsed, want)
				}
			case *NavigateRequest:
				if got, ok := parsed.(*NavigateRequest); !ok || *got != *want {
					t.Errorf("round trip = %#v, want %#v", parsed, want)
				}
			case *PlaybackRequest:
				if got, ok := parsed.(*PlaybackRequest); !ok || *got != *want {
					t.Errorf("round trip = %#v, want %#v", parsed, want)
				}
			}
		})
	}
}

func TestMarshalDisplayMessage(t *testing.T) {
	report := &StateReport{State: tvstate.Partial{Volume: intPtr(25)}}
	data, err := MarshalDisplayMessage(report)
	if err != nil {
		t.Fatalf("MarshalDisplayMessage error: %v", err)
	}
	if !strings.Contains(string(data), `"type":"state"`) {
		t.Errorf("missing type tag: %s", data)
	}
	parsed, err := ParseDisplayMessage(data)
	if err != nil {
		t.Fatalf("ParseDisplayMessage error: %v", err)
	}
	got, ok := parsed.(*StateReport)
	if !ok {
		t.Fatalf("parsed = %T, want *StateReport", parsed)
	}
	if got.State.Volume == nil || *got.State.Volume != 25 {
		t.Errorf("Volume = %v, want 25", got.State.Volume)
	}

	event, err := MarshalDisplayMessage(&EventReport{Event: "standby"})
	if err != nil {
		t.Fatalf("MarshalDisplayMessage error: %v", err)
	}
	if !strings.Contains(string(event), `"type":"event"`) || !strings.Contains(string(event), `"event":"standby"`) {
		t.Errorf("event frame = %s", event)
	}
}

// ====== Server-origin messages ======

func TestInitialState_JSON(t *testing.T) {
	msg := NewInitialState(true, tvstate.State{Power: tvstate.PowerOn, Screen: "home", Volume: 50})

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !strings.Contains(string(data), `"type":"state"`) {
		t.Errorf("missing type tag: %s", data)
	}
	if !strings.Contains(string(data), `"tvConnected":true`) {
		t.Errorf("missing tvConnected: %s", data)
	}

	parsed, err := ParseServerMessage(data)
	if err != nil {
		t.Fatalf("ParseServerMessage error: %v", err)
	}
	init, ok := parsed.(*InitialState)
	if !ok {
		t.Fatalf("parsed = %T, want *InitialState", parsed)
	}
	if !init.TVConnected || init.DeviceState.Power != tvstate.PowerOn {
		t.Errorf("parsed = %+v", init)
	}
}

func TestVoiceResponse_EmptyCommands(t *testing.T) {
	msg := NewVoiceResponse("", "I didn't catch that", nil)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	// The canned no-transcription response always carries an empty array,
	// never null.
	if !strings.Contains(string(data), `"commands":[]`) {
		t.Errorf("commands should marshal as []: %s", data)
	}
	if !strings.Contains(string(data), `"response":"I didn't catch that"`) {
		t.Errorf("wrong response text: %s", data)
	}
}

func TestVoiceResponse_RoundTrip(t *testing.T) {
	msg := NewVoiceResponse("volume up a bit", "Turned it up", []command.Command{
		&command.Volume{Action: "up", Steps: 2},
		&command.Navigate{Direction: "select", Repeat: 1},
	})
	msg.TVOffline = true

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	parsed, err := ParseServerMessage(data)
	if err != nil {
		t.Fatalf("ParseServerMessage error: %v", err)
	}
	resp, ok := parsed.(*VoiceResponse)
	if !ok {
		t.Fatalf("parsed = %T, want *VoiceResponse", parsed)
	}
	if resp.Transcription != "volume up a bit" || !resp.TVOffline {
		t.Errorf("parsed = %+v", resp)
	}
	if len(resp.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(resp.Commands))
	}
	vol, ok := resp.Commands[0].Command.(*command.Volume)
	if !ok {
		t.Fatalf("Commands[0] = %T, want *command.Volume", resp.Commands[0].Command)
	}
	if vol.Action != "up" || vol.Steps != 2 {
		t.Errorf("Volume = %+v", vol)
	}
}

func TestWireCommand_MarshalTag(t *testing.T) {
	w := WireCommand{Command: &command.Navigate{Direction: "up", Repeat: 3}}
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if fields["type"] != "navigate" {
		t.Errorf("type = %v, want navigate", fields["type"])
	}
	if fields["direction"] != "up" {
		t.Errorf("direction = %v, want up", fields["direction"])
	}
	if fields["repeat"] != float64(3) {
		t.Errorf("repeat = %v, want 3", fields["repeat"])
	}
}

func TestParseServerMessage_Broadcasts(t *testing.T) {
	status, err := ParseServerMessage([]byte(`{"type":"tvStatus","connected":false}`))
	if err != nil {
		t.Fatalf("ParseServerMessage error: %v", err)
	}
	if s, ok := status.(*TVStatus); !ok || s.Connected {
		t.Errorf("parsed = %#v", status)
	}

	state, err := ParseServerMessage([]byte(`{"type":"tvState","state":{"power":"on","screen":"player","volume":30}}`))
	if err != nil {
		t.Fatalf("ParseServerMessage error: %v", err)
	}
	if s, ok := state.(*TVState); !ok || s.State.Volume != 30 {
		t.Errorf("parsed = %#v", state)
	}

	errMsg, err := ParseServerMessage([]byte(`{"type":"error","error":"tv offline"}`))
	if err != nil {
		t.Fatalf("ParseServerMessage error: %v", err)
	}
	if e, ok := errMsg.(*ErrorMessage); !ok || e.Error != "tv offline" {
		t.Errorf("parsed = %#v", errMsg)
	}
}

// ====== Display-origin messages ======

func TestParseDisplayMessage_StateReport(t *testing.T) {
	data := []byte(`{"type":"state","state":{"power":"on","volume":75,"nowPlaying":{"title":"Dune"}}}`)

	msg, err := ParseDisplayMessage(data)
	if err != nil {
		t.Fatalf("ParseDisplayMessage error: %v", err)
	}
	report, ok := msg.(*StateReport)
	if !ok {
		t.Fatalf("msg = %T, want *StateReport", msg)
	}
	if report.State.Power == nil || *report.State.Power != tvstate.PowerOn {
		t.Errorf("Power = %v", report.State.Power)
	}
	if report.State.Volume == nil || *report.State.Volume != 75 {
		t.Errorf("Volume = %v", report.State.Volume)
	}
	if report.State.Screen != nil {
		t.Errorf("absent Screen decoded as %v", *report.State.Screen)
	}
	if !strings.Contains(string(report.State.NowPlaying), "Dune") {
		t.Errorf("NowPlaying = %s", report.State.NowPlaying)
	}
}

func TestParseDisplayMessage_EventKeepsRaw(t *testing.T) {
	data := []byte(`{"type":"event","event":"keypress","key":"power"}`)

	msg, err := ParseDisplayMessage(data)
	if err != nil {
		t.Fatalf("ParseDisplayMessage error: %v", err)
	}
	event, ok := msg.(*EventReport)
	if !ok {
		t.Fatalf("msg = %T, want *EventReport", msg)
	}
	if event.Event != "keypress" {
		t.Errorf("Event = %q", event.Event)
	}
	if !strings.Contains(string(event.Raw), `"key":"power"`) {
		t.Errorf("Raw = %s", event.Raw)
	}
}

func TestParseDisplayMessage_Malformed(t *testing.T) {
	_, err := ParseDisplayMessage([]byte(`{"type":"command","command":"navigate"}`))
	if err == nil {
		t.Fatal("display clients must not send command messages")
	}
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("error type = %T, want *MalformedError", err)
	}
	if malformed.Role != "display" || malformed.Tag != "command" {
		t.Errorf("malformed = %+v", malformed)
	}
}

// ====== Display command splice ======

func TestDisplayCommand_Marshal(t *testing.T) {
	at := time.Date(2025, 3, 9, 21, 15, 0, 0, time.UTC)
	msg := NewDisplayCommand(&command.Volume{Action: "set", Level: intPtr(40)}, at)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if fields["type"] != "command" {
		t.Errorf("type = %v", fields["type"])
	}
	if fields["command"] != "volume" {
		t.Errorf("command = %v", fields["command"])
	}
	if fields["timestamp"] != float64(at.UnixMilli()) {
		t.Errorf("timestamp = %v, want %d", fields["timestamp"], at.UnixMilli())
	}
	if fields["action"] != "set" || fields["level"] != float64(40) {
		t.Errorf("fields = %v", fields)
	}
}

func TestDisplayCommand_RoundTrip(t *testing.T) {
	at := time.Now()
	tests := []command.Command{
		&command.Navigate{Direction: "down", Repeat: 2},
		&command.Playback{Action: "skip_forward", Seconds: 30},
		&command.LaunchApp{App: "netflix"},
		&command.PlayContent{Title: "Severance", Type: "episode", Season: 2, Episode: 1},
		&command.Search{Query: "heist movies", Type: "any"},
		&command.TypeText{Text: "interstellar"},
		&command.Power{Action: "off"},
	}
	for _, cmd := range tests {
		t.Run(cmd.Kind(), func(t *testing.T) {
			data, err := json.Marshal(NewDisplayCommand(cmd, at))
			if err != nil {
				t.Fatalf("Marshal error: %v", err)
			}
			var restored DisplayCommand
			if err := json.Unmarshal(data, &restored); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}
			if restored.Command.Kind() != cmd.Kind() {
				t.Errorf("Kind = %q, want %q", restored.Command.Kind(), cmd.Kind())
			}
			got, _ := json.Marshal(restored.Command)
			want, _ := json.Marshal(cmd)
			if string(got) != string(want) {
				t.Errorf("round trip = %s, want %s", got, want)
			}
		})
	}
}

func TestDisplayCommand_UnmarshalRejectsWrongTag(t *testing.T) {
	var msg DisplayCommand
	if err := json.Unmarshal([]byte(`{"type":"state","command":"navigate"}`), &msg); err == nil {
		t.Error("Unmarshal should reject a non-command tag")
	}
	if err := json.Unmarshal([]byte(`{"type":"command","command":"levitate"}`), &msg); err == nil {
		t.Error("Unmarshal should reject an unknown command kind")
	}
}

func intPtr(v int) *int { return &v }
