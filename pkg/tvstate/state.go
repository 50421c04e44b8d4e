// Package tvstate holds the shared last-known state of the display device.
package tvstate

import (
	"bytes"
	"encoding/json"
)

// Power represents the display's power condition.
type Power int

const (
	PowerUnknown Power = iota
	PowerOn
	PowerOff
)

// String returns the string representation of the power state.
func (p Power) String() string {
	switch p {
	case PowerOn:
		return "on"
	case PowerOff:
		return "off"
	default:
		return "unknown"
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Power) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "on":
		*p = PowerOn
	case "off":
		*p = PowerOff
	default:
		*p = PowerUnknown
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Power) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// State is the last known condition of the display device. Exactly one
// instance exists per running hub, owned by a Store and mutated only
// through Store.Merge.
type State struct {
	Power      Power           `json:"power"`
	ActiveApp  string          `json:"activeApp,omitempty"`
	Screen     string          `json:"screen"`
	Volume     int             `json:"volume"`
	NowPlaying json.RawMessage `json:"nowPlaying,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	v := s
	if s.NowPlaying != nil {
		v.NowPlaying = bytes.Clone(s.NowPlaying)
	}
	return v
}

// Partial is a partial state report from the display. Nil fields are left
// untouched by Merge; a present field replaces the current value wholesale,
// nowPlaying included. An explicit JSON null clears nowPlaying.
type Partial struct {
	Power      *Power          `json:"power,omitempty"`
	ActiveApp  *string         `json:"activeApp,omitempty"`
	Screen     *string         `json:"screen,omitempty"`
	Volume     *int            `json:"volume,omitempty"`
	NowPlaying json.RawMessage `json:"nowPlaying,omitempty"`
}
