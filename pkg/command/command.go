// Package command defines the typed device commands understood by the
// display and the translator that turns intent invocations into them.
package command

import (
	"encoding/json"
	"fmt"
)

// Ensure all command types implement Command.
var (
	_ Command = (*Navigate)(nil)
	_ Command = (*Playback)(nil)
	_ Command = (*Volume)(nil)
	_ Command = (*LaunchApp)(nil)
	_ Command = (*PlayContent)(nil)
	_ Command = (*Search)(nil)
	_ Command = (*TypeText)(nil)
	_ Command = (*Power)(nil)
)

// Command kind tags. These double as the tool names advertised to the
// intent engine, so translation and advertisement cannot drift apart.
const (
	KindNavigate    = "navigate"
	KindPlayback    = "playback"
	KindVolume      = "volume"
	KindLaunchApp   = "launchApp"
	KindPlayContent = "playContent"
	KindSearch      = "search"
	KindTypeText    = "typeText"
	KindPower       = "power"
)

// Command is the sealed interface implemented by every command kind.
// Commands are immutable once the translator has produced them.
type Command interface {
	isCommand()

	// Kind returns the command's kind tag.
	Kind() string

	// validate checks required fields and enum ranges and applies
	// defaults, canonicalizing the command in place.
	validate() error
}

// New returns a zero value of the command kind named by kind.
func New(kind string) (Command, error) {
	switch kind {
	case KindNavigate:
		return new(Navigate), nil
	case KindPlayback:
		return new(Playback), nil
	case KindVolume:
		return new(Volume), nil
	case KindLaunchApp:
		return new(LaunchApp), nil
	case KindPlayContent:
		return new(PlayContent), nil
	case KindSearch:
		return new(Search), nil
	case KindTypeText:
		return new(TypeText), nil
	case KindPower:
		return new(Power), nil
	default:
		return nil, fmt.Errorf("unknown command kind: %s", kind)
	}
}

// Navigate moves focus on the display interface.
type Navigate struct {
	Direction string `json:"direction"`
	Repeat    int    `json:"repeat"`
}

func (*Navigate) isCommand()   {}
func (*Navigate) Kind() string { return KindNavigate }

func (c *Navigate) validate() error {
	switch c.Direction {
	case "up", "down", "left", "right", "select", "back", "home":
	default:
		return fmt.Errorf("navigate: invalid direction %q", c.Direction)
	}
	if c.Repeat <= 0 {
		c.Repeat = 1
	}
	return nil
}

// Playback controls media playback on the display.
type Playback struct {
	Action  string `json:"action"`
	Seconds int    `json:"seconds,omitempty"`
}

func (*Playback) isCommand()   {}
func (*Playback) Kind() string { return KindPlayback }

func (c *Playback) validate() error {
	switch c.Action {
	case "play", "pause", "stop", "skip_forward", "skip_backward", "rewind", "fast_forward":
	default:
		return fmt.Errorf("playback: invalid action %q", c.Action)
	}
	if c.Seconds < 0 {
		return fmt.Errorf("playback: negative seconds %d", c.Seconds)
	}
	return nil
}

// Volume adjusts or sets the display's audio volume.
type Volume struct {
	Action string `json:"action"`
	Level  *int   `json:"level,omitempty"`
	Steps  int    `json:"steps,omitempty"`
}

func (*Volume) isCommand()   {}
func (*Volume) Kind() string { return KindVolume }

func (c *Volume) validate() error {
	switch c.Action {
	case "up", "down":
		if c.Steps <= 0 {
			c.Steps = 1
		}
		c.Level = nil
	case "mute", "unmute":
		c.Level = nil
		c.Steps = 0
	case "set":
		if c.Level == nil {
			return fmt.Errorf("volume: action set requires level")
		}
		if *c.Level < 0 || *c.Level > 100 {
			return fmt.Errorf("volume: level %d out of range [0, 100]", *c.Level)
		}
		c.Steps = 0
	default:
		return fmt.Errorf("volume: invalid action %q", c.Action)
	}
	return nil
}

// LaunchApp opens an application on the display.
type LaunchApp struct {
	App string `json:"app"`
}

func (*LaunchApp) isCommand()   {}
func (*LaunchApp) Kind() string { return KindLaunchApp }

func (c *LaunchApp) validate() error {
	if c.App == "" {
		return fmt.Errorf("launchApp: missing app")
	}
	return nil
}

// PlayContent starts playback of a specific title.
type PlayContent struct {
	Title   string `json:"title"`
	Type    string `json:"contentType,omitempty"`
	Service string `json:"service,omitempty"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
}

func (*PlayContent) isCommand()   {}
func (*PlayContent) Kind() string { return KindPlayContent }

func (c *PlayContent) validate() error {
	if c.Title == "" {
		return fmt.Errorf("playContent: missing title")
	}
	switch c.Type {
	case "", "movie", "series", "episode":
	default:
		return fmt.Errorf("playContent: invalid contentType %q", c.Type)
	}
	return nil
}

// Search queries the display's content search.
type Search struct {
	Query   string `json:"query"`
	Type    string `json:"contentType"`
	Service string `json:"service,omitempty"`
}

func (*Search) isCommand()   {}
func (*Search) Kind() string { return KindSearch }

func (c *Search) validate() error {
	if c.Query == "" {
		return fmt.Errorf("search: missing query")
	}
	switch c.Type {
	case "":
		c.Type = "any"
	case "movie", "series", "any":
	default:
		return fmt.Errorf("search: invalid contentType %q", c.Type)
	}
	return nil
}

// TypeText enters text into the focused input field on the display.
type TypeText struct {
	Text string `json:"text"`
}

func (*TypeText) isCommand()   {}
func (*TypeText) Kind() string { return KindTypeText }

func (c *TypeText) validate() error {
	if c.Text == "" {
		return fmt.Errorf("typeText: missing text")
	}
	return nil
}

// Power switches the display on or off.
type Power struct {
	Action string `json:"action"`
}

func (*Power) isCommand()   {}
func (*Power) Kind() string { return KindPower }

func (c *Power) validate() error {
	switch c.Action {
	case "on", "off", "toggle":
	default:
		return fmt.Errorf("power: invalid action %q", c.Action)
	}
	return nil
}

// Fields returns the command's wire fields as a JSON object, keyed the way
// the display expects them.
func Fields(cmd Command) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
