package intent

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/hearthware/tvpilot/pkg/command"
)

// Tool describes one capability advertised to the intent engine. Name
// doubles as the command kind, so whatever the model invokes feeds straight
// into the translator.
type Tool struct {
	Name        string
	Description string
	Argument    *jsonschema.Schema
}

// NewTool builds a tool whose argument schema is derived from ArgType.
func NewTool[ArgType any](name, description string) (*Tool, error) {
	arg, err := jsonschema.For[ArgType](nil)
	if err != nil {
		return nil, err
	}
	return &Tool{
		Name:        name,
		Description: description,
		Argument:    arg,
	}, nil
}

// MustNewTool is NewTool that panics on schema derivation failure.
func MustNewTool[ArgType any](name, description string) *Tool {
	tool, err := NewTool[ArgType](name, description)
	if err != nil {
		panic(err)
	}
	return tool
}

// Argument shapes for the advertised tools. Field names match the wire
// fields of the corresponding pkg/command kinds.

type navigateArgs struct {
	Direction string `json:"direction"`
	Repeat    int    `json:"repeat,omitempty"`
}

type playbackArgs struct {
	Action  string `json:"action"`
	Seconds int    `json:"seconds,omitempty"`
}

type volumeArgs struct {
	Action string `json:"action"`
	Level  int    `json:"level,omitempty"`
	Steps  int    `json:"steps,omitempty"`
}

type launchAppArgs struct {
	App string `json:"app"`
}

type playContentArgs struct {
	Title   string `json:"title"`
	Type    string `json:"contentType,omitempty"`
	Service string `json:"service,omitempty"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
}

type searchArgs struct {
	Query   string `json:"query"`
	Type    string `json:"contentType,omitempty"`
	Service string `json:"service,omitempty"`
}

type typeTextArgs struct {
	Text string `json:"text"`
}

type powerArgs struct {
	Action string `json:"action"`
}

// DefaultTools returns the fixed tool set the hub advertises on every
// inference. The slice and its schemas are shared; callers must not mutate
// them.
func DefaultTools() []*Tool {
	return defaultTools
}

var defaultTools = buildDefaultTools()

func buildDefaultTools() []*Tool {
	navigate := MustNewTool[navigateArgs](command.KindNavigate,
		"Navigate the TV interface with directional commands.")
	annotate(navigate, "direction", "Direction to move or action to trigger.",
		"up", "down", "left", "right", "select", "back", "home")
	annotate(navigate, "repeat", "How many times to repeat the move. Defaults to 1.")

	playback := MustNewTool[playbackArgs](command.KindPlayback,
		"Control media playback (play, pause, stop, skip).")
	annotate(playback, "action", "",
		"play", "pause", "stop", "skip_forward", "skip_backward", "rewind", "fast_forward")
	annotate(playback, "seconds", "Seconds to skip, for the skip actions.")

	volume := MustNewTool[volumeArgs](command.KindVolume,
		"Control TV volume.")
	annotate(volume, "action", "", "up", "down", "mute", "unmute", "set")
	annotate(volume, "level", "Absolute volume between 0 and 100. Required when action is set.")
	annotate(volume, "steps", "Steps to move for up/down. Defaults to 1.")

	launchApp := MustNewTool[launchAppArgs](command.KindLaunchApp,
		"Launch a streaming app (netflix, hulu, disney_plus, youtube, etc.).")

	playContent := MustNewTool[playContentArgs](command.KindPlayContent,
		"Play a specific movie or show by name.")
	annotate(playContent, "contentType", "", "movie", "series", "episode")

	search := MustNewTool[searchArgs](command.KindSearch,
		"Search for movies or TV shows to watch.")
	annotate(search, "contentType", "Defaults to any.", "movie", "series", "any")

	typeText := MustNewTool[typeTextArgs](command.KindTypeText,
		"Type text into the current text field (for search boxes).")

	power := MustNewTool[powerArgs](command.KindPower,
		"Switch the TV power.")
	annotate(power, "action", "", "on", "off", "toggle")

	return []*Tool{navigate, playback, volume, launchApp, playContent, search, typeText, power}
}

// annotate sets the description and enum of one derived property.
func annotate(tool *Tool, property, description string, enum ...string) {
	p, ok := tool.Argument.Properties[property]
	if !ok {
		panic("intent: tool " + tool.Name + " has no property " + property)
	}
	if description != "" {
		p.Description = description
	}
	if len(enum) > 0 {
		values := make([]any, len(enum))
		for i, v := range enum {
			values[i] = v
		}
		p.Enum = values
	}
}
