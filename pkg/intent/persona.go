package intent

import (
	"fmt"
	"strings"

	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// Persona configures the system prompt handed to the intent engine. The
// zero value is unusable; start from DefaultPersona and override fields via
// config.
type Persona struct {
	// Identity is the opening line establishing what the assistant is.
	Identity string `json:"identity,omitempty" yaml:"identity,omitempty"`

	// Instructions are numbered behavioral rules.
	Instructions []string `json:"instructions,omitempty" yaml:"instructions,omitempty"`

	// Examples are verbatim utterance-to-behavior samples.
	Examples []string `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// DefaultPersona returns the stock TV voice assistant persona.
func DefaultPersona() Persona {
	return Persona{
		Identity: "You are a TV voice assistant. Parse voice commands and control the TV.",
		Instructions: []string{
			"Use tools to execute commands",
			"Be brief in responses - this is spoken aloud",
			"For simple commands (pause, volume up), just confirm briefly",
			"For ambiguous requests, make reasonable assumptions",
		},
		Examples: []string{
			`"Pause" -> use playback with action=pause, respond "Paused"`,
			`"Open Netflix" -> use launchApp with app=netflix, respond "Opening Netflix"`,
			`"Turn it up" -> use volume with action=up, respond "Volume up"`,
		},
	}
}

// SystemPrompt renders the persona against the current device state.
func (p Persona) SystemPrompt(state tvstate.State) string {
	var sb strings.Builder
	sb.WriteString(p.Identity)
	sb.WriteString("\n\nCurrent TV state:\n")
	fmt.Fprintf(&sb, "- Power: %s\n", state.Power)
	app := state.ActiveApp
	if app == "" {
		app = "none"
	}
	fmt.Fprintf(&sb, "- App: %s\n", app)
	if state.Screen != "" {
		fmt.Fprintf(&sb, "- Screen: %s\n", state.Screen)
	}
	fmt.Fprintf(&sb, "- Volume: %d\n", state.Volume)
	if len(state.NowPlaying) > 0 {
		fmt.Fprintf(&sb, "- Now playing: %s\n", state.NowPlaying)
	}

	if len(p.Instructions) > 0 {
		sb.WriteString("\nInstructions:\n")
		for i, inst := range p.Instructions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, inst)
		}
	}
	if len(p.Examples) > 0 {
		sb.WriteString("\nExamples:\n")
		for _, ex := range p.Examples {
			fmt.Fprintf(&sb, "- %s\n", ex)
		}
	}
	return sb.String()
}
