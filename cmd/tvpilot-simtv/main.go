// Tvpilot TV Simulator
//
// Connects to the hub's /tv endpoint, applies every command it receives to
// an in-memory TV model, and reports the resulting state back, so remotes
// (and tvpilot-monitor) observe a live device without real hardware.
//
// Usage:
//
//	go build -o /tmp/tvpilot-simtv ./cmd/tvpilot-simtv
//	/tmp/tvpilot-simtv --url ws://localhost:8000/tv
//	/tmp/tvpilot-simtv --state initial.yaml --event power_button --event-every 1m
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/hearthware/tvpilot/pkg/cli"
	"github.com/hearthware/tvpilot/pkg/client"
	"github.com/hearthware/tvpilot/pkg/command"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// volumeStep is how much one up/down step moves the simulated volume.
const volumeStep = 5

func main() {
	url := flag.String("url", "ws://localhost:8000/tv", "hub display endpoint")
	statePath := flag.String("state", "", "initial state file (YAML or JSON)")
	eventName := flag.String("event", "", "device event to emit periodically")
	eventEvery := flag.Duration("event-every", time.Minute, "period for --event")
	flag.Parse()

	tv := newSimTV()
	if *statePath != "" {
		var init initialState
		if err := cli.LoadRequest(*statePath, &init); err != nil {
			log.Fatalf("simtv: %v", err)
		}
		tv.load(init)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()

	log.Printf("tvpilot simtv")
	log.Printf("  URL: %s", *url)
	log.Printf("---")

	cfg := client.Config{
		URL: *url,
		OnRetry: func(err error, next time.Duration) {
			log.Printf("🔌 disconnected: %v (retry in %s)", err, cli.FormatDuration(next))
		},
	}
	err := client.RunDisplay(ctx, cfg, func(ctx context.Context, d *client.Display) error {
		return serve(ctx, d, tv, *eventName, *eventEvery)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("simtv: %v", err)
	}
}

// serve runs one connected session: sync the full state, then apply and
// acknowledge commands until the connection drops.
func serve(ctx context.Context, d *client.Display, tv *simTV, eventName string, eventEvery time.Duration) error {
	log.Printf("🔌 connected")

	stop := context.AfterFunc(ctx, func() { d.Close() })
	defer stop()

	if err := d.ReportState(tv.full()); err != nil {
		return err
	}

	if eventName != "" && eventEvery > 0 {
		ticker := time.NewTicker(eventEvery)
		defer ticker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					log.Printf("🔘 event: %s", eventName)
					if err := d.ReportEvent(eventName, map[string]any{"source": "simtv"}); err != nil {
						return
					}
				}
			}
		}()
	}

	for cmd, err := range d.Commands() {
		if err != nil {
			return err
		}
		partial, desc := tv.apply(cmd.Command)
		log.Printf("⚡ %s", desc)
		if partial != nil {
			if err := d.ReportState(*partial); err != nil {
				return err
			}
		}
	}
	return nil
}

// initialState is the --state file shape.
type initialState struct {
	Power  string `json:"power" yaml:"power"`
	Screen string `json:"screen" yaml:"screen"`
	App    string `json:"app" yaml:"app"`
	Volume *int   `json:"volume" yaml:"volume"`
}

// simTV is the in-memory TV model.
type simTV struct {
	mu         sync.Mutex
	power      tvstate.Power
	screen     string
	app        string
	volume     int
	mutedFrom  int // volume before mute, -1 when not muted
	nowPlaying map[string]any
}

func newSimTV() *simTV {
	return &simTV{
		power:     tvstate.PowerOn,
		screen:    "home",
		volume:    20,
		mutedFrom: -1,
	}
}

func (tv *simTV) load(init initialState) {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	switch init.Power {
	case "on":
		tv.power = tvstate.PowerOn
	case "off":
		tv.power = tvstate.PowerOff
	}
	if init.Screen != "" {
		tv.screen = init.Screen
	}
	if init.App != "" {
		tv.app = init.App
	}
	if init.Volume != nil {
		tv.volume = *init.Volume
	}
}

// full reports every field, syncing the hub snapshot on connect.
func (tv *simTV) full() tvstate.Partial {
	tv.mu.Lock()
	defer tv.mu.Unlock()
	p := tvstate.Partial{
		Power:      &tv.power,
		Screen:     &tv.screen,
		ActiveApp:  &tv.app,
		Volume:     &tv.volume,
		NowPlaying: tv.nowPlayingJSON(),
	}
	return p
}

// nowPlayingJSON renders the descriptor, or null to clear it.
func (tv *simTV) nowPlayingJSON() json.RawMessage {
	if tv.nowPlaying == nil {
		return json.RawMessage("null")
	}
	data, err := json.Marshal(tv.nowPlaying)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// apply mutates the model per the command and returns the state report to
// send, or nil when nothing observable changed.
func (tv *simTV) apply(cmd command.Command) (*tvstate.Partial, string) {
	tv.mu.Lock()
	defer tv.mu.Unlock()

	switch c := cmd.(type) {
	case *command.Navigate:
		return nil, fmt.Sprintf("navigate %s x%d", c.Direction, c.Repeat)

	case *command.Playback:
		return tv.applyPlayback(c)

	case *command.Volume:
		return tv.applyVolume(c)

	case *command.LaunchApp:
		tv.app = c.App
		tv.screen = "app"
		return &tvstate.Partial{ActiveApp: &tv.app, Screen: &tv.screen},
			fmt.Sprintf("launch %s", c.App)

	case *command.PlayContent:
		tv.screen = "player"
		if c.Service != "" {
			tv.app = c.Service
		}
		tv.nowPlaying = map[string]any{"title": c.Title, "status": "playing"}
		if c.Type != "" {
			tv.nowPlaying["contentType"] = c.Type
		}
		if c.Season > 0 {
			tv.nowPlaying["season"] = c.Season
			tv.nowPlaying["episode"] = c.Episode
		}
		return &tvstate.Partial{
				Screen:     &tv.screen,
				ActiveApp:  &tv.app,
				NowPlaying: tv.nowPlayingJSON(),
			},
			fmt.Sprintf("play %q on %s", c.Title, tv.app)

	case *command.Search:
		tv.screen = "search"
		return &tvstate.Partial{Screen: &tv.screen},
			fmt.Sprintf("search %q (%s)", c.Query, c.Type)

	case *command.TypeText:
		return nil, fmt.Sprintf("type %q", c.Text)

	case *command.Power:
		return tv.applyPower(c)

	default:
		return nil, fmt.Sprintf("ignored %s", cmd.Kind())
	}
}

func (tv *simTV) applyPlayback(c *command.Playback) (*tvstate.Partial, string) {
	desc := "playback " + c.Action
	switch c.Action {
	case "play", "pause":
		if tv.nowPlaying == nil {
			return nil, desc + " (nothing playing)"
		}
		status := "playing"
		if c.Action == "pause" {
			status = "paused"
		}
		tv.nowPlaying["status"] = status
	case "stop":
		tv.nowPlaying = nil
		tv.screen = "home"
		return &tvstate.Partial{Screen: &tv.screen, NowPlaying: tv.nowPlayingJSON()}, desc
	default:
		// Seek-style actions leave the descriptor alone.
		if c.Seconds > 0 {
			desc = fmt.Sprintf("%s %ds", desc, c.Seconds)
		}
		return nil, desc
	}
	return &tvstate.Partial{NowPlaying: tv.nowPlayingJSON()}, desc
}

func (tv *simTV) applyVolume(c *command.Volume) (*tvstate.Partial, string) {
	switch c.Action {
	case "up":
		tv.volume = min(100, tv.volume+volumeStep*c.Steps)
	case "down":
		tv.volume = max(0, tv.volume-volumeStep*c.Steps)
	case "set":
		if c.Level != nil {
			tv.volume = *c.Level
		}
	case "mute":
		if tv.mutedFrom < 0 {
			tv.mutedFrom = tv.volume
			tv.volume = 0
		}
	case "unmute":
		if tv.mutedFrom >= 0 {
			tv.volume = tv.mutedFrom
			tv.mutedFrom = -1
		}
	}
	if c.Action != "mute" && c.Action != "unmute" {
		tv.mutedFrom = -1
	}
	return &tvstate.Partial{Volume: &tv.volume}, fmt.Sprintf("volume %s → %d", c.Action, tv.volume)
}

func (tv *simTV) applyPower(c *command.Power) (*tvstate.Partial, string) {
	next := tvstate.PowerOn
	if c.Action == "off" || (c.Action == "toggle" && tv.power == tvstate.PowerOn) {
		next = tvstate.PowerOff
	}
	tv.power = next

	if next == tvstate.PowerOff {
		tv.nowPlaying = nil
		tv.screen = "standby"
		return &tvstate.Partial{
			Power:      &tv.power,
			Screen:     &tv.screen,
			NowPlaying: tv.nowPlayingJSON(),
		}, "power off"
	}
	tv.screen = "home"
	return &tvstate.Partial{Power: &tv.power, Screen: &tv.screen}, "power on"
}
