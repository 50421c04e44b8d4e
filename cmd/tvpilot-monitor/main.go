// Tvpilot Hub Monitor
//
// Connects to the hub as a remote client and shows what every remote sees:
// the initial snapshot, TV connectivity changes, and device state
// broadcasts. Reconnects on the standard backoff when the hub goes away.
//
// Usage:
//
//	go build -o /tmp/tvpilot-monitor ./cmd/tvpilot-monitor
//	/tmp/tvpilot-monitor --url ws://localhost:8000/voice
//	/tmp/tvpilot-monitor --tui
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/hearthware/tvpilot/pkg/cli"
	"github.com/hearthware/tvpilot/pkg/client"
	"github.com/hearthware/tvpilot/pkg/protocol"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

func main() {
	url := flag.String("url", "ws://localhost:8000/voice", "hub remote endpoint")
	tui := flag.Bool("tui", false, "render a live boxed view instead of log lines")
	width := flag.Int("width", 100, "TUI width")
	height := flag.Int("height", 30, "TUI height")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()

	v := &view{}

	if *tui {
		logs := cli.NewLogWriter(64)
		log.SetOutput(logs)
		log.SetFlags(log.Ltime)
		go renderLoop(ctx, v, logs, *width, *height)
	} else {
		log.Printf("tvpilot monitor")
		log.Printf("  URL: %s", *url)
		log.Printf("---")
	}

	if err := run(ctx, v, *url); err != nil && ctx.Err() == nil {
		log.Fatalf("monitor: %v", err)
	}
}

// run keeps a remote session alive and feeds every server message into the
// view until ctx ends.
func run(ctx context.Context, v *view, url string) error {
	cfg := client.Config{
		URL: url,
		OnRetry: func(err error, next time.Duration) {
			v.setConnected(false)
			log.Printf("🔌 disconnected: %v (retry in %s)", err, cli.FormatDuration(next))
		},
	}
	return client.RunRemote(ctx, cfg, func(ctx context.Context, r *client.Remote) error {
		v.setConnected(true)
		log.Printf("🔌 connected")

		stop := context.AfterFunc(ctx, func() { r.Close() })
		defer stop()

		for msg, err := range r.Messages() {
			if err != nil {
				return err
			}
			v.apply(msg)
		}
		return nil
	})
}

// view is the state shared between the client loop and the renderer.
type view struct {
	mu          sync.Mutex
	connected   bool
	tvConnected bool
	state       tvstate.State
}

func (v *view) setConnected(up bool) {
	v.mu.Lock()
	v.connected = up
	v.mu.Unlock()
}

func (v *view) apply(msg protocol.ServerMessage) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch m := msg.(type) {
	case *protocol.InitialState:
		v.tvConnected = m.TVConnected
		v.state = m.DeviceState
		log.Printf("📡 snapshot: tv=%v power=%s app=%q volume=%d",
			m.TVConnected, m.DeviceState.Power, m.DeviceState.ActiveApp, m.DeviceState.Volume)
	case *protocol.TVStatus:
		v.tvConnected = m.Connected
		if m.Connected {
			log.Printf("⚡ tv connected")
		} else {
			log.Printf("⚡ tv disconnected")
		}
	case *protocol.TVState:
		v.state = m.State
		log.Printf("📺 state: power=%s app=%q screen=%q volume=%d",
			m.State.Power, m.State.ActiveApp, m.State.Screen, m.State.Volume)
	case *protocol.VoiceResponse:
		log.Printf("🗣 %q → %q", m.Transcription, m.Response)
	case *protocol.ErrorMessage:
		log.Printf("❗ %s", m.Error)
	}
}

func (v *view) status() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.connected {
		return "reconnecting", true
	}
	return "connected", false
}

func (v *view) deviceLines() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	tv := "offline"
	if v.tvConnected {
		tv = "online"
	}
	app := v.state.ActiveApp
	if app == "" {
		app = "-"
	}
	lines := []string{
		"TV:      " + tv,
		"Power:   " + v.state.Power.String(),
		"Screen:  " + v.state.Screen,
		"App:     " + app,
		fmt.Sprintf("Volume:  %d", v.state.Volume),
	}
	if len(v.state.NowPlaying) > 0 {
		lines = append(lines, "Playing: "+string(v.state.NowPlaying))
	}
	return lines
}

// renderLoop redraws the boxed view on a fixed cadence.
func renderLoop(ctx context.Context, v *view, logs *cli.LogWriter, width, height int) {
	frame := cli.Frame{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  "tvpilot monitor",
		Sections: []cli.Section{
			{Label: "📺 Device", Content: v.deviceLines},
			{Label: "📜 Log", Content: logs.Lines},
		},
		Help: "ctrl+c to quit",
	}

	fmt.Print("\033[2J")
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Print("\033[H\033[2J")
			return
		case <-ticker.C:
			frame.Status, frame.Alert = v.status()
			fmt.Print("\033[H" + frame.Render(width, height))
		}
	}
}
