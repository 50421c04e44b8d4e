// Package client provides WebSocket clients for the hub's remote and display
// endpoints, with the reconnect policy the hub expects: exponential backoff
// from one second doubling to a thirty-second cap, reset after a successful
// connection.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gax "github.com/googleapis/gax-go/v2"
	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// Config carries the dial settings shared by both client roles.
type Config struct {
	// URL is the endpoint to dial, e.g. ws://host:8000/voice or
	// ws://host:8000/tv.
	URL string

	// Header is added to the handshake request.
	Header http.Header

	// HandshakeTimeout bounds the dial. Zero means 10s.
	HandshakeTimeout time.Duration

	// OnRetry, when set, observes every failed connect/serve cycle together
	// with the pause before the next attempt.
	OnRetry func(err error, next time.Duration)
}

func (c Config) dial(ctx context.Context) (*websocket.Conn, error) {
	timeout := c.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, c.URL, c.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", c.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", c.URL, err)
	}
	return conn, nil
}

func newBackoff() gax.Backoff {
	return gax.Backoff{Initial: time.Second, Multiplier: 2, Max: 30 * time.Second}
}

// RunRemote keeps a remote session alive until ctx ends: every established
// connection is handed to serve, and dropped connections are redialed on the
// standard backoff. Always returns ctx's error.
func RunRemote(ctx context.Context, cfg Config, serve func(ctx context.Context, r *Remote) error) error {
	return runLoop(ctx, cfg, func(ctx context.Context, connected func()) error {
		r, err := DialRemote(ctx, cfg)
		if err != nil {
			return err
		}
		defer r.Close()
		connected()
		return serve(ctx, r)
	})
}

// RunDisplay is RunRemote for the display role.
func RunDisplay(ctx context.Context, cfg Config, serve func(ctx context.Context, d *Display) error) error {
	return runLoop(ctx, cfg, func(ctx context.Context, connected func()) error {
		d, err := DialDisplay(ctx, cfg)
		if err != nil {
			return err
		}
		defer d.Close()
		connected()
		return serve(ctx, d)
	})
}

// runLoop drives connect/serve cycles with backoff between them. The cycle
// calls connected once the dial succeeds, which resets the schedule so the
// next failure starts over from the base delay.
func runLoop(ctx context.Context, cfg Config, cycle func(ctx context.Context, connected func()) error) error {
	bo := newBackoff()
	for {
		err := cycle(ctx, func() { bo = newBackoff() })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pause := bo.Pause()
		if cfg.OnRetry != nil {
			cfg.OnRetry(err, pause)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}
