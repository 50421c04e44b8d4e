// Package hub is the connection and command core: it owns the device state
// store and the session registry, runs the voice pipeline for remote
// sessions, and relays translated commands to the display session.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthware/tvpilot/pkg/catalog"
	"github.com/hearthware/tvpilot/pkg/intent"
	"github.com/hearthware/tvpilot/pkg/journal"
	"github.com/hearthware/tvpilot/pkg/transcribe"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// ErrHubClosed is returned by operations on a closed hub.
var ErrHubClosed = errors.New("hub: closed")

// ErrNotConnected is returned when a dispatch finds no display session.
var ErrNotConnected = errors.New("hub: display not connected")

func wrapError(err error, msg string) error {
	return fmt.Errorf("%s: %w", msg, err)
}

const (
	defaultTranscribeTimeout = 30 * time.Second
	defaultIntentTimeout     = 30 * time.Second
	defaultAudioWaitTimeout  = 15 * time.Second
	defaultPingInterval      = 30 * time.Second
	defaultReadTimeout       = 60 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	defaultLanguage          = "en"
)

// Options configures a Hub. Transcriber and Engine are required; everything
// else has a default.
type Options struct {
	// Transcriber turns audio clips into text.
	Transcriber transcribe.Transcriber

	// Engine maps an utterance plus device context to spoken text and
	// command invocations.
	Engine intent.Engine

	// Tools is the advertised tool set. Nil means intent.DefaultTools().
	Tools []*intent.Tool

	// Persona shapes the system prompt. Nil means intent.DefaultPersona().
	Persona *intent.Persona

	// Language is the transcription language hint. Empty means "en".
	Language string

	// HistoryWindow bounds each session's conversation history. Non-positive
	// means intent.DefaultHistoryWindow.
	HistoryWindow int

	// Catalog, when set, resolves playContent/search commands to concrete
	// services before dispatch. Lookup failure never fails the pipeline.
	Catalog catalog.Searcher

	// Journal, when set, records every voice exchange. Owned by the hub:
	// closed on Close.
	Journal journal.Journal

	// OnDisplayEvent is called for every display event report with the
	// event name and the raw frame. Called from the display read loop;
	// implementations must not block.
	OnDisplayEvent func(event string, raw json.RawMessage)

	// Logger defaults to the slog-backed DefaultLogger.
	Logger Logger

	// Timeouts. Zero values pick the defaults noted in each field.
	TranscribeTimeout time.Duration // transcription call bound, default 30s
	IntentTimeout     time.Duration // inference call bound, default 30s
	AudioWaitTimeout  time.Duration // audio header to binary frame, default 15s
	PingInterval      time.Duration // server ping cadence, default 30s
	ReadTimeout       time.Duration // read deadline, default 60s
	WriteTimeout      time.Duration // per-message write deadline, default 10s
}

func (o *Options) withDefaults() error {
	if o.Transcriber == nil {
		return errors.New("hub: Options.Transcriber is required")
	}
	if o.Engine == nil {
		return errors.New("hub: Options.Engine is required")
	}
	if o.Tools == nil {
		o.Tools = intent.DefaultTools()
	}
	if o.Persona == nil {
		p := intent.DefaultPersona()
		o.Persona = &p
	}
	if o.Language == "" {
		o.Language = defaultLanguage
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = intent.DefaultHistoryWindow
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger()
	}
	if o.TranscribeTimeout <= 0 {
		o.TranscribeTimeout = defaultTranscribeTimeout
	}
	if o.IntentTimeout <= 0 {
		o.IntentTimeout = defaultIntentTimeout
	}
	if o.AudioWaitTimeout <= 0 {
		o.AudioWaitTimeout = defaultAudioWaitTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	return nil
}

// Hub owns the registry, the device state store, and the voice pipeline
// collaborators. Construct with New, serve with Handler or ListenAndServe,
// stop with Close.
type Hub struct {
	opts     Options
	store    *tvstate.Store
	reg      registry
	logger   Logger
	upgrader websocket.Upgrader

	// ctx is canceled on Close, aborting in-flight pipeline calls.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	server *http.Server

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a hub.
func New(opts Options) (*Hub, error) {
	if err := opts.withDefaults(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		opts:   opts,
		store:  tvstate.NewStore(),
		reg:    newRegistry(),
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
		closed: make(chan struct{}),
	}, nil
}

// State returns a snapshot of the device state.
func (h *Hub) State() tvstate.State {
	return h.store.Snapshot()
}

// TVConnected reports whether a display session is registered.
func (h *Hub) TVConnected() bool {
	return h.reg.isDisplayConnected()
}

// RemoteCount returns the number of registered remote sessions.
func (h *Hub) RemoteCount() int {
	return h.reg.remoteCount()
}

// ListenAndServe serves the hub endpoints on addr until Close.
func (h *Hub) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.Serve(ln)
}

// Serve serves the hub endpoints on ln until Close.
func (h *Hub) Serve(ln net.Listener) error {
	select {
	case <-h.closed:
		return ErrHubClosed
	default:
	}
	srv := &http.Server{Handler: h.Handler()}
	h.mu.Lock()
	h.server = srv
	h.mu.Unlock()

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close shuts the hub down: the HTTP server, every session, and the
// journal. Idempotent.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.closed)
		h.cancel()

		h.mu.Lock()
		srv := h.server
		h.mu.Unlock()
		if srv != nil {
			srv.Close()
		}

		for _, s := range h.reg.snapshotRemotes() {
			s.close(closeCodeGoingAway, "hub shutting down")
		}
		if d := h.reg.getDisplay(); d != nil {
			d.close(closeCodeGoingAway, "hub shutting down")
		}
		if h.opts.Journal != nil {
			if err := h.opts.Journal.Close(); err != nil {
				h.logger.WarnPrintf("close journal: %v", err)
			}
		}
	})
	return nil
}
