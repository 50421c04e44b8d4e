package hub

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hearthware/tvpilot/pkg/intent"
	"github.com/hearthware/tvpilot/pkg/protocol"
)

// Handler returns the hub's HTTP handler:
//
//	/voice, /  remote endpoint (websocket)
//	/tv        display endpoint (websocket)
//	/health    liveness probe
//
// Upgraded connections on any other path close with 1003.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/voice", h.handleRemote)
	mux.HandleFunc("/tv", h.handleDisplay)
	mux.HandleFunc("/", h.handleRoot)
	return mux
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleRoot serves the remote endpoint on "/" and refuses everything else.
// Unknown paths complete the upgrade first so websocket clients see a typed
// 1003 close instead of a failed handshake.
func (h *Hub) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		h.handleRemote(w, r)
		return
	}
	h.logger.WarnPrintf("unknown path %q from %s", r.URL.Path, r.RemoteAddr)
	if websocket.IsWebSocketUpgrade(r) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		msg := websocket.FormatCloseMessage(closeCodeUnsupported, "unknown path")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.opts.WriteTimeout))
		conn.Close()
		return
	}
	http.NotFound(w, r)
}

func (h *Hub) handleRemote(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnPrintf("remote upgrade from %s: %v", r.RemoteAddr, err)
		return
	}

	s := &remoteSession{
		id:      uuid.NewString(),
		conn:    newWSConn(conn, h.opts.WriteTimeout),
		history: intent.NewHistory(h.opts.HistoryWindow),
	}
	h.logger.InfoPrintf("remote %s connected from %s", s.id, r.RemoteAddr)

	// Registration and the initial snapshot happen under the registry
	// transition, so no broadcast can outrun the first message.
	h.reg.addRemote(s, func(tvConnected bool) {
		init := protocol.NewInitialState(tvConnected, h.store.Snapshot())
		if err := s.send(init); err != nil {
			h.logger.WarnPrintf("remote %s: initial state: %v", s.id, err)
		}
	})

	done := make(chan struct{})
	go h.pingLoop(s.conn, done)
	h.runRemote(s)
	close(done)
}

func (h *Hub) handleDisplay(w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnPrintf("display upgrade from %s: %v", r.RemoteAddr, err)
		return
	}

	d := &displaySession{
		id:   uuid.NewString(),
		conn: newWSConn(conn, h.opts.WriteTimeout),
	}

	done := make(chan struct{})
	go h.pingLoop(d.conn, done)
	h.runDisplay(d)
	close(done)
}

func (h *Hub) isClosed() bool {
	select {
	case <-h.closed:
		return true
	default:
		return false
	}
}
