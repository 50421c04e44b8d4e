package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthware/tvpilot/pkg/intent"
	"github.com/hearthware/tvpilot/pkg/protocol"
)

const (
	closeCodeNormal      = websocket.CloseNormalClosure
	closeCodeGoingAway   = websocket.CloseGoingAway
	closeCodeUnsupported = websocket.CloseUnsupportedData
)

// maxFrameBytes bounds a single inbound frame; voice clips stay well under
// this.
const maxFrameBytes = 8 << 20

// wsConn wraps a websocket connection with serialized writes and a
// per-message write deadline. Control frames (ping, close) go through
// WriteControl, which gorilla allows concurrently with data writes.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
}

func newWSConn(conn *websocket.Conn, writeTimeout time.Duration) *wsConn {
	conn.SetReadLimit(maxFrameBytes)
	return &wsConn{conn: conn, writeTimeout: writeTimeout}
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *wsConn) close(code int, reason string) {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		c.conn.Close()
	})
}

// pingLoop keeps the connection alive until the session or the hub ends.
func (h *Hub) pingLoop(c *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		case <-done:
			return
		case <-h.closed:
			return
		}
	}
}

// remoteSession is one voice/control client. Its read loop is the only
// goroutine touching the pipeline state and the history, which keeps voice
// requests strictly sequential per session.
type remoteSession struct {
	id      string
	conn    *wsConn
	history *intent.History
}

func (s *remoteSession) send(msg protocol.ServerMessage) error {
	return s.conn.writeJSON(msg)
}

func (s *remoteSession) close(code int, reason string) {
	s.conn.close(code, reason)
}

// runRemote drives a remote session until the connection drops.
func (h *Hub) runRemote(s *remoteSession) {
	defer func() {
		h.reg.removeRemote(s)
		s.close(closeCodeNormal, "")
		h.logger.InfoPrintf("remote %s disconnected", s.id)
	}()

	conn := s.conn.conn
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	// Pipeline state: a pending audio header means the next binary frame is
	// the clip. The header expires after AudioWaitTimeout; expiry is
	// observed on the next frame, which is equivalent for every input.
	var (
		header   *protocol.AudioHeader
		headerAt time.Time
	)
	for {
		conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, closeCodeNormal, closeCodeGoingAway) {
				h.logger.WarnPrintf("remote %s: read: %v", s.id, err)
			}
			return
		}

		if header != nil && time.Since(headerAt) > h.opts.AudioWaitTimeout {
			h.logger.WarnPrintf("remote %s: audio header expired after %s", s.id, h.opts.AudioWaitTimeout)
			header = nil
		}

		switch msgType {
		case websocket.TextMessage:
			if header != nil {
				h.logger.WarnPrintf("remote %s: expected audio frame, got text; header discarded", s.id)
				header = nil
			}
			msg, err := protocol.ParseRemoteMessage(data)
			if err != nil {
				h.logger.WarnPrintf("remote %s: %v", s.id, err)
				continue
			}
			switch m := msg.(type) {
			case *protocol.AudioHeader:
				header = m
				headerAt = time.Now()
			case *protocol.NavigateRequest:
				h.handleBypass(s, m)
			case *protocol.PlaybackRequest:
				h.handleBypass(s, m)
			}
		case websocket.BinaryMessage:
			if header == nil {
				h.logger.WarnPrintf("remote %s: binary frame without audio header", s.id)
				continue
			}
			hdr := *header
			header = nil
			h.processVoice(s, hdr, data)
		}
	}
}

// displaySession is the single TV platform client.
type displaySession struct {
	id   string
	conn *wsConn
}

func (d *displaySession) send(msg *protocol.DisplayCommand) error {
	return d.conn.writeJSON(msg)
}

func (d *displaySession) close(code int, reason string) {
	d.conn.close(code, reason)
}

// runDisplay installs d as the display session, evicting any previous one,
// and drives it until the connection drops.
func (h *Hub) runDisplay(d *displaySession) {
	if evicted := h.reg.setDisplay(d); evicted != nil {
		h.logger.InfoPrintf("display %s evicted by %s", evicted.id, d.id)
		evicted.close(closeCodeNormal, "replaced")
		h.broadcastStatus(false)
	}
	h.broadcastStatus(true)
	h.logger.InfoPrintf("display %s connected", d.id)

	defer func() {
		if h.reg.clearDisplay(d) {
			h.broadcastStatus(false)
			h.logger.InfoPrintf("display %s disconnected", d.id)
		}
		d.close(closeCodeNormal, "")
	}()

	conn := d.conn.conn
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	for {
		conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, closeCodeNormal, closeCodeGoingAway) {
				h.logger.WarnPrintf("display %s: read: %v", d.id, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			h.logger.WarnPrintf("display %s: unexpected binary frame", d.id)
			continue
		}

		msg, err := protocol.ParseDisplayMessage(data)
		if err != nil {
			h.logger.WarnPrintf("display %s: %v", d.id, err)
			continue
		}
		switch m := msg.(type) {
		case *protocol.StateReport:
			if h.store.Merge(m.State) {
				snapshot := h.store.Snapshot()
				h.logger.DebugPrintf("device state v%d merged from display %s", h.store.Version(), d.id)
				h.broadcastState(snapshot)
			}
		case *protocol.EventReport:
			h.logger.DebugPrintf("display %s: event %q", d.id, m.Event)
			if h.opts.OnDisplayEvent != nil {
				h.opts.OnDisplayEvent(m.Event, m.Raw)
			}
		}
	}
}
