package hub

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hearthware/tvpilot/pkg/command"
	"github.com/hearthware/tvpilot/pkg/intent"
	"github.com/hearthware/tvpilot/pkg/protocol"
	"github.com/hearthware/tvpilot/pkg/transcribe"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// ====== Test helpers ======

func staticTranscriber(text string) transcribe.Func {
	return func(context.Context, transcribe.Clip) (transcribe.Result, error) {
		return transcribe.Result{Text: text}, nil
	}
}

func staticEngine(spoken string, invocations []command.Invocation) intent.EngineFunc {
	return func(context.Context, intent.Request) (intent.Result, error) {
		return intent.Result{SpokenText: spoken, Invocations: invocations}, nil
	}
}

// newTestHub starts a hub behind an httptest server. Missing collaborators
// get inert fakes.
func newTestHub(t *testing.T, opts Options) (*Hub, *httptest.Server) {
	t.Helper()

	if opts.Transcriber == nil {
		opts.Transcriber = staticTranscriber("")
	}
	if opts.Engine == nil {
		opts.Engine = staticEngine("", nil)
	}

	h, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	srv := httptest.NewServer(h.Handler())
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, srv
}

// dialWS opens a websocket connection to the given hub path.
func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s failed: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// dialRemote connects a remote client and consumes its initial state message.
func dialRemote(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn := dialWS(t, srv, "/voice")
	if _, ok := readServer(t, conn).(*protocol.InitialState); !ok {
		t.Fatal("first message is not the initial state")
	}
	return conn
}

func readServer(t *testing.T, conn *websocket.Conn) protocol.ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	msg, err := protocol.ParseServerMessage(data)
	if err != nil {
		t.Fatalf("parse server message: %v", err)
	}
	return msg
}

func readDisplayCommand(t *testing.T, conn *websocket.Conn) *protocol.DisplayCommand {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read display command failed: %v", err)
	}
	cmd := new(protocol.DisplayCommand)
	if err := cmd.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal display command: %v", err)
	}
	return cmd
}

// expectNoMessage asserts that nothing arrives within wait. The connection is
// unusable afterwards, so this must be the last read on it.
func expectNoMessage(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(wait))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("unexpected message: %s", data)
	}
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("read failed: %v", err)
	}
}

// sendVoice submits one voice request: audio header, then the binary clip.
func sendVoice(t *testing.T, conn *websocket.Conn, audio []byte) {
	t.Helper()
	header := map[string]any{"type": "audio", "sampleRate": 16000, "format": "wav"}
	if err := conn.WriteJSON(header); err != nil {
		t.Fatalf("write audio header failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		t.Fatalf("write audio clip failed: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ====== Construction ======

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{Engine: staticEngine("", nil)}); err == nil {
		t.Error("New without Transcriber succeeded")
	}
	if _, err := New(Options{Transcriber: staticTranscriber("")}); err == nil {
		t.Error("New without Engine succeeded")
	}

	h, err := New(Options{
		Transcriber: staticTranscriber(""),
		Engine:      staticEngine("", nil),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer h.Close()

	if h.opts.HistoryWindow != intent.DefaultHistoryWindow {
		t.Errorf("HistoryWindow = %d, want %d", h.opts.HistoryWindow, intent.DefaultHistoryWindow)
	}
	if h.opts.Language != "en" {
		t.Errorf("Language = %q, want %q", h.opts.Language, "en")
	}
	if len(h.opts.Tools) == 0 {
		t.Error("Tools not defaulted")
	}
}

// ====== HTTP surface ======

func TestHealthEndpoint(t *testing.T) {
	_, srv := newTestHub(t, Options{})

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "OK" {
		t.Errorf("body = %q, want %q", body, "OK")
	}
}

func TestUnknownPathHTTP(t *testing.T) {
	_, srv := newTestHub(t, Options{})

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestUnknownPathWebSocket(t *testing.T) {
	_, srv := newTestHub(t, Options{})

	// The upgrade itself succeeds so the client sees a typed close.
	conn := dialWS(t, srv, "/nope")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseUnsupportedData) {
		t.Errorf("read error = %v, want close %d", err, websocket.CloseUnsupportedData)
	}
}

// ====== Remote lifecycle ======

func TestRemoteInitialState(t *testing.T) {
	_, srv := newTestHub(t, Options{})

	conn := dialWS(t, srv, "/voice")
	msg := readServer(t, conn)
	init, ok := msg.(*protocol.InitialState)
	if !ok {
		t.Fatalf("first message = %T, want *protocol.InitialState", msg)
	}
	if init.TVConnected {
		t.Error("TVConnected = true, want false")
	}
	if init.DeviceState.Power != tvstate.PowerUnknown {
		t.Errorf("Power = %v, want unknown", init.DeviceState.Power)
	}
	if init.DeviceState.Screen != "home" {
		t.Errorf("Screen = %q, want %q", init.DeviceState.Screen, "home")
	}
	if init.DeviceState.Volume != 50 {
		t.Errorf("Volume = %d, want 50", init.DeviceState.Volume)
	}
}

func TestRootPathServesRemote(t *testing.T) {
	_, srv := newTestHub(t, Options{})

	conn := dialWS(t, srv, "/")
	if _, ok := readServer(t, conn).(*protocol.InitialState); !ok {
		t.Error("root path did not behave as a remote endpoint")
	}
}

func TestRemoteCount(t *testing.T) {
	h, srv := newTestHub(t, Options{})

	conn1 := dialRemote(t, srv)
	dialRemote(t, srv)
	if n := h.RemoteCount(); n != 2 {
		t.Fatalf("RemoteCount = %d, want 2", n)
	}

	conn1.Close()
	waitFor(t, func() bool { return h.RemoteCount() == 1 }, "remote removal")
}

func TestCloseNotifiesClients(t *testing.T) {
	h, srv := newTestHub(t, Options{})

	conn := dialRemote(t, srv)
	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("read error = %v, want close %d", err, websocket.CloseGoingAway)
	}

	// Close is idempotent.
	if err := h.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestServeAfterClose(t *testing.T) {
	h, err := New(Options{
		Transcriber: staticTranscriber(""),
		Engine:      staticEngine("", nil),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()

	if err := h.Serve(ln); !errors.Is(err, ErrHubClosed) {
		t.Errorf("Serve after Close = %v, want ErrHubClosed", err)
	}
}
