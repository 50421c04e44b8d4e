package client

import (
	"context"
	"iter"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hearthware/tvpilot/pkg/protocol"
)

// Remote is one voice/control connection to the hub.
type Remote struct {
	conn    *websocket.Conn
	closeCh chan struct{}
	items   chan remoteItem

	closeOnce sync.Once
	mu        sync.Mutex
}

type remoteItem struct {
	msg protocol.ServerMessage
	err error
}

// DialRemote connects to the hub's remote endpoint. The first message the
// hub sends is the initial state snapshot.
func DialRemote(ctx context.Context, cfg Config) (*Remote, error) {
	conn, err := cfg.dial(ctx)
	if err != nil {
		return nil, err
	}
	r := &Remote{
		conn:    conn,
		closeCh: make(chan struct{}),
		items:   make(chan remoteItem, 16),
	}
	go r.readLoop()
	return r, nil
}

// Messages returns an iterator over server messages. Iteration ends when the
// client is closed or after an error is yielded; a read error is terminal
// for the connection.
func (r *Remote) Messages() iter.Seq2[protocol.ServerMessage, error] {
	return func(yield func(protocol.ServerMessage, error) bool) {
		for {
			select {
			case <-r.closeCh:
				return
			case item, ok := <-r.items:
				if !ok {
					return
				}
				if !yield(item.msg, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// SendVoice submits one voice request: the audio header immediately followed
// by the clip as a single binary frame.
func (r *Remote) SendVoice(sampleRate int, format string, audio []byte) error {
	header, err := protocol.MarshalRemoteMessage(&protocol.AudioHeader{
		SampleRate: sampleRate,
		Format:     format,
	})
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conn.WriteMessage(websocket.TextMessage, header); err != nil {
		return err
	}
	return r.conn.WriteMessage(websocket.BinaryMessage, audio)
}

// Navigate sends a direct navigation command, bypassing the voice pipeline.
func (r *Remote) Navigate(direction string) error {
	return r.send(&protocol.NavigateRequest{Direction: direction})
}

// Playback sends a direct playback command, bypassing the voice pipeline.
func (r *Remote) Playback(action string) error {
	return r.send(&protocol.PlaybackRequest{Action: action})
}

func (r *Remote) send(msg protocol.RemoteMessage) error {
	data, err := protocol.MarshalRemoteMessage(msg)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears the connection down. Safe to call more than once.
func (r *Remote) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closeCh)
		err = r.conn.Close()
	})
	return err
}

func (r *Remote) readLoop() {
	defer close(r.items)
	for {
		select {
		case <-r.closeCh:
			return
		default:
		}

		_, data, err := r.conn.ReadMessage()
		if err != nil {
			r.deliver(remoteItem{err: err})
			return
		}
		msg, err := protocol.ParseServerMessage(data)
		if err != nil {
			r.deliver(remoteItem{err: err})
			continue
		}
		r.deliver(remoteItem{msg: msg})
	}
}

func (r *Remote) deliver(item remoteItem) {
	select {
	case <-r.closeCh:
	case r.items <- item:
	}
}
