package client

import (
	"context"
	"encoding/json"
	"iter"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hearthware/tvpilot/pkg/protocol"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// Display is the TV-side connection to the hub. It receives commands and
// reports state and device events back.
type Display struct {
	conn    *websocket.Conn
	closeCh chan struct{}
	items   chan displayItem

	closeOnce sync.Once
	mu        sync.Mutex
}

type displayItem struct {
	cmd *protocol.DisplayCommand
	err error
}

// DialDisplay connects to the hub's display endpoint. The hub allows one
// display at a time; connecting evicts any display already attached.
func DialDisplay(ctx context.Context, cfg Config) (*Display, error) {
	conn, err := cfg.dial(ctx)
	if err != nil {
		return nil, err
	}
	d := &Display{
		conn:    conn,
		closeCh: make(chan struct{}),
		items:   make(chan displayItem, 16),
	}
	go d.readLoop()
	return d, nil
}

// Commands returns an iterator over commands from the hub. Iteration ends
// when the client is closed or after an error is yielded; a read error is
// terminal for the connection.
func (d *Display) Commands() iter.Seq2[*protocol.DisplayCommand, error] {
	return func(yield func(*protocol.DisplayCommand, error) bool) {
		for {
			select {
			case <-d.closeCh:
				return
			case item, ok := <-d.items:
				if !ok {
					return
				}
				if !yield(item.cmd, item.err) {
					return
				}
				if item.err != nil {
					return
				}
			}
		}
	}
}

// ReportState sends a partial device state update. Only the fields set in
// partial change on the hub.
func (d *Display) ReportState(partial tvstate.Partial) error {
	data, err := protocol.MarshalDisplayMessage(&protocol.StateReport{State: partial})
	if err != nil {
		return err
	}
	return d.write(data)
}

// ReportEvent sends a device event such as a panel button press. Extra
// fields ride along in the frame.
func (d *Display) ReportEvent(event string, fields map[string]any) error {
	frame := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		frame[k] = v
	}
	frame["type"] = protocol.TypeEvent
	frame["event"] = event
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return d.write(data)
}

func (d *Display) write(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears the connection down. Safe to call more than once.
func (d *Display) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.closeCh)
		err = d.conn.Close()
	})
	return err
}

func (d *Display) readLoop() {
	defer close(d.items)
	for {
		select {
		case <-d.closeCh:
			return
		default:
		}

		_, data, err := d.conn.ReadMessage()
		if err != nil {
			d.deliver(displayItem{err: err})
			return
		}
		var cmd protocol.DisplayCommand
		if err := cmd.UnmarshalJSON(data); err != nil {
			d.deliver(displayItem{err: err})
			continue
		}
		d.deliver(displayItem{cmd: &cmd})
	}
}

func (d *Display) deliver(item displayItem) {
	select {
	case <-d.closeCh:
	case d.items <- item:
	}
}
