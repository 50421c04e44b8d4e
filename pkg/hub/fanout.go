package hub

import (
	"github.com/hearthware/tvpilot/pkg/protocol"
	"github.com/hearthware/tvpilot/pkg/tvstate"
)

// SendOutcome is one delivery attempt of a broadcast.
type SendOutcome struct {
	SessionID string
	Err       error
}

// broadcast fans msg out to every remote session. Each delivery is
// attempted independently; failures are collected and logged, never
// propagated.
func (h *Hub) broadcast(msg protocol.ServerMessage) []SendOutcome {
	remotes := h.reg.snapshotRemotes()
	outcomes := make([]SendOutcome, 0, len(remotes))
	for _, s := range remotes {
		err := s.send(msg)
		if err != nil {
			h.logger.WarnPrintf("broadcast to remote %s: %v", s.id, err)
		}
		outcomes = append(outcomes, SendOutcome{SessionID: s.id, Err: err})
	}
	return outcomes
}

// broadcastStatus tells every remote whether the display is connected.
func (h *Hub) broadcastStatus(connected bool) []SendOutcome {
	return h.broadcast(protocol.NewTVStatus(connected))
}

// broadcastState pushes a device state snapshot to every remote.
func (h *Hub) broadcastState(state tvstate.State) []SendOutcome {
	return h.broadcast(protocol.NewTVState(state))
}
