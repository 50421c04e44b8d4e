package hub

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hearthware/tvpilot/pkg/catalog"
	"github.com/hearthware/tvpilot/pkg/command"
	"github.com/hearthware/tvpilot/pkg/intent"
	"github.com/hearthware/tvpilot/pkg/journal"
	"github.com/hearthware/tvpilot/pkg/protocol"
	"github.com/hearthware/tvpilot/pkg/transcribe"
)

// Canned spoken responses. They are read aloud by the remote, so the exact
// wording is part of the product.
const (
	responseNotCaught = "I didn't catch that"
	responseApology   = "Sorry, I had trouble with that request"
	responseDone      = "Done"
)

const (
	catalogTimeout = 5 * time.Second
	journalTimeout = 5 * time.Second
)

// processVoice runs one voice request end to end: transcribe, infer,
// translate, dispatch, respond. It always sends exactly one response
// message, whatever fails along the way.
func (h *Hub) processVoice(s *remoteSession, header protocol.AudioHeader, audio []byte) {
	start := time.Now()
	record := journal.Exchange{SessionID: s.id}

	text, err := h.transcribeClip(header, audio)
	if err != nil || text == "" {
		if err != nil {
			h.logger.ErrorPrintf("remote %s: transcription: %v", s.id, err)
			record.Err = err.Error()
		} else {
			h.logger.InfoPrintf("remote %s: empty transcription", s.id)
		}
		h.respond(s, protocol.NewVoiceResponse("", responseNotCaught, nil), &record)
		return
	}
	h.logger.InfoPrintf("remote %s: transcribed %q", s.id, text)
	record.Transcription = text

	s.history.Append(intent.RoleUser, text)
	result, err := h.infer(s)
	if err != nil {
		h.logger.ErrorPrintf("remote %s: intent: %v", s.id, err)
		record.Err = err.Error()
		h.respond(s, protocol.NewVoiceResponse(text, responseApology, nil), &record)
		return
	}

	cmds, dropped := command.Translate(result.Invocations)
	for _, d := range dropped {
		h.logger.WarnPrintf("remote %s: dropped invocation %s: %v", s.id, d.Invocation.Name, d.Err)
	}

	spoken := result.SpokenText
	if spoken == "" {
		spoken = responseDone
	}
	s.history.Append(intent.RoleAssistant, spoken)

	if h.opts.Catalog != nil && len(cmds) > 0 {
		h.resolveContent(cmds)
	}

	tvOffline := false
	if len(cmds) > 0 {
		sent, err := h.dispatch(cmds)
		if err != nil {
			tvOffline = true
			if errors.Is(err, ErrNotConnected) {
				h.logger.WarnPrintf("remote %s: display offline, %d commands skipped", s.id, len(cmds))
			} else {
				h.logger.WarnPrintf("remote %s: dispatch stopped after %d: %v", s.id, sent, err)
			}
		}
	}
	record.Commands = commandKinds(cmds)

	resp := protocol.NewVoiceResponse(text, spoken, cmds)
	resp.TVOffline = tvOffline
	h.respond(s, resp, &record)
	h.logger.InfoPrintf("remote %s: voice request done in %s (%d commands)",
		s.id, time.Since(start).Round(time.Millisecond), len(cmds))
}

// respond delivers the pipeline's single response message and journals the
// exchange.
func (h *Hub) respond(s *remoteSession, resp *protocol.VoiceResponse, record *journal.Exchange) {
	record.Response = resp.Response
	record.TVOffline = resp.TVOffline
	if err := s.send(resp); err != nil {
		h.logger.WarnPrintf("remote %s: send response: %v", s.id, err)
	}
	h.recordExchange(*record)
}

func (h *Hub) transcribeClip(header protocol.AudioHeader, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(h.ctx, h.opts.TranscribeTimeout)
	defer cancel()
	res, err := h.opts.Transcriber.Transcribe(ctx, transcribe.Clip{
		Audio:      audio,
		SampleRate: header.SampleRate,
		Format:     header.Format,
		Language:   h.opts.Language,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
}

func (h *Hub) infer(s *remoteSession) (intent.Result, error) {
	ctx, cancel := context.WithTimeout(h.ctx, h.opts.IntentTimeout)
	defer cancel()
	return h.opts.Engine.Infer(ctx, intent.Request{
		System:  h.opts.Persona.SystemPrompt(h.store.Snapshot()),
		Tools:   h.opts.Tools,
		History: s.history.Turns(),
	})
}

// handleBypass runs a direct control message through the translator and
// dispatch, skipping transcription and intent.
func (h *Hub) handleBypass(s *remoteSession, msg protocol.RemoteMessage) {
	var inv command.Invocation
	switch m := msg.(type) {
	case *protocol.NavigateRequest:
		args, _ := json.Marshal(m)
		inv = command.Invocation{Name: command.KindNavigate, Arguments: args}
	case *protocol.PlaybackRequest:
		args, _ := json.Marshal(m)
		inv = command.Invocation{Name: command.KindPlayback, Arguments: args}
	default:
		return
	}

	cmds, dropped := command.Translate([]command.Invocation{inv})
	if len(dropped) > 0 {
		h.logger.WarnPrintf("remote %s: bypass %s: %v", s.id, inv.Name, dropped[0].Err)
		if err := s.send(protocol.NewErrorMessage(dropped[0].Err.Error())); err != nil {
			h.logger.WarnPrintf("remote %s: send error message: %v", s.id, err)
		}
		return
	}
	if _, err := h.dispatch(cmds); err != nil {
		if !errors.Is(err, ErrNotConnected) {
			h.logger.WarnPrintf("remote %s: bypass dispatch: %v", s.id, err)
		}
		if err := s.send(protocol.NewErrorMessage("TV not connected")); err != nil {
			h.logger.WarnPrintf("remote %s: send error message: %v", s.id, err)
		}
	}
}

// dispatch sends commands to the display in order. It returns how many went
// out; a mid-batch send failure abandons the remaining sends.
func (h *Hub) dispatch(cmds []command.Command) (int, error) {
	d := h.reg.getDisplay()
	if d == nil {
		return 0, ErrNotConnected
	}
	for i, cmd := range cmds {
		if err := d.send(protocol.NewDisplayCommand(cmd, time.Now())); err != nil {
			return i, wrapError(err, "dispatch "+cmd.Kind())
		}
	}
	return len(cmds), nil
}

// resolveContent annotates playContent and search commands with the
// top-ranked catalog entry. Best effort: a lookup failure leaves the
// command as the translator produced it.
func (h *Hub) resolveContent(cmds []command.Command) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case *command.PlayContent:
			if c.Service != "" {
				continue
			}
			if e, ok := h.lookupCatalog(catalog.Query{Title: c.Title, Type: c.Type}); ok {
				c.Service = e.Service
			}
		case *command.Search:
			if c.Service != "" {
				continue
			}
			q := catalog.Query{Title: c.Query}
			if c.Type != "any" {
				q.Type = c.Type
			}
			if e, ok := h.lookupCatalog(q); ok {
				c.Service = e.Service
			}
		}
	}
}

func (h *Hub) lookupCatalog(q catalog.Query) (catalog.Entry, bool) {
	ctx, cancel := context.WithTimeout(h.ctx, catalogTimeout)
	defer cancel()
	entries, err := h.opts.Catalog.Search(ctx, q)
	if err != nil {
		h.logger.WarnPrintf("catalog lookup %q: %v", q.Title, err)
		return catalog.Entry{}, false
	}
	if len(entries) == 0 {
		return catalog.Entry{}, false
	}
	return entries[0], true
}

func (h *Hub) recordExchange(x journal.Exchange) {
	if h.opts.Journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := h.opts.Journal.Record(ctx, x); err != nil {
		h.logger.WarnPrintf("journal record: %v", err)
	}
}

func commandKinds(cmds []command.Command) []string {
	if len(cmds) == 0 {
		return nil
	}
	kinds := make([]string, len(cmds))
	for i, cmd := range cmds {
		kinds[i] = cmd.Kind()
	}
	return kinds
}
