package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
)

// webhookEnvelope is the WhatsApp Cloud API webhook payload, reduced to the
// fields this service reads. The shape is defined by Meta; see the Cloud API
// webhook payload reference.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// inboundMessage is one rider message: text, an interactive selection, or a
// location share.
type inboundMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Interactive *struct {
		Type        string        `json:"type"`
		ButtonReply *domain.Reply `json:"button_reply,omitempty"`
		ListReply   *domain.Reply `json:"list_reply,omitempty"`
	} `json:"interactive,omitempty"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      string  `json:"name,omitempty"`
		Address   string  `json:"address,omitempty"`
	} `json:"location,omitempty"`
}

// VerifyWebhook handles GET /webhook, the Cloud API subscription handshake:
// echo hub.challenge with 200 when the mode and verify token match, 403
// otherwise.
func (s *Server) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		s.log.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
		return
	}
	s.log.Warn("webhook verification rejected", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

// ReceiveWebhook handles POST /webhook. It always answers 200 — the Cloud
// API retries anything else, and every failure here already degrades to an
// error reply to the rider instead.
func (s *Server) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		s.log.Warn("undecodable webhook payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	msg, ok := firstMessage(envelope)
	if !ok {
		// Status updates and other non-message events share this endpoint.
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()

	if err := s.gateway.MarkRead(ctx, msg.ID); err != nil {
		s.log.Warn("mark read failed", "message_id", msg.ID, "error", err)
	}

	s.dispatch(ctx, msg)
	w.WriteHeader(http.StatusOK)
}

// firstMessage extracts the first message from the envelope, if any.
func firstMessage(envelope webhookEnvelope) (inboundMessage, bool) {
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				return change.Value.Messages[0], true
			}
		}
	}
	return inboundMessage{}, false
}

// dispatch routes one inbound message to the matching flow.
func (s *Server) dispatch(ctx context.Context, msg inboundMessage) {
	switch msg.Type {
	case "interactive":
		s.dispatchInteractive(ctx, msg)
	case "text":
		if msg.Text == nil {
			return
		}
		if err := s.text.ProcessText(ctx, msg.From, msg.Text.Body, time.Time{}); err != nil {
			s.replyError(ctx, msg.From, err)
		}
	case "location":
		if msg.Location == nil {
			return
		}
		share := domain.LocationShare{
			Lat:     msg.Location.Latitude,
			Lng:     msg.Location.Longitude,
			Name:    msg.Location.Name,
			Address: msg.Location.Address,
		}
		if _, err := s.matcher.AcceptLocation(ctx, msg.From, share, time.Time{}); err != nil {
			s.replyError(ctx, msg.From, err)
		}
	default:
		s.log.Debug("ignoring unsupported message type", "type", msg.Type)
	}
}

// dispatchInteractive handles button and list selections, matched against
// the reply catalogs by exact id + title.
func (s *Server) dispatchInteractive(ctx context.Context, msg inboundMessage) {
	switch {
	case msg.Interactive.ButtonReply != nil:
		reply := *msg.Interactive.ButtonReply
		var routeType domain.RouteType
		switch reply {
		case domain.PickReply, domain.EditPickReply:
			routeType = domain.RoutePick
		case domain.DropReply, domain.EditDropReply:
			routeType = domain.RouteDrop
		default:
			s.log.Debug("unknown button reply", "id", reply.ID, "title", reply.Title)
			return
		}
		if err := s.gateway.SendSlotList(ctx, msg.From, routeType); err != nil {
			s.log.Error("send slot list failed", "to", msg.From, "error", err)
		}

	case msg.Interactive.ListReply != nil:
		reply := *msg.Interactive.ListReply
		routeType, ok := domain.FindSlotSection(reply)
		if !ok {
			s.log.Debug("unknown list reply", "id", reply.ID, "title", reply.Title)
			return
		}
		result, err := s.requests.Upsert(ctx, routeType, msg.From, reply.Title)
		if err != nil {
			s.replyError(ctx, msg.From, err)
			return
		}
		if err := s.gateway.SendCTAURL(ctx, msg.From, "Route Plan", result.RouteMessage, "OPEN MAPS", result.MapsURL); err != nil {
			s.log.Error("send route plan failed", "to", msg.From, "error", err)
		}
	}
}

// replyError degrades a failed flow into a reply: validation problems get
// their own message, everything else a generic one. The service never
// crashes a webhook delivery over a single rider's error.
func (s *Server) replyError(ctx context.Context, to string, err error) {
	body := "Something went wrong on our side. Please try again in a bit."
	if errors.Is(err, domain.ErrValidation) {
		body = "That selection didn't make sense to me. Send any message to see your options."
	}
	s.log.Error("webhook flow failed", "to", to, "error", err)
	if sendErr := s.gateway.SendText(ctx, to, body); sendErr != nil {
		s.log.Error("error reply failed", "to", to, "error", sendErr)
	}
}
