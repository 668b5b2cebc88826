// Package handler implements the HTTP surface of the shuttle pool service:
// the WhatsApp webhook (verification handshake and message receive), the
// operator endpoint that sends a route plan to the driver, and the health
// check. Handlers parse and dispatch; every business rule lives in the
// service layer.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
	"github.com/asehra/shuttle-pool/backend/internal/service"
)

// RequestUpserter is the slice of RequestService the webhook dispatcher
// needs. Defining the interface here (in the consumer package) lets handler
// tests inject a mock without touching the database.
type RequestUpserter interface {
	Upsert(ctx context.Context, routeType domain.RouteType, owner, slotLabel string) (service.UpsertResult, error)
}

// TextRouter dispatches free-text messages.
type TextRouter interface {
	ProcessText(ctx context.Context, sender, body string, ref time.Time) error
}

// LocationAccepter evaluates inbound live-location shares.
type LocationAccepter interface {
	AcceptLocation(ctx context.Context, sender string, share domain.LocationShare, ref time.Time) (bool, error)
}

// Gateway is the slice of the messaging client the handlers call directly:
// user-facing error replies, slot lists and route plans in response to
// interactive selections, and read receipts.
type Gateway interface {
	SendText(ctx context.Context, to, body string) error
	SendSlotList(ctx context.Context, to string, routeType domain.RouteType) error
	SendCTAURL(ctx context.Context, to, header, body, displayText, url string) error
	MarkRead(ctx context.Context, messageID string) error
}

// Server holds every dependency the HTTP handlers need.
type Server struct {
	requests RequestUpserter
	text     TextRouter
	matcher  LocationAccepter
	gateway  Gateway

	verifyToken  string
	driverNumber string

	validate *validator.Validate
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(requests RequestUpserter, text TextRouter, matcher LocationAccepter, gateway Gateway, verifyToken, driverNumber string, log *slog.Logger) *Server {
	return &Server{
		requests:     requests,
		text:         text,
		matcher:      matcher,
		gateway:      gateway,
		verifyToken:  verifyToken,
		driverNumber: driverNumber,
		validate:     validator.New(),
		log:          log,
	}
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/webhook", s.VerifyWebhook)
	r.Post("/webhook", s.ReceiveWebhook)
	r.Post("/send-message-to-driver", s.SendDriverRoute)
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error response shape for the operator endpoints.
type errorBody struct {
	Error string `json:"error"`
}
