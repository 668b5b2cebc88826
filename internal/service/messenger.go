// Package service contains the business logic of the shuttle pool service:
// route planning, the request lifecycle, the recurring expiry/reminder jobs,
// live-location matching, and free-text routing. Services depend on repo and
// gateway interfaces, not implementations, so every rule is unit-testable
// without a database or a live messaging endpoint.
package service

import (
	"context"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
)

// Messenger is the outbound messaging gateway as seen by the services.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". internal/wa
// provides the WhatsApp Cloud API implementation.
type Messenger interface {
	// SendText sends a plain text message.
	SendText(ctx context.Context, to, body string) error
	// SendButtons sends an interactive reply-button prompt.
	SendButtons(ctx context.Context, to, header, body string, replies []domain.Reply) error
	// SendSlotList sends the sectioned time-slot list for a route type.
	SendSlotList(ctx context.Context, to string, routeType domain.RouteType) error
	// SendCTAURL sends a call-to-action message opening the given URL.
	SendCTAURL(ctx context.Context, to, header, body, displayText, url string) error
}

// Metrics is the optional instrumentation hook the jobs and fan-out paths
// report to. A nil Metrics disables instrumentation.
type Metrics interface {
	RequestsExpiredAdd(n int64)
	RemindersSentInc()
	SendFailuresInc()
	BroadcastsInc()
}
