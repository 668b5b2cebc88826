// Package wa implements the outbound WhatsApp Cloud API gateway.
// One endpoint accepts every payload kind; the methods here build the
// interactive message shapes the conversation design uses. Sends are
// fire-and-forget from the caller's perspective: no retry, no dedup.
package wa

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
)

// Client talks to the WhatsApp Cloud API messages endpoint with a bearer
// credential. It satisfies service.Messenger and the handler's gateway
// interface.
type Client struct {
	http        *resty.Client
	messagesURL string
}

// NewClient constructs a gateway client for the given messages endpoint.
func NewClient(messagesURL, token string) *Client {
	http := resty.New().
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &Client{http: http, messagesURL: messagesURL}
}

// post sends one payload to the messages endpoint and turns non-2xx
// responses into errors carrying the gateway's reply body.
func (c *Client) post(ctx context.Context, payload map[string]any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.messagesURL)
	if err != nil {
		return fmt.Errorf("wa: post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("wa: gateway returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"text":              map[string]any{"body": body},
	})
}

// SendButtons sends an interactive reply-button prompt with 2–4 options.
func (c *Client) SendButtons(ctx context.Context, to, header, body string, replies []domain.Reply) error {
	buttons := make([]map[string]any, 0, len(replies))
	for _, r := range replies {
		buttons = append(buttons, map[string]any{
			"type":  "reply",
			"reply": map[string]any{"id": r.ID, "title": r.Title},
		})
	}
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"header": map[string]any{"type": "text", "text": header},
			"body":   map[string]any{"text": body},
			"action": map[string]any{"buttons": buttons},
		},
	})
}

// SendSlotList sends the sectioned time-slot list for a route type.
func (c *Client) SendSlotList(ctx context.Context, to string, routeType domain.RouteType) error {
	var (
		section    domain.Section
		body       string
		buttonText string
	)
	if routeType == domain.RoutePick {
		section = domain.PickSection
		body = "📍*Pickup* - Seetharam Palaya Metro\n\n📍*Drop* - Schneider - Argon North\n\n🚗💨"
		buttonText = "Pickup timings"
	} else {
		section = domain.DropSection
		body = "📍*Pickup* - Schneider - Argon North\n\n📍*Drop* - Seetharam Palaya Metro \n\n🚗💨"
		buttonText = "Drop timings"
	}

	rows := make([]map[string]any, 0, len(section.Rows))
	for _, row := range section.Rows {
		rows = append(rows, map[string]any{"id": row.ID, "title": row.Title})
	}

	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "list",
			"header": map[string]any{"type": "text", "text": "Route Plans"},
			"body":   map[string]any{"text": body},
			"action": map[string]any{
				"sections": []map[string]any{{"title": section.Title, "rows": rows}},
				"button":   buttonText,
			},
		},
	})
}

// SendCTAURL sends a call-to-action message that opens the given URL.
func (c *Client) SendCTAURL(ctx context.Context, to, header, body, displayText, url string) error {
	interactive := map[string]any{
		"type": "cta_url",
		"body": map[string]any{"text": body},
		"action": map[string]any{
			"name": "cta_url",
			"parameters": map[string]any{
				"display_text": displayText,
				"url":          url,
			},
		},
	}
	if header != "" {
		interactive["header"] = map[string]any{"type": "text", "text": header}
	}
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive":       interactive,
	})
}

// RequestLocation sends a location-request prompt: the recipient gets a
// one-tap "send location" action instead of digging through attachments.
func (c *Client) RequestLocation(ctx context.Context, to, body string) error {
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "location_request_message",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"name": "send_location"},
		},
	})
}

// MarkRead acknowledges an inbound message by id so the sender sees read
// receipts.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	})
}
