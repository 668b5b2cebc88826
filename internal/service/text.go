package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
	"github.com/asehra/shuttle-pool/backend/internal/repo"
)

// tripLinkPattern matches the shareable live-trip links riders paste after
// starting navigation.
var tripLinkPattern = regexp.MustCompile(`https://maps\.app\.goo\.gl/\S+`)

// TextService is the top-level dispatcher for free-text input: a pasted
// live-trip link broadcasts to the sender's slot group, anything else gets
// an edit or selection prompt based on what the sender has booked today.
type TextService struct {
	requests repo.RequestRepo
	msgr     Messenger
	loc      *time.Location
	log      *slog.Logger
	metrics  Metrics
	now      func() time.Time
}

// NewTextService constructs a TextService operating in the given timezone.
// metrics may be nil.
func NewTextService(requests repo.RequestRepo, msgr Messenger, loc *time.Location, log *slog.Logger, metrics Metrics) *TextService {
	return &TextService{requests: requests, msgr: msgr, loc: loc, log: log, metrics: metrics, now: time.Now}
}

// ProcessText routes one free-text message from sender. ref is the
// evaluation instant; pass the zero time to use "now" in the operating
// timezone.
func (t *TextService) ProcessText(ctx context.Context, sender, body string, ref time.Time) error {
	if ref.IsZero() {
		ref = t.now()
	}
	ref = ref.In(t.loc)

	if link := tripLinkPattern.FindString(body); link != "" {
		return t.broadcastTripLink(ctx, sender, link, ref)
	}
	return t.sendPrompts(ctx, sender, ref)
}

// broadcastTripLink designates sender as the trip leader and rebroadcasts
// their tracking link to everyone scheduled at the same instant today.
// A group of one still yields the (degenerate) confirmation to the sender.
func (t *TextService) broadcastTripLink(ctx context.Context, sender, link string, ref time.Time) error {
	pending, ok, err := nearestUpcoming(ctx, t.requests, sender, ref)
	if err != nil {
		return fmt.Errorf("service.TextService.ProcessText: %w", err)
	}
	if !ok {
		err := t.msgr.SendText(ctx, sender,
			"No upcoming trip request found for you today, so there is nobody to share this with.")
		return wrapSendErr("TextService.ProcessText", err)
	}

	group, err := t.requests.ListActiveAt(ctx, pending.ScheduledAt)
	if err != nil {
		return fmt.Errorf("service.TextService.ProcessText: %w", err)
	}

	t.log.Info("broadcasting trip link", "slot", pending.SlotLabel, "riders", len(group), "leader", sender)
	if t.metrics != nil {
		t.metrics.BroadcastsInc()
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, member := range group {
		wg.Add(1)
		go func(member domain.Request) {
			defer wg.Done()
			var body string
			if member.Owner == sender {
				body = fmt.Sprintf(
					"You're the LEADER 🏁 — your trip link was shared with the *%s* group (%d rider(s)).",
					pending.SlotLabel, len(group))
			} else {
				body = fmt.Sprintf(
					"🚗 Trip at *%s* is in progress — %d rider(s) in this group. Track the LEADER here: %s",
					pending.SlotLabel, len(group), link)
			}
			if err := t.msgr.SendText(ctx, member.Owner, body); err != nil {
				if t.metrics != nil {
					t.metrics.SendFailuresInc()
				}
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("notify %s: %w", member.Owner, err))
				mu.Unlock()
			}
		}(member)
	}
	wg.Wait()

	if errs != nil {
		return fmt.Errorf("service.TextService.ProcessText: %w", errs)
	}
	return nil
}

// sendPrompts offers sender the next sensible action for today: edit
// choices for whatever is already booked, plus the initial pick/drop
// selection when nothing is.
func (t *TextService) sendPrompts(ctx context.Context, sender string, ref time.Time) error {
	dayStart, dayEnd := domain.DayWindow(ref)
	active, err := t.requests.ListActiveByOwner(ctx, sender, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("service.TextService.ProcessText: %w", err)
	}

	hasPick := lo.SomeBy(active, func(r domain.Request) bool { return r.Type == domain.RoutePick })
	hasDrop := lo.SomeBy(active, func(r domain.Request) bool { return r.Type == domain.RouteDrop })

	var (
		header  string
		body    string
		replies []domain.Reply
	)
	switch {
	case hasPick && hasDrop:
		header = "Edit your trips"
		body = "You already have pickup and drop slots booked for today. Want to change one?"
		replies = []domain.Reply{domain.EditPickReply, domain.EditDropReply}
	case hasPick:
		header = "Your trips today"
		body = "Your pickup slot is booked. Edit it, or add a drop trip for the evening?"
		replies = []domain.Reply{domain.EditPickReply, domain.DropReply}
	case hasDrop:
		header = "Your trips today"
		body = "Your drop slot is booked. Edit it, or add a pickup trip?"
		replies = []domain.Reply{domain.EditDropReply, domain.PickReply}
	default:
		header = "Shuttle booking"
		body = "Book a shared shuttle ride. Are you scheduling a pickup or a drop?"
		replies = []domain.Reply{domain.PickReply, domain.DropReply}
	}

	err = t.msgr.SendButtons(ctx, sender, header, body, replies)
	return wrapSendErr("TextService.ProcessText", err)
}
