package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
	"github.com/asehra/shuttle-pool/backend/internal/repo"
)

// maxAnchorDistanceKM is how far from the route anchor a live-location
// share may originate and still be accepted.
const maxAnchorDistanceKM = 1.0

// MatcherService validates inbound live-location shares against the
// sender's nearest pending request.
type MatcherService struct {
	requests  repo.RequestRepo
	locations repo.LocationRepo
	msgr      Messenger
	loc       *time.Location
	log       *slog.Logger
	now       func() time.Time
}

// NewMatcherService constructs a MatcherService operating in the given
// timezone.
func NewMatcherService(requests repo.RequestRepo, locations repo.LocationRepo, msgr Messenger, loc *time.Location, log *slog.Logger) *MatcherService {
	return &MatcherService{requests: requests, locations: locations, msgr: msgr, loc: loc, log: log, now: time.Now}
}

// AcceptLocation evaluates a shared location from sender against their
// nearest upcoming request. ref is the evaluation instant; pass the zero
// time to use "now" in the operating timezone.
//
// Rejections (saved place instead of live coordinates, no pending request,
// too far from the anchor stop) reply directly to the sender and return
// accepted = false with a nil error; the error return is reserved for
// store and gateway failures. Broadcasting to co-riders is not done here —
// that stays with the shared-trip-link flow in TextService.
func (m *MatcherService) AcceptLocation(ctx context.Context, sender string, share domain.LocationShare, ref time.Time) (bool, error) {
	if ref.IsZero() {
		ref = m.now()
	}
	ref = ref.In(m.loc)

	// A payload carrying a name or address is a saved place, not a live
	// position.
	if share.Name != "" || share.Address != "" {
		err := m.msgr.SendText(ctx, sender,
			"That looks like a saved place 📌. Please share your *live location* so the group can track you.")
		return false, wrapSendErr("MatcherService.AcceptLocation", err)
	}

	pending, ok, err := nearestUpcoming(ctx, m.requests, sender, ref)
	if err != nil {
		return false, fmt.Errorf("service.MatcherService.AcceptLocation: %w", err)
	}
	if !ok {
		err := m.msgr.SendText(ctx, sender,
			"You have no active trip request for today. Pick a slot first!")
		return false, wrapSendErr("MatcherService.AcceptLocation", err)
	}

	locations, err := loadLocations(ctx, m.locations)
	if err != nil {
		return false, fmt.Errorf("service.MatcherService.AcceptLocation: %w", err)
	}
	anchorKey := domain.AnchorKey(pending.Type)
	anchor, ok := lo.Find(locations, func(l domain.Location) bool { return l.RouteKey == anchorKey })
	if !ok {
		return false, fmt.Errorf("service.MatcherService.AcceptLocation: %w: %q", domain.ErrUnknownRouteKey, anchorKey)
	}

	distance := haversineKM(anchor.Lat, anchor.Lng, share.Lat, share.Lng)
	if distance > maxAnchorDistanceKM {
		m.log.Debug("location share outside pickup zone",
			"sender", sender, "distance_km", distance, "anchor", anchorKey)
		err := m.msgr.SendText(ctx, sender,
			fmt.Sprintf("You're too far from the %s point to start the trip. Share again when you're closer.", pending.Type.Label()))
		return false, wrapSendErr("MatcherService.AcceptLocation", err)
	}

	err = m.msgr.SendText(ctx, sender,
		fmt.Sprintf("Location received ✅ — you're at the %s point for the *%s* trip. "+
			"Share your live tracking link to become the LEADER.", pending.Type.Label(), pending.SlotLabel))
	return true, wrapSendErr("MatcherService.AcceptLocation", err)
}

// nearestUpcoming returns sender's earliest non-expired request of the day
// whose instant has not yet elapsed relative to ref.
func nearestUpcoming(ctx context.Context, requests repo.RequestRepo, sender string, ref time.Time) (domain.Request, bool, error) {
	dayStart, dayEnd := domain.DayWindow(ref)
	active, err := requests.ListActiveByOwner(ctx, sender, dayStart, dayEnd)
	if err != nil {
		return domain.Request{}, false, err
	}
	for _, req := range active { // ordered ascending by scheduled_at
		if !domain.SlotElapsed(req.ScheduledAt, ref) {
			return req, true, nil
		}
	}
	return domain.Request{}, false, nil
}

// wrapSendErr annotates a gateway failure with the operation it interrupted.
func wrapSendErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("service.%s: send: %w", op, err)
}

// haversineKM returns the great-circle distance in kilometres between two
// coordinate pairs, using a mean Earth radius of 6371 km.
func haversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKM = 6371.0

	φ1 := lat1 * math.Pi / 180.0
	φ2 := lat2 * math.Pi / 180.0
	dφ := (lat2 - lat1) * math.Pi / 180.0
	dλ := (lng2 - lng1) * math.Pi / 180.0

	a := math.Sin(dφ/2)*math.Sin(dφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
