package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
	"github.com/asehra/shuttle-pool/backend/internal/repo"
)

// RequestService implements the trip request lifecycle: one non-expired
// request per (owner, route type, calendar day), overwritten in place on
// re-selection.
type RequestService struct {
	requests  repo.RequestRepo
	locations repo.LocationRepo
	loc       *time.Location
	now       func() time.Time
}

// NewRequestService constructs a RequestService operating in the given
// timezone.
func NewRequestService(requests repo.RequestRepo, locations repo.LocationRepo, loc *time.Location) *RequestService {
	return &RequestService{requests: requests, locations: locations, loc: loc, now: time.Now}
}

// WithClock overrides the service's time source. Tests use it to pin "today".
func (s *RequestService) WithClock(now func() time.Time) *RequestService {
	s.now = now
	return s
}

// UpsertResult carries the composed route message and map URL back to the
// caller so it can notify the rider.
type UpsertResult struct {
	RouteMessage string
	MapsURL      string
}

// Upsert records a slot selection for owner. An unrecognized route type is
// rejected with domain.ErrValidation before any write. Otherwise the route
// message and maps URL are composed for the chosen direction, and the
// owner's existing same-day request of the same type is overwritten in
// place — or a fresh record inserted when none exists.
//
// The dedup is read-then-write, not transactional: two near-simultaneous
// selections of the same type by the same owner can race into two records.
func (s *RequestService) Upsert(ctx context.Context, routeType domain.RouteType, owner, slotLabel string) (UpsertResult, error) {
	if !routeType.Valid() {
		return UpsertResult{}, fmt.Errorf("service.RequestService.Upsert: %w: invalid route type %q", domain.ErrValidation, routeType)
	}

	ref := s.now().In(s.loc)
	scheduledAt, err := domain.ParseSlotLabel(slotLabel, ref)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("service.RequestService.Upsert: %w", err)
	}

	locations, err := loadLocations(ctx, s.locations)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("service.RequestService.Upsert: %w", err)
	}

	routeKeys := domain.RouteKeys(routeType)
	routeMessage, err := BuildRouteMessage(locations, routeKeys, slotLabel)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("service.RequestService.Upsert: %w", err)
	}
	mapsURL, err := BuildMapsURL(locations, routeKeys)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("service.RequestService.Upsert: %w", err)
	}

	dayStart, dayEnd := domain.DayWindow(ref)
	existing, err := s.requests.ListActiveByOwner(ctx, owner, dayStart, dayEnd)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("service.RequestService.Upsert: %w", err)
	}

	if current, ok := lo.Find(existing, func(r domain.Request) bool { return r.Type == routeType }); ok {
		current.SlotLabel = slotLabel
		current.ScheduledAt = scheduledAt
		current.RouteMapURL = mapsURL
		if _, err := s.requests.Update(ctx, current); err != nil {
			return UpsertResult{}, fmt.Errorf("service.RequestService.Upsert: %w", err)
		}
	} else {
		req := domain.Request{
			Owner:       owner,
			Type:        routeType,
			SlotLabel:   slotLabel,
			ScheduledAt: scheduledAt,
			RouteMapURL: mapsURL,
		}
		if _, err := s.requests.Create(ctx, req); err != nil {
			return UpsertResult{}, fmt.Errorf("service.RequestService.Upsert: %w", err)
		}
	}

	return UpsertResult{RouteMessage: routeMessage, MapsURL: mapsURL}, nil
}

// loadLocations reads the location catalog with exponential-backoff retry.
// The read is idempotent, so retrying a flaky store here is always safe.
func loadLocations(ctx context.Context, locations repo.LocationRepo) ([]domain.Location, error) {
	var out []domain.Location
	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ls, err := locations.List(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		out = ls
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	return out, nil
}
