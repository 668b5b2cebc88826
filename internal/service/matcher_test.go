package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
	"github.com/asehra/shuttle-pool/backend/internal/service"
)

// Coordinates relative to the metro anchor (12.980939, 77.708631).
// 0.005 degrees of latitude is roughly 550 m; 0.0135 roughly 1.5 km.
var (
	nearMetro = domain.LocationShare{Lat: 12.9855, Lng: 77.7086}
	farMetro  = domain.LocationShare{Lat: 12.9945, Lng: 77.7086}
)

func newMatcher(requests *mockRequestRepo, locations *mockLocationRepo, msgr *mockMessenger) *service.MatcherService {
	return service.NewMatcherService(requests, locations, msgr, ist, discardLogger())
}

func TestMatcherService_AcceptLocation_WithinAnchorRadius(t *testing.T) {
	ref := time.Date(2025, 6, 2, 9, 0, 0, 0, ist)
	requests := &mockRequestRepo{
		listActiveByOwner: func(_ context.Context, owner string, _, _ time.Time) ([]domain.Request, error) {
			assert.Equal(t, "u-1", owner)
			return []domain.Request{activeRequest("u-1", domain.RoutePick, "09:30 AM", ref)}, nil
		},
	}
	msgr := &mockMessenger{}

	accepted, err := newMatcher(requests, staticLocations(), msgr).
		AcceptLocation(context.Background(), "u-1", nearMetro, ref)

	require.NoError(t, err)
	assert.True(t, accepted)
	texts := msgr.sentTexts()
	require.Len(t, texts, 1)
	assert.Equal(t, "u-1", texts[0].to)
	assert.Contains(t, texts[0].body, "Location received")
	assert.Contains(t, texts[0].body, "pickup point")
	assert.Contains(t, texts[0].body, "*09:30 AM*")
}

func TestMatcherService_AcceptLocation_TooFarFromAnchor(t *testing.T) {
	ref := time.Date(2025, 6, 2, 9, 0, 0, 0, ist)
	requests := &mockRequestRepo{
		listActiveByOwner: func(_ context.Context, _ string, _, _ time.Time) ([]domain.Request, error) {
			return []domain.Request{activeRequest("u-1", domain.RoutePick, "09:30 AM", ref)}, nil
		},
	}
	msgr := &mockMessenger{}

	accepted, err := newMatcher(requests, staticLocations(), msgr).
		AcceptLocation(context.Background(), "u-1", farMetro, ref)

	require.NoError(t, err)
	assert.False(t, accepted)
	texts := msgr.sentTexts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0].body, "too far from the pickup point")
}

func TestMatcherService_AcceptLocation_SavedPlaceRejected(t *testing.T) {
	// A share carrying a name is a saved place even when its coordinates sit
	// right on the anchor. No repo call should happen: both mocks are empty.
	msgr := &mockMessenger{}
	share := domain.LocationShare{Lat: 12.980939, Lng: 77.708631, Name: "Seetharam Palya Metro Station"}

	accepted, err := newMatcher(&mockRequestRepo{}, &mockLocationRepo{}, msgr).
		AcceptLocation(context.Background(), "u-1", share, time.Date(2025, 6, 2, 9, 0, 0, 0, ist))

	require.NoError(t, err)
	assert.False(t, accepted)
	texts := msgr.sentTexts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0].body, "live location")
}

func TestMatcherService_AcceptLocation_AddressAloneRejects(t *testing.T) {
	msgr := &mockMessenger{}
	share := domain.LocationShare{Lat: 12.980939, Lng: 77.708631, Address: "Whitefield Main Rd"}

	accepted, err := newMatcher(&mockRequestRepo{}, &mockLocationRepo{}, msgr).
		AcceptLocation(context.Background(), "u-1", share, time.Date(2025, 6, 2, 9, 0, 0, 0, ist))

	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestMatcherService_AcceptLocation_NoPendingRequest(t *testing.T) {
	ref := time.Date(2025, 6, 2, 9, 0, 0, 0, ist)
	requests := &mockRequestRepo{
		listActiveByOwner: func(_ context.Context, _ string, _, _ time.Time) ([]domain.Request, error) {
			return nil, nil
		},
	}
	msgr := &mockMessenger{}

	accepted, err := newMatcher(requests, staticLocations(), msgr).
		AcceptLocation(context.Background(), "u-1", nearMetro, ref)

	require.NoError(t, err)
	assert.False(t, accepted)
	texts := msgr.sentTexts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0].body, "no active trip request")
}

func TestMatcherService_AcceptLocation_ElapsedSlotDoesNotMatch(t *testing.T) {
	// The only booking of the day has already departed; the share has no
	// upcoming request to match against.
	ref := time.Date(2025, 6, 2, 10, 0, 0, 0, ist)
	requests := &mockRequestRepo{
		listActiveByOwner: func(_ context.Context, _ string, _, _ time.Time) ([]domain.Request, error) {
			return []domain.Request{activeRequest("u-1", domain.RoutePick, "09:30 AM", ref)}, nil
		},
	}
	msgr := &mockMessenger{}

	accepted, err := newMatcher(requests, staticLocations(), msgr).
		AcceptLocation(context.Background(), "u-1", nearMetro, ref)

	require.NoError(t, err)
	assert.False(t, accepted)
}

func TestMatcherService_AcceptLocation_DropAnchorsOnOffice(t *testing.T) {
	// Evening drop: the anchor is the argon office stop, so coordinates near
	// the metro station are now out of range.
	ref := time.Date(2025, 6, 2, 16, 0, 0, 0, ist)
	requests := &mockRequestRepo{
		listActiveByOwner: func(_ context.Context, _ string, _, _ time.Time) ([]domain.Request, error) {
			return []domain.Request{activeRequest("u-1", domain.RouteDrop, "04:30 PM", ref)}, nil
		},
	}

	t.Run("near the office", func(t *testing.T) {
		msgr := &mockMessenger{}
		share := domain.LocationShare{Lat: 12.9712, Lng: 77.7105}

		accepted, err := newMatcher(requests, staticLocations(), msgr).
			AcceptLocation(context.Background(), "u-1", share, ref)

		require.NoError(t, err)
		assert.True(t, accepted)
	})

	t.Run("near the metro instead", func(t *testing.T) {
		msgr := &mockMessenger{}
		share := domain.LocationShare{Lat: 12.9945, Lng: 77.7086}

		accepted, err := newMatcher(requests, staticLocations(), msgr).
			AcceptLocation(context.Background(), "u-1", share, ref)

		require.NoError(t, err)
		assert.False(t, accepted)
		texts := msgr.sentTexts()
		require.Len(t, texts, 1)
		assert.Contains(t, texts[0].body, "too far from the drop point")
	})
}

func TestMatcherService_AcceptLocation_MissingAnchorIsAnError(t *testing.T) {
	ref := time.Date(2025, 6, 2, 9, 0, 0, 0, ist)
	requests := &mockRequestRepo{
		listActiveByOwner: func(_ context.Context, _ string, _, _ time.Time) ([]domain.Request, error) {
			return []domain.Request{activeRequest("u-1", domain.RoutePick, "09:30 AM", ref)}, nil
		},
	}
	locations := &mockLocationRepo{
		list: func(_ context.Context) ([]domain.Location, error) {
			return []domain.Location{}, nil
		},
	}

	_, err := newMatcher(requests, locations, &mockMessenger{}).
		AcceptLocation(context.Background(), "u-1", nearMetro, ref)

	assert.ErrorIs(t, err, domain.ErrUnknownRouteKey)
}
