package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
)

// EncodeComponent percent-encodes one URL component with %20 for spaces.
// url.QueryEscape's "+" would survive the second encoding pass as a literal
// plus, so the dir-link components use the %20 form throughout.
func EncodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// BuildMapsURL builds a Google Maps turn-by-turn deep link for the given
// ordered route: origin = first key, destination = last key, everything in
// between chained as waypoints.
//
// Each place name and place id is percent-encoded individually, the encoded
// parts are joined with a literal "|", and the joined string is
// percent-encoded again as a whole. The double encoding is intentional and
// load-bearing: the dir link format expects the pipe separator itself to
// arrive encoded, so the URL is assembled by hand rather than through
// url.Values (which would re-encode the percent signs).
//
// Any route key with no matching location fails the whole call with
// domain.ErrUnknownRouteKey; there is no default waypoint.
func BuildMapsURL(locations []domain.Location, routeKeys []string) (string, error) {
	stops, err := resolveRoute(locations, routeKeys)
	if err != nil {
		return "", fmt.Errorf("service.BuildMapsURL: %w", err)
	}

	origin, destination := stops[0], stops[len(stops)-1]
	via := stops[1 : len(stops)-1]

	names := make([]string, 0, len(via))
	placeIDs := make([]string, 0, len(via))
	for _, stop := range via {
		names = append(names, EncodeComponent(stop.DisplayName))
		placeIDs = append(placeIDs, EncodeComponent(stop.PlaceID))
	}
	waypoints := EncodeComponent(strings.Join(names, "|"))
	waypointPlaceIDs := EncodeComponent(strings.Join(placeIDs, "|"))

	mapsURL := fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&origin=%s&origin_place_id=%s"+
			"&destination=%s&destination_place_id=%s&waypoints=%s&waypoint_place_ids=%s"+
			"&travelmode=driving&dir_action=navigate",
		EncodeComponent(origin.DisplayName), EncodeComponent(origin.PlaceID),
		EncodeComponent(destination.DisplayName), EncodeComponent(destination.PlaceID),
		waypoints, waypointPlaceIDs,
	)
	return mapsURL, nil
}

// BuildRouteMessage composes the rider-facing trip summary for a route,
// naming the first and last stops and the scheduled slot.
func BuildRouteMessage(locations []domain.Location, routeKeys []string, slotLabel string) (string, error) {
	stops, err := resolveRoute(locations, routeKeys)
	if err != nil {
		return "", fmt.Errorf("service.BuildRouteMessage: %w", err)
	}

	origin := stops[0].ShortName
	destination := stops[len(stops)-1].ShortName

	message := fmt.Sprintf("Scheduled for %s.\n\n\n", slotLabel) +
		"*Be the 'LEADER':* The first person to share their live location will be the 'LEADER'.\n\n" +
		"*Real-time updates:* Everyone can track the LEADER's trip progress.\n\n" +
		"*Smooth pickup:* Share your location when you're close to the pickup point.\n\n" +
		"_How to Share Live-Location?🤔_\n\n" +
		"*Will send a reminder again few minutes before the trip* (if no live location is shared).\n\n" +
		fmt.Sprintf("📍*Pickup* - *%s*\n\n📍*Drop* - *%s*\n\nLet's go! 🚗💨", origin, destination)

	return message, nil
}

// resolveRoute maps an ordered key sequence onto location records.
// Routes of fewer than two stops make no navigable trip.
func resolveRoute(locations []domain.Location, routeKeys []string) ([]domain.Location, error) {
	if len(routeKeys) < 2 {
		return nil, fmt.Errorf("%w: route needs at least two stops", domain.ErrValidation)
	}

	stops := make([]domain.Location, 0, len(routeKeys))
	for _, key := range routeKeys {
		stop, ok := lo.Find(locations, func(l domain.Location) bool { return l.RouteKey == key })
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRouteKey, key)
		}
		stops = append(stops, stop)
	}
	return stops, nil
}
