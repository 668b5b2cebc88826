package domain

import "github.com/google/uuid"

// Location is a reference record for a named stop along a shuttle route.
// RouteKey is the stable tag routes are defined in terms of ("metro",
// "neon", "xenon", "argon"); PlaceID is the Google Maps place identifier
// used when building navigation links.
type Location struct {
	ID          uuid.UUID
	ShortName   string // rider-facing name, e.g. "Seetharam Palaya Metro"
	DisplayName string // full map place name, e.g. "Seetharam Palya Metro Station"
	PlaceID     string
	RouteKey    string
	Lat         float64
	Lng         float64
}

// LocationShare is an inbound live-location payload from the messaging
// webhook. Name and Address are populated when the user shared a saved
// place instead of their live position, which disqualifies the share.
type LocationShare struct {
	Lat     float64
	Lng     float64
	Name    string
	Address string
}
