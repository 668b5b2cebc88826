// Package domain contains the core data types for the shuttle pool service.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// RouteType is the trip direction a rider books: a morning pickup or an
// evening drop.
type RouteType string

const (
	RoutePick RouteType = "pick"
	RouteDrop RouteType = "drop"
)

// Valid reports whether t is one of the two recognized route types.
func (t RouteType) Valid() bool {
	return t == RoutePick || t == RouteDrop
}

// Label returns the rider-facing name of the route type.
func (t RouteType) Label() string {
	if t == RoutePick {
		return "pickup"
	}
	return "drop"
}

// Request is a single trip request: one rider, one direction, one time slot
// on one calendar day. At most one non-expired Request exists per
// (owner, type, day); re-selecting the same type overwrites the record in
// place. Requests are never deleted — the expiry sweep flips Expired once
// ScheduledAt has passed.
type Request struct {
	ID          uuid.UUID
	Owner       string // opaque messaging user identifier
	Type        RouteType
	SlotLabel   string // literal catalog label, e.g. "09:30 AM"
	ScheduledAt time.Time
	RouteMapURL string
	Expired     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
