package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// record does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when user input fails business rule validation
// (e.g. unknown route type, malformed slot label, a place share where a live
// location was required). Callers surface it as a direct reply to the user
// and must not mutate any state.
var ErrValidation = errors.New("validation error")

// ErrUnknownRouteKey is returned when a route references a key that has no
// matching Location record. This is a data problem, not a user problem: it
// is fatal to the call and must be logged, never turned into a broken link.
var ErrUnknownRouteKey = errors.New("unknown route key")
