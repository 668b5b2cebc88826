package domain

import (
	"fmt"
	"time"
)

// slotLayout is the clock format of every catalog slot label ("hh:mm AM/PM").
const slotLayout = "03:04 PM"

// ParseSlotLabel resolves a slot label like "09:30 AM" to an instant on
// ref's calendar day, in ref's location, with seconds zeroed.
// "12:xx AM" maps to hour 0 and "12:xx PM" to hour 12.
//
// A label that does not match the catalog format (missing AM/PM, non-numeric
// or out-of-range fields) returns an error wrapping ErrValidation; callers
// must reject the selection rather than fall back to a default time.
func ParseSlotLabel(label string, ref time.Time) (time.Time, error) {
	clock, err := time.ParseInLocation(slotLayout, label, ref.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed time slot %q", ErrValidation, label)
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(),
		clock.Hour(), clock.Minute(), 0, 0, ref.Location()), nil
}

// DayWindow returns the half-open [midnight, next midnight) bounds of ref's
// calendar day in ref's location.
func DayWindow(ref time.Time) (start, end time.Time) {
	start = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return start, start.AddDate(0, 0, 1)
}

// SlotElapsed reports whether the slot instant at has already passed
// relative to ref.
func SlotElapsed(at, ref time.Time) bool {
	return at.Before(ref)
}
