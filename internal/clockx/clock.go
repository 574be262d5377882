// Package clockx truncates and compares timestamps at the resolution the
// vault file format actually persists (whole seconds), so in-memory
// millisecond precision never leaks into merge decisions.
package clockx

import "time"

// Serialized truncates t to second resolution, in UTC, matching what a
// round-trip through the on-disk format would produce.
func Serialized(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Compare returns -1, 0 or 1 for a<b, a==b, a>b. When ignoreSubSecond is
// true (the case everywhere in the merge engine) both timestamps are passed
// through Serialized first.
func Compare(a, b time.Time, ignoreSubSecond bool) int {
	if ignoreSubSecond {
		a, b = Serialized(a), Serialized(b)
	}
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b are the same instant at second resolution.
func Equal(a, b time.Time) bool {
	return Compare(a, b, true) == 0
}
