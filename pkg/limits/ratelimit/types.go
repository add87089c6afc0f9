package ratelimit

import "time"

// Window identifies one of the three quota windows.
type Window string

const (
	// WindowMinute is the 60-second window.
	WindowMinute Window = "minute"

	// WindowHour is the 3600-second window.
	WindowHour Window = "hour"

	// WindowDay is the 86400-second window.
	WindowDay Window = "day"
)

// Seconds returns the window length in seconds.
func (w Window) Seconds() float64 {
	switch w {
	case WindowMinute:
		return 60
	case WindowHour:
		return 3600
	case WindowDay:
		return 86400
	default:
		return 60
	}
}

// windows is the fixed evaluation order. All three are independent and must
// all pass; the order only makes denial reporting deterministic.
var windows = [3]Window{WindowMinute, WindowHour, WindowDay}

// Limits holds a caller's per-window request quotas.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// forWindow returns the limit for the given window.
func (l Limits) forWindow(w Window) int {
	switch w {
	case WindowMinute:
		return l.PerMinute
	case WindowHour:
		return l.PerHour
	case WindowDay:
		return l.PerDay
	default:
		return l.PerMinute
	}
}

// Decision is the result of a quota check.
//
// On an allowed request, Window is WindowMinute and Limit/Remaining/Reset
// describe the minute window, the one most visible to clients. On a denial,
// Window names the window that denied and RetryAfter is how long until one
// token is available in it.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Window is the reported window (minute on allow, the failing window
	// on deny).
	Window Window

	// Limit is the reported window's capacity.
	Limit int64

	// Remaining is the whole tokens left in the reported window.
	Remaining int64

	// Reset is when the reported window next has capacity: full refill on
	// allow, one available token on deny.
	Reset time.Time

	// RetryAfter is how long to wait before retrying. Zero on allow.
	RetryAfter time.Duration
}
