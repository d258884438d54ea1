package auth0

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// StatusError reports a non-success response. It is distinct from an empty
// result so callers can decide whether a failed fetch ends the data.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed, status: %d | resp: %s", e.Op, e.StatusCode, e.Body)
}

// RateLimitError is returned when the API answers 429. Header values that
// were missing or unparsable are left zero.
type RateLimitError struct {
	Op        string
	Limit     int64
	Remaining int64
	Reset     time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s failed because of rate limit: %d, remaining: %d, reset: %s",
		e.Op, e.Limit, e.Remaining, e.ResetIn(time.Now()))
}

// ResetIn renders the time until the rate-limit window resets relative to now.
func (e *RateLimitError) ResetIn(now time.Time) string {
	if e.Reset.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(e.Reset, now, "ago", "from now")
}
