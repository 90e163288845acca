package telegram

import (
	"errors"
	"fmt"
	"time"
)

// APIError is a Bot API call that returned ok=false or a non-2xx status.
type APIError struct {
	Method      string
	Code        int
	Description string

	// RetryAfter is set when the API asked to back off (429).
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram %s: status %d", e.Method, e.Code)
	}
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// IsRetryable reports whether err is worth retrying: rate limits, server
// errors and anything that is not an API error (network failures).
func IsRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err != nil
	}
	return apiErr.Code == 429 || apiErr.Code >= 500
}
