package telegram

import (
	"errors"
	"fmt"
	"time"
)

// APIError is a Bot API rejection (ok=false). Code carries the
// platform's error_code; RetryAfter is set for rate-limit responses.
type APIError struct {
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api %d: %s", e.Code, e.Description)
}

// IsForbidden reports whether err means the recipient blocked the bot
// (or the bot was otherwise refused access to the chat).
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == 403
}

// IsTooManyRequests reports whether err is a rate-limit rejection.
func IsTooManyRequests(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == 429
}

// IsBadRequest reports whether err is a request the platform rejected
// outright (malformed chat id, deleted source message and so on).
func IsBadRequest(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == 400
}
