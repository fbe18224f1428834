package webhook

import "errors"

// Domain errors for webhook operations.
// Delivery errors mean no HTTP response was obtained; a response with a
// non-2xx status is not an error at this level.
var (
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrTemporaryFailure     = errors.New("temporary webhook failure")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrInvalidURL           = errors.New("invalid webhook URL")
	ErrTimeout              = errors.New("webhook request timeout")
	ErrEndpointNotSet       = errors.New("webhook endpoint hostname is not configured")
)

// IsTimeout checks if an error indicates the request timed out
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
