package webhook

import (
	"net/http"
	"time"
)

const userAgent = "hookrelay/1.0"

// Response is the HTTP response observed for a delivery attempt
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Duration   time.Duration
}

// Success reports whether the status code is in the 2xx class
func (r *Response) Success() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// DeliveryResult contains information about a webhook delivery attempt
type DeliveryResult struct {
	Success    bool
	StatusCode int
	Duration   time.Duration
	Error      error
}

// DeliveryHook is called after each delivery attempt
type DeliveryHook func(result DeliveryResult)

type basicAuth struct {
	username string
	password string
}

// sendOptions contains all configurable options for a webhook send operation
type sendOptions struct {
	timeout    time.Duration
	headers    map[string]string
	httpClient *http.Client

	basicAuth *basicAuth

	signatureSecret string
	deliveryID      string

	onDelivery DeliveryHook
}

// defaultSendOptions returns options with sensible defaults
func defaultSendOptions() *sendOptions {
	return &sendOptions{
		timeout: 10 * time.Second,
		headers: make(map[string]string),
	}
}

// SendOption is a functional option for configuring webhook sends
type SendOption func(*sendOptions)

// WithTimeout sets the HTTP request timeout.
// Default is 10 seconds if not specified.
func WithTimeout(timeout time.Duration) SendOption {
	return func(o *sendOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHeader adds a static header to the webhook request.
// Static headers take precedence over the message's own headers.
func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithBasicAuth injects an Authorization header with HTTP basic credentials
// into every request.
func WithBasicAuth(username, password string) SendOption {
	return func(o *sendOptions) {
		o.basicAuth = &basicAuth{username: username, password: password}
	}
}

// WithSignature enables HMAC-SHA256 request signing with the given secret.
// Adds X-Webhook-Signature, X-Webhook-Timestamp, and X-Webhook-ID headers.
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) {
		o.signatureSecret = secret
	}
}

// WithDeliveryID sets the value of the X-Webhook-ID signature header.
// Receivers can use it as an idempotency key since it is stable across retries.
func WithDeliveryID(id string) SendOption {
	return func(o *sendOptions) {
		o.deliveryID = id
	}
}

// WithHTTPClient sets a custom HTTP client for the request.
// Useful for custom transports, proxies, or testing.
func WithHTTPClient(client *http.Client) SendOption {
	return func(o *sendOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithOnDelivery sets a callback that's invoked after each delivery attempt.
// Useful for logging or metrics.
func WithOnDelivery(hook DeliveryHook) SendOption {
	return func(o *sendOptions) {
		o.onDelivery = hook
	}
}
