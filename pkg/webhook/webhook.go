package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxResponseBody bounds how much of a response body is read and kept
const maxResponseBody = 64 * 1024

// Sender performs single webhook delivery attempts.
// Zero value is not usable; use NewSender to create instances.
type Sender struct {
	// client is reused across requests for connection pooling and performance
	client   *http.Client
	defaults []SendOption
}

// NewSender creates a webhook sender with default HTTP client.
// Options given here apply to every request and can be overridden per call.
func NewSender(opts ...SendOption) *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: 30 * time.Second, // Upper bound, the per-request timeout is usually lower
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		defaults: opts,
	}
}

// NewSenderWithClient creates a webhook sender with a custom HTTP client.
// This allows for custom transports, proxies, or testing.
func NewSenderWithClient(client *http.Client, opts ...SendOption) *Sender {
	if client == nil {
		return NewSender(opts...)
	}
	return &Sender{client: client, defaults: opts}
}

// NewSenderFromConfig creates a sender applying the timeout, basic auth and
// signing settings of cfg.
func NewSenderFromConfig(cfg Config, opts ...SendOption) *Sender {
	defaults := make([]SendOption, 0, 3+len(opts))
	if cfg.Timeout > 0 {
		defaults = append(defaults, WithTimeout(cfg.Timeout))
	}
	if cfg.AuthUsername != "" || cfg.AuthPassword != "" {
		defaults = append(defaults, WithBasicAuth(cfg.AuthUsername, cfg.AuthPassword))
	}
	if cfg.SigningSecret != "" {
		defaults = append(defaults, WithSignature(cfg.SigningSecret))
	}
	return NewSender(append(defaults, opts...)...)
}

// Post makes one POST request carrying body verbatim with the given headers.
//
// Any HTTP response, whatever its status, is returned with a nil error; the
// caller decides what a non-2xx status means. A non-nil error means no response
// was obtained and wraps ErrTimeout, ErrTemporaryFailure or a validation error.
func (s *Sender) Post(ctx context.Context, webhookURL string, body []byte, headers map[string]string, opts ...SendOption) (*Response, error) {
	if err := validateURL(webhookURL); err != nil {
		return nil, err
	}

	options := defaultSendOptions()
	for _, opt := range s.defaults {
		opt(options)
	}
	for _, opt := range opts {
		opt(options)
	}

	client := s.client
	if options.httpClient != nil {
		client = options.httpClient
	}

	resp, err := s.attemptDelivery(ctx, client, webhookURL, body, headers, options)

	if options.onDelivery != nil {
		result := DeliveryResult{Error: err}
		if resp != nil {
			result.StatusCode = resp.StatusCode
			result.Success = resp.Success()
			result.Duration = resp.Duration
		}
		options.onDelivery(result)
	}

	return resp, err
}

// validateURL performs early validation to fail fast on obvious errors
func validateURL(webhookURL string) error {
	if webhookURL == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}

	u, err := url.Parse(webhookURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	// Restrict to HTTP/HTTPS for security and to prevent SSRF attacks
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	return nil
}

// attemptDelivery makes a single HTTP request attempt with timing and error capture
func (s *Sender) attemptDelivery(ctx context.Context, client *http.Client, webhookURL string, body []byte, headers map[string]string, options *sendOptions) (*Response, error) {
	start := time.Now()

	// Layer timeout on top of parent context to respect both constraints
	reqCtx, cancel := context.WithTimeout(ctx, options.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	// Message headers first, static options override them
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for k, v := range options.headers {
		req.Header.Set(k, v)
	}

	if options.basicAuth != nil {
		req.SetBasicAuth(options.basicAuth.username, options.basicAuth.password)
	}

	if options.signatureSecret != "" {
		sigHeaders, err := SignPayload(options.signatureSecret, options.deliveryID, body)
		if err != nil {
			return nil, fmt.Errorf("failed to sign payload: %w", err)
		}
		for k, v := range sigHeaders.Headers() {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Body read errors after the status line still count as a received response
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Header:     resp.Header.Clone(),
		Duration:   time.Since(start),
	}, nil
}
