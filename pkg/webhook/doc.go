// Package webhook performs single HTTP POST delivery attempts to a configured
// endpoint.
//
// The package does not retry. A Sender makes exactly one request per Post call
// and returns whatever the endpoint answered. Deciding what a status code means,
// scheduling the next attempt and persisting the outcome belong to the caller.
//
// # Basic Usage
//
//	sender := webhook.NewSender()
//
//	resp, err := sender.Post(ctx, "https://api.example.com/webhook",
//	    []byte(`{"event":"user.created","id":"123"}`),
//	    map[string]string{"Content-Type": "application/json"})
//	if err != nil {
//	    // no response was received: timeout, DNS, refused connection
//	}
//	if !resp.Success() {
//	    // endpoint answered with a non-2xx status
//	}
//
// # Options
//
// Options passed to NewSender apply to every request; options passed to Post
// apply to that request only and win over the sender defaults.
//
//	sender := webhook.NewSender(
//	    webhook.WithTimeout(5*time.Second),
//	    webhook.WithBasicAuth("relay", "secret"),
//	    webhook.WithSignature("signing_secret"),
//	)
//
//	resp, err := sender.Post(ctx, url, body, headers,
//	    webhook.WithDeliveryID("42"),
//	    webhook.WithOnDelivery(func(r webhook.DeliveryResult) {
//	        slog.Info("delivered", "status", r.StatusCode, "duration", r.Duration)
//	    }),
//	)
//
// # Endpoint Configuration
//
// Config is loaded from the environment and assembles the endpoint URL from
// ENDPOINT_HOSTNAME, ENDPOINT_PATH and ENDPOINT_QUERY:
//
//	cfg := config.MustLoad[webhook.Config]()
//	url, err := cfg.URL()
//	sender := webhook.NewSenderFromConfig(cfg)
//
// # Request Signing
//
// When WithSignature is used, the package adds these headers:
//
//	X-Webhook-Signature: HMAC-SHA256 hex-encoded signature
//	X-Webhook-Timestamp: Unix timestamp when signature was created
//	X-Webhook-ID: delivery identifier, random unless WithDeliveryID is set
//
// The signature is calculated as: HMAC-SHA256(secret, timestamp + "." + payload)
//
// Receivers can verify signatures:
//
//	sig, err := webhook.ParseSignatureHeaders(r.Header)
//	err = webhook.VerifySignature(secret, body, sig, 5*time.Minute)
//
// # Response Handling
//
// Response bodies are read up to 64KB. Errors returned by Post mean no response
// was obtained and wrap ErrTimeout or ErrTemporaryFailure; URL problems wrap
// ErrInvalidURL.
package webhook
