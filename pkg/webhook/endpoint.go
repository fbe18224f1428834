package webhook

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds the delivery endpoint and client settings.
type Config struct {
	EndpointHostname string        `env:"ENDPOINT_HOSTNAME,required"`
	EndpointPath     string        `env:"ENDPOINT_PATH" envDefault:"/"`
	EndpointQuery    string        `env:"ENDPOINT_QUERY"`
	AuthUsername     string        `env:"DESTINATION_AUTH_USERNAME"`
	AuthPassword     string        `env:"DESTINATION_AUTH_PASSWORD"`
	Timeout          time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	SigningSecret    string        `env:"WEBHOOK_SIGNING_SECRET"`
}

// URL returns the endpoint URL built from the configured parts.
func (c Config) URL() (string, error) {
	return EndpointURL(c.EndpointHostname, c.EndpointPath, c.EndpointQuery)
}

// EndpointURL builds the delivery URL from a hostname, a path and a raw query.
// A hostname without scheme defaults to https. A leading "?" on query is ignored.
func EndpointURL(hostname, path, query string) (string, error) {
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return "", ErrEndpointNotSet
	}
	if !strings.Contains(hostname, "://") {
		hostname = "https://" + hostname
	}

	u, err := url.Parse(hostname)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		u.Path = strings.TrimSuffix(u.Path, "/") + path
	}
	if q := strings.TrimPrefix(query, "?"); q != "" {
		u.RawQuery = q
	}

	s := u.String()
	if err := validateURL(s); err != nil {
		return "", err
	}
	return s, nil
}
