package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// authorizationKey matches header names that must never reach the logs.
var authorizationKey = regexp.MustCompile(`(?i)authorization`)

// DecodeHeaders parses the stored JSON header map. Empty input yields an empty map.
func DecodeHeaders(raw []byte) (map[string]any, error) {
	headers := make(map[string]any)
	if len(strings.TrimSpace(string(raw))) == 0 {
		return headers, nil
	}
	if err := json.Unmarshal(raw, &headers); err != nil {
		return nil, fmt.Errorf("failed to decode message headers: %w", err)
	}
	return headers, nil
}

// RedactAuthorization returns a copy of m without any key matching "authorization"
// (case-insensitive). Nested maps are redacted recursively; other values are copied as is.
func RedactAuthorization(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if authorizationKey.MatchString(k) {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = RedactAuthorization(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// RedactHTTPHeader converts an http.Header into a redacted map suitable for logging.
func RedactHTTPHeader(h http.Header) map[string]any {
	m := make(map[string]any, len(h))
	for k, v := range h {
		if len(v) == 1 {
			m[k] = v[0]
			continue
		}
		m[k] = strings.Join(v, ", ")
	}
	return RedactAuthorization(m)
}

// OutboundHeaders converts stored headers into request headers.
// The inbound Host header is dropped so the request carries the endpoint's own host.
func OutboundHeaders(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if strings.EqualFold(k, "Host") {
			continue
		}
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case map[string]any, []any:
			b, err := json.Marshal(val)
			if err != nil {
				continue
			}
			out[k] = string(b)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
