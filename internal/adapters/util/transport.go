package util

import (
	"log/slog"
	"net/http"
)

// APIKeyTransport is an http.RoundTripper that injects the server API key into
// every outbound request and logs request/response lines at debug level.
type APIKeyTransport struct {
	APIKey string
	Base   http.RoundTripper
	Log    *slog.Logger
}

func (t *APIKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// RoundTrippers must not mutate the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("X-Api-Key", t.APIKey)
	clone.Header.Set("Accept", "application/json")

	if t.Log != nil {
		t.Log.Debug("outbound request", "method", clone.Method, "url", clone.URL.String())
	}

	resp, err := base.RoundTrip(clone)
	if err != nil {
		return resp, err
	}

	if t.Log != nil {
		t.Log.Debug("outbound response", "status", resp.StatusCode, "url", clone.URL.String())
	}
	return resp, nil
}
