// Package utils provides common utility functions.
package utils

import (
	"net/http"
	"net/url"
	"strings"
)

// DefaultUserAgent is a desktop browser UA; the archive rejects obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent string
}

// NewHTTPHelper creates a new HTTP helper. An empty userAgent uses DefaultUserAgent.
func NewHTTPHelper(userAgent string) *HTTPHelper {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPHelper{userAgent: userAgent}
}

// IsValidURL reports whether raw is an absolute http or https URL with a host.
func (h *HTTPHelper) IsValidURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BuildHeaders creates browser-like request headers plus any custom ones.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.9")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}

// HeaderMap flattens headers to the first value per key.
func HeaderMap(headers http.Header) map[string]string {
	m := make(map[string]string, len(headers))
	for key := range headers {
		m[key] = headers.Get(key)
	}

	return m
}
