// Package credential carries the caller's bearer token to the backends.
// Tokens are never validated here.
package credential

import (
	"net/http"
	"strings"
)

const (
	HeaderAuthorization = "Authorization"
	HeaderAuthToken     = "X-Auth-Token"

	bearerPrefix = "Bearer "
)

// Propagate returns the Authorization value to send upstream. A standard
// Authorization header wins and is passed through unchanged; otherwise an
// X-Auth-Token header is turned into a bearer credential. Repeated headers
// resolve to their last non-empty value.
func Propagate(h http.Header) (string, bool) {
	if v := last(h, HeaderAuthorization); v != "" {
		return v, true
	}
	if token := strings.TrimSpace(last(h, HeaderAuthToken)); token != "" {
		return bearerPrefix + token, true
	}
	return "", false
}

func last(h http.Header, key string) string {
	values := h.Values(key)
	for i := len(values) - 1; i >= 0; i-- {
		if strings.TrimSpace(values[i]) != "" {
			return values[i]
		}
	}
	return ""
}

// BearerToken extracts the token from an Authorization value.
func BearerToken(value string) (string, bool) {
	if len(value) < len(bearerPrefix) || !strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearerPrefix):])
	return token, token != ""
}
