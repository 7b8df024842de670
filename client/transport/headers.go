package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is set by RequestID.
const RequestIDHeader = "X-Request-Id"

// UserAgent sets a persistent User-Agent header on every request.
func UserAgent(value string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			cpy := r.Clone(r.Context())
			cpy.Header.Set("User-Agent", value)
			return next.RoundTrip(cpy)
		})
	}
}

// RequestID sets an X-Request-Id header holding a random UUID unless the
// request already carries one.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(r)
			}
			cpy := r.Clone(r.Context())
			cpy.Header.Set(RequestIDHeader, uuid.NewString())
			return next.RoundTrip(cpy)
		})
	}
}
