// Package transport provides [http.RoundTripper] middleware used by the
// client to invoke assembled requests.
//
// Middleware compose with [Chain]. Chain(base, a, b) returns a(b(base)), so
// the first middleware sees the request first:
//
//	rt := transport.Chain(http.DefaultTransport,
//		transport.Tracing(nil, nil),
//		transport.RequestID(),
//		transport.UserAgent("fetchkit/1.0"),
//	)
//
// Every middleware is safe for concurrent use and clones a request before
// changing its headers.
package transport
