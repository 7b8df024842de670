// Package fetchkit exposes the client builder.
package fetchkit

import (
	"github.com/adamwoolhether/fetchkit/client"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, a fresh http.Client over a clone of http.DefaultTransport is used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
