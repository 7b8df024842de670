package assemble

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/adamwoolhether/fetchkit/client/errs"
	"github.com/adamwoolhether/fetchkit/client/route"
)

// Init holds the transport-facing parts of a request. Headers stays nil
// until a stage sets at least one header.
type Init struct {
	Method  route.Method
	Headers *Header
	Body    any
}

// Context is the request under assembly. It is owned by a single
// Assemble call and never shared.
type Context struct {
	URL  *url.URL
	Init Init

	route route.Descriptor
	opts  Options

	data     any
	promoted []pair
	explicit []pair
	token    *pair
}

// NewContext resolves routeStr against opts and returns a Context with no
// stage applied yet.
func NewContext(routeStr string, opts Options) (*Context, error) {
	if err := errs.Validate(opts); err != nil {
		return nil, fmt.Errorf("validating options: %w", err)
	}

	d, err := route.Resolve(routeStr, opts.Method, opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("resolving route: %w", err)
	}

	c := Context{
		Init:  Init{Method: d.Method},
		route: d,
		opts:  opts,
		data:  cloneData(opts.Data),
	}

	return &c, nil
}

// Assemble runs every stage on a fresh Context.
func Assemble(routeStr string, opts Options) (*Context, error) {
	c, err := NewContext(routeStr, opts)
	if err != nil {
		return nil, err
	}

	stages := []struct {
		name string
		fn   func() error
	}{
		{"url", c.ResolveURL},
		{"path", c.ResolvePath},
		{"query", c.ResolveQuery},
		{"body", c.ResolveBody},
		{"headers", c.ResolveHeaders},
		{"token", c.ResolveToken},
	}

	for _, s := range stages {
		if err := s.fn(); err != nil {
			return nil, fmt.Errorf("resolving %s: %w", s.name, err)
		}
	}

	return c, nil
}

// Route returns the resolved descriptor.
func (c *Context) Route() route.Descriptor {
	return c.route
}

// Data returns what is left of the data payload after earlier stages
// consumed path parameters and query entries.
func (c *Context) Data() any {
	return c.data
}

// Request builds an *http.Request from the assembled context.
func (c *Context) Request(ctx context.Context) (*http.Request, error) {
	if c.URL == nil {
		return nil, errors.New("building request: url not resolved")
	}

	body, err := bodyReader(c.Init.Body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, c.Init.Method.HTTP(), c.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	if c.Init.Headers != nil {
		for _, k := range c.Init.Headers.Keys() {
			v, _ := c.Init.Headers.Get(k)
			req.Header.Set(k, v)
		}
	}

	return req, nil
}

// setHeader writes through to Init.Headers, creating it on first use.
func (c *Context) setHeader(key, value string) {
	if c.Init.Headers == nil {
		c.Init.Headers = NewHeader()
	}
	c.Init.Headers.Set(key, value)
}

func bodyReader(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return strings.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported body type %T", body)
	}
}

// cloneData copies map payloads so consumed keys are removed from the
// Context's view only.
func cloneData(data any) any {
	switch d := data.(type) {
	case map[string]any:
		if d == nil {
			return nil
		}
		return maps.Clone(d)
	case map[string]string:
		if d == nil {
			return nil
		}
		m := make(map[string]any, len(d))
		for k, v := range d {
			m[k] = v
		}
		return m
	default:
		return data
	}
}
