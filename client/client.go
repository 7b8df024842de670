package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/adamwoolhether/fetchkit/client/assemble"
	"github.com/adamwoolhether/fetchkit/client/channel"
	"github.com/adamwoolhether/fetchkit/client/decode"
	"github.com/adamwoolhether/fetchkit/client/download"
	"github.com/adamwoolhether/fetchkit/client/hooks"
	"github.com/adamwoolhether/fetchkit/client/route"
	"github.com/adamwoolhether/fetchkit/client/transport"
)

// maxDiscardSize bounds how much of an unread body is drained before close.
const maxDiscardSize = 64 << 10

// Client wraps an *http.Client with request defaults and the decode
// pipeline. A fresh *http.Client is created unless [WithClient] supplies one.
type Client struct {
	c        *http.Client
	logger   *slog.Logger
	dialer   *websocket.Dialer
	metrics  *transport.Metrics
	defaults assemble.Options
	hooks    hooks.Hooks
}

func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		c:      &http.Client{},
		logger: slog.Default(),
		dialer: websocket.DefaultDialer,
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.dialer != nil {
		client.dialer = opts.dialer
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var base http.RoundTripper
	switch {
	case opts.rt != nil:
		base = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		base = opts.client.Transport
	}

	// Outermost first: tracing and metrics see one round trip per call,
	// throttling applies to every retry attempt.
	var mws []transport.Middleware
	if opts.tracing {
		mws = append(mws, transport.Tracing(opts.tracer, opts.propagator))
	}
	if opts.metrics {
		m, err := transport.NewMetrics(opts.metricsReg, opts.metricsNS)
		if err != nil {
			return nil, fmt.Errorf("configuring metrics: %w", err)
		}
		client.metrics = m
		mws = append(mws, m.Middleware())
	}
	if opts.requestID {
		mws = append(mws, transport.RequestID())
	}
	mws = append(mws, opts.middleware...)
	if opts.userAgent != "" {
		mws = append(mws, transport.UserAgent(opts.userAgent))
	}
	if opts.retry != nil {
		mws = append(mws, transport.Retry(*opts.retry, client.logger))
	}
	if opts.throttle != nil {
		mw, err := transport.Throttle(*opts.throttle, func() *slog.Logger { return client.logger })
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		mws = append(mws, mw)
	}
	client.c.Transport = transport.Chain(base, mws...)

	client.defaults = opts.defaults
	client.hooks = opts.hooks

	return client, nil
}

// HTTPClient returns the underlying *http.Client.
func (c *Client) HTTPClient() *http.Client {
	return c.c
}

// Metrics returns the collectors installed by [WithMetrics], or nil.
func (c *Client) Metrics() *transport.Metrics {
	return c.metrics
}

// Request assembles an *http.Request from a route descriptor such as
// "POST /users/:id" and the client defaults.
func (c *Client) Request(ctx context.Context, routeStr string, opts ...RequestOption) (*http.Request, error) {
	settings, err := c.requestSettings(opts)
	if err != nil {
		return nil, err
	}

	rc, err := assemble.Assemble(routeStr, settings.assemble)
	if err != nil {
		return nil, fmt.Errorf("assembling request: %w", err)
	}

	return rc.Request(ctx)
}

// Fetch assembles, sends and decodes a request. Streaming results must be
// iterated or closed, and raw results must have their Body closed.
//
// A transport failure fires OnEnd with a nil response.
func (c *Client) Fetch(ctx context.Context, routeStr string, opts ...RequestOption) (*decode.Result, error) {
	settings, err := c.requestSettings(opts)
	if err != nil {
		return nil, err
	}

	rc, err := assemble.Assemble(routeStr, settings.assemble)
	if err != nil {
		return nil, fmt.Errorf("assembling request: %w", err)
	}

	req, err := rc.Request(ctx)
	if err != nil {
		return nil, err
	}

	return c.send(req, c.hooks.Merge(settings.hooks), settings.decode...)
}

// Do will fire the request and decode the response, writing a JSON body
// to the destination set with [WithDestination] if any.
func (c *Client) Do(req *http.Request, opts ...DoOption) error {
	var settings doOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return err
		}
	}

	var dopts []decode.Option
	if settings.useJSONNum {
		dopts = append(dopts, decode.WithUseNumber())
	}

	doFunc := func(res *decode.Result) error {
		if err := checkStatus(res, settings.expCode); err != nil {
			return err
		}

		if settings.responseBody != nil {
			if res.Kind != decode.KindJSON {
				return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedKind, res.Kind, decode.KindJSON)
			}
			if err := res.Decode(settings.responseBody); err != nil {
				return fmt.Errorf("decoding body: %w", err)
			}
		}

		return nil
	}

	return c.exec(req, c.hooks.Merge(settings.hooks), dopts, doFunc)
}

// Download executes a request that's intended to stream the response body to destPath.
// Data streams to a temp file in the same directory, then the temp file is renamed to
// destPath on success or cleared on failure.
func (c *Client) Download(req *http.Request, destPath string, opts ...DownloadOption) error {
	if destPath == "" {
		return errors.New("destPath must not be empty")
	}

	dlFunc := func(res *decode.Result) error {
		if res.Body == nil {
			return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedKind, res.Kind, decode.KindRaw)
		}

		if err := download.Handle(req.Context(), res.Body, res.Response.ContentLength, destPath, c.logger, opts...); err != nil {
			return fmt.Errorf("download: %w", err)
		}

		return nil
	}

	return c.exec(req, c.hooks, []decode.Option{decode.WithRaw()}, dlFunc)
}

// Connect opens a WebSocket channel described by routeStr, for example
// "WS /chat" or "wss://stream.example.com/feed". Parameters, query,
// headers, cookies and the token are applied to the handshake.
func (c *Client) Connect(ctx context.Context, routeStr string, opts ...RequestOption) (*channel.Channel, error) {
	settings, err := c.requestSettings(opts)
	if err != nil {
		return nil, err
	}

	conn, err := route.ParseConnection(routeStr, settings.protocol, settings.assemble.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing connection: %w", err)
	}

	ch, err := channel.Dial(ctx, c.dialer, conn, settings.assemble)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}

	return ch, nil
}

// requestSettings applies opts over the client defaults.
func (c *Client) requestSettings(opts []RequestOption) (requestOpts, error) {
	var settings requestOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return requestOpts{}, fmt.Errorf("applying request option: %w", err)
		}
	}

	merged := settings.assemble
	if merged.BaseURL == "" {
		merged.BaseURL = c.defaults.BaseURL
	}
	if !settings.hasToken {
		merged.Token = c.defaults.Token
		merged.TokenLocation = c.defaults.TokenLocation
		merged.TokenProperty = c.defaults.TokenProperty
	}
	if !settings.hasFormat {
		merged.ArrayFormat = c.defaults.ArrayFormat
	}
	merged.Headers = mergeHeaders(c.defaults.Headers, settings.assemble.Headers)

	if len(settings.cookies) > 0 {
		pairs := make([]string, 0, len(settings.cookies))
		for _, ck := range settings.cookies {
			pairs = append(pairs, ck.String())
		}
		merged.Headers = mergeHeaders(merged.Headers, map[string]any{"Cookie": strings.Join(pairs, "; ")})
	}

	settings.assemble = merged

	return settings, nil
}

// send performs the round trip and hands the response to the decode pipeline.
func (c *Client) send(req *http.Request, h hooks.Hooks, opts ...decode.Option) (*decode.Result, error) {
	resp, err := c.c.Do(req)
	if err != nil {
		h.End(nil)
		return nil, fmt.Errorf("exec http do: %w", err)
	}

	return decode.Dispatch(resp, h, opts...)
}

// exec runs the request and injected function on the decoded result.
func (c *Client) exec(req *http.Request, h hooks.Hooks, opts []decode.Option, fn execFn) error {
	res, err := c.send(req, h, opts...)
	if err != nil {
		return err
	}

	discardBody := true
	defer func() {
		if discardBody && res.Body != nil {
			if _, err := io.Copy(io.Discard, io.LimitReader(res.Body, maxDiscardSize)); err != nil {
				c.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err := res.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if err := fn(res); err != nil {
		discardBody = false
		return fmt.Errorf("exec fn: %w", err)
	}

	return nil
}

func checkStatus(res *decode.Result, expCode int) error {
	if expCode == 0 || res.Response == nil || res.Response.StatusCode == expCode {
		return nil
	}

	return &UnexpectedStatusError{
		StatusCode: res.Response.StatusCode,
		Expected:   expCode,
		Err:        ErrUnexpectedStatusCode,
	}
}
