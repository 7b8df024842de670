package client

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/fetchkit/client/assemble"
	"github.com/adamwoolhether/fetchkit/client/decode"
	"github.com/adamwoolhether/fetchkit/client/download"
	"github.com/adamwoolhether/fetchkit/client/hooks"
	"github.com/adamwoolhether/fetchkit/client/route"
	"github.com/adamwoolhether/fetchkit/client/transport"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *transport.ThrottleConfig
	retry             *transport.RetryConfig
	noFollowRedirects bool
	logger            *slog.Logger
	dialer            *websocket.Dialer

	tracing    bool
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	requestID  bool
	metricsReg prometheus.Registerer
	metricsNS  string
	metrics    bool
	middleware []transport.Middleware

	defaults assemble.Options
	hooks    hooks.Hooks
}

// WithClient replaces the default [http.Client] used by the [Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, transport.ErrMustNotBeZero)
		}
		c.throttle = &transport.ThrottleConfig{RPS: rps, Burst: burst}
		return nil
	}
}

// WithRetry retries failed round trips. Retries happen below the decode
// pipeline, so hooks observe only the final response.
func WithRetry(cfg transport.RetryConfig) Option {
	return func(c *options) error {
		if cfg.Max < 0 {
			return errors.New("retry max must not be negative")
		}
		if cfg.WaitMax > 0 && cfg.WaitMin > cfg.WaitMax {
			return errors.New("retry wait min must not exceed wait max")
		}
		c.retry = &cfg
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracing wraps every request in a client span. Nil arguments fall back
// to a no-op tracer and the global propagator.
func WithTracing(tracer trace.Tracer, propagator propagation.TextMapPropagator) Option {
	return func(c *options) error {
		c.tracing = true
		c.tracer = tracer
		c.propagator = propagator
		return nil
	}
}

// WithRequestID sets a random X-Request-Id on requests that lack one.
func WithRequestID() Option {
	return func(c *options) error {
		c.requestID = true
		return nil
	}
}

// WithMetrics records request counts, latency and in-flight requests in reg
// under namespace. A nil reg uses the default registerer.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(c *options) error {
		c.metrics = true
		c.metricsReg = reg
		c.metricsNS = namespace
		return nil
	}
}

// WithMiddleware appends custom transport middleware. They run inside the
// built-in tracing and metrics middleware and outside retries.
func WithMiddleware(mws ...transport.Middleware) Option {
	return func(c *options) error {
		c.middleware = append(c.middleware, mws...)
		return nil
	}
}

// WithDialer sets the WebSocket dialer used by [Client.Connect].
func WithDialer(d *websocket.Dialer) Option {
	return func(c *options) error {
		if d == nil {
			return errors.New("dialer must not be nil")
		}
		c.dialer = d
		return nil
	}
}

// WithBaseURL sets the base URL used by routes without one.
func WithBaseURL(baseURL string) Option {
	return func(c *options) error {
		if baseURL == "" {
			return errors.New("base url must not be empty")
		}
		c.defaults.BaseURL = baseURL
		return nil
	}
}

// WithToken places token on every request. location defaults to header,
// where an empty property means "Authorization: Bearer <token>".
func WithToken(token string, location assemble.TokenLocation, property string) Option {
	return func(c *options) error {
		c.defaults.Token = token
		c.defaults.TokenLocation = location
		c.defaults.TokenProperty = property
		return nil
	}
}

// WithDefaultHeaders sets headers sent with every request. Per-request
// headers override them regardless of case.
func WithDefaultHeaders(headers map[string]any) Option {
	return func(c *options) error {
		c.defaults.Headers = mergeHeaders(c.defaults.Headers, headers)
		return nil
	}
}

// WithArrayFormat sets the default query array format.
func WithArrayFormat(format assemble.ArrayFormat) Option {
	return func(c *options) error {
		c.defaults.ArrayFormat = format
		return nil
	}
}

// WithDefaultHooks sets hooks that run before the per-request hooks of
// every [Client.Fetch].
func WithDefaultHooks(h hooks.Hooks) Option {
	return func(c *options) error {
		c.hooks = c.hooks.Merge(h)
		return nil
	}
}

// WithEnv applies settings read by [LoadEnv]. Options given after WithEnv
// take precedence.
func WithEnv(prefix string) Option {
	return func(c *options) error {
		cfg, err := LoadEnv(prefix)
		if err != nil {
			return err
		}

		if cfg.BaseURL != "" {
			c.defaults.BaseURL = cfg.BaseURL
		}
		if cfg.Token != "" {
			c.defaults.Token = cfg.Token
			c.defaults.TokenLocation = assemble.TokenLocation(cfg.TokenLocation)
			c.defaults.TokenProperty = cfg.TokenProperty
		}
		if cfg.Timeout > 0 {
			c.timeout = &cfg.Timeout
		}
		if cfg.UserAgent != "" {
			c.userAgent = cfg.UserAgent
		}
		if cfg.ThrottleRPS > 0 {
			burst := cfg.ThrottleBurst
			if burst == 0 {
				burst = cfg.ThrottleRPS
			}
			c.throttle = &transport.ThrottleConfig{RPS: cfg.ThrottleRPS, Burst: burst}
		}
		if cfg.RetryMax > 0 {
			c.retry = &transport.RetryConfig{Max: cfg.RetryMax}
		}
		if cfg.ArrayFormat != "" {
			c.defaults.ArrayFormat = assemble.ArrayFormat(cfg.ArrayFormat)
		}

		return nil
	}
}

// Request options.

// RequestOption is a functional option for [Client.Request], [Client.Fetch]
// and [Client.Connect].
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	assemble  assemble.Options
	cookies   []*http.Cookie
	hooks     hooks.Hooks
	decode    []decode.Option
	protocol  route.Protocol
	hasToken  bool
	hasFormat bool
}

// WithMethod overrides the method parsed from the route.
func WithMethod(method string) RequestOption {
	return func(opts *requestOpts) error {
		m, err := route.ParseMethod(method)
		if err != nil {
			return err
		}
		opts.assemble.Method = m
		return nil
	}
}

// WithRequestBaseURL overrides the client base URL for one request.
func WithRequestBaseURL(baseURL string) RequestOption {
	return func(opts *requestOpts) error {
		opts.assemble.BaseURL = baseURL
		return nil
	}
}

// WithParameters sets path parameter values for :name and {name} placeholders.
func WithParameters(params map[string]any) RequestOption {
	return func(opts *requestOpts) error {
		opts.assemble.Parameters = params
		return nil
	}
}

// WithData sets the catch-all payload. It fills missing path parameters,
// becomes the query string for methods without a body and the body otherwise.
func WithData(data any) RequestOption {
	return func(opts *requestOpts) error {
		opts.assemble.Data = data
		return nil
	}
}

// WithQuery sets explicit query parameters.
func WithQuery(query map[string]any) RequestOption {
	return func(opts *requestOpts) error {
		opts.assemble.Query = query
		return nil
	}
}

// WithBody sets a body that is sent verbatim: a string, []byte or io.Reader.
func WithBody(body any) RequestOption {
	return func(opts *requestOpts) error {
		if body == nil {
			return errors.New("body must not be nil")
		}
		opts.assemble.Body = body
		return nil
	}
}

// WithPayload sets a value to be JSON-encoded as the request body.
func WithPayload(payload any) RequestOption {
	return WithData(payload)
}

// WithHeaders adds custom headers to the outgoing request. String and
// numeric values are accepted; nil values are skipped.
func WithHeaders(headers map[string]any) RequestOption {
	return func(opts *requestOpts) error {
		opts.assemble.Headers = mergeHeaders(opts.assemble.Headers, headers)
		return nil
	}
}

// WithContentType overrides the inferred Content-Type header.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}
		opts.assemble.Headers = mergeHeaders(opts.assemble.Headers, map[string]any{"Content-Type": contentType})
		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(opts *requestOpts) error {
		opts.cookies = append(opts.cookies, cookies...)
		return nil
	}
}

// WithRequestToken overrides the client token for one request. An empty
// token disables token placement.
func WithRequestToken(token string, location assemble.TokenLocation, property string) RequestOption {
	return func(opts *requestOpts) error {
		opts.assemble.Token = token
		opts.assemble.TokenLocation = location
		opts.assemble.TokenProperty = property
		opts.hasToken = true
		return nil
	}
}

// WithQueryFormat overrides the client array format for one request.
func WithQueryFormat(format assemble.ArrayFormat) RequestOption {
	return func(opts *requestOpts) error {
		opts.assemble.ArrayFormat = format
		opts.hasFormat = true
		return nil
	}
}

// WithHooks sets the decode hooks for one request.
func WithHooks(h hooks.Hooks) RequestOption {
	return func(opts *requestOpts) error {
		opts.hooks = opts.hooks.Merge(h)
		return nil
	}
}

// WithDecodeOptions passes options to [decode.Dispatch].
func WithDecodeOptions(dopts ...decode.Option) RequestOption {
	return func(opts *requestOpts) error {
		opts.decode = append(opts.decode, dopts...)
		return nil
	}
}

// WithProtocol overrides the protocol of a connection descriptor.
func WithProtocol(protocol route.Protocol) RequestOption {
	return func(opts *requestOpts) error {
		opts.protocol = protocol
		return nil
	}
}

// mergeHeaders copies base and applies over on top, replacing keys that
// differ only by case.
func mergeHeaders(base, over map[string]any) map[string]any {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}

	merged := maps.Clone(base)
	if merged == nil {
		merged = make(map[string]any, len(over))
	}

	for k, v := range over {
		for existing := range merged {
			if strings.EqualFold(existing, k) {
				delete(merged, existing)
			}
		}
		merged[k] = v
	}

	return merged
}

// Do options.

// DoOption is a functional option for [Client.Do].
type DoOption func(options *doOpts) error

type doOpts struct {
	responseBody any
	useJSONNum   bool
	expCode      int
	hooks        hooks.Hooks
}

// WithDestination decodes a JSON response body into bodyTemplate.
// bodyTemplate must be a pointer.
func WithDestination[T any](bodyTemplate *T) DoOption {
	return func(opts *doOpts) error {
		if bodyTemplate == nil {
			return errors.New("destination must not be nil")
		}
		opts.responseBody = bodyTemplate

		return nil
	}
}

// WithJSONNumb decodes numbers as [encoding/json.Number] instead of
// float64, preserving precision.
func WithJSONNumb() DoOption {
	return func(opts *doOpts) error {
		opts.useJSONNum = true

		return nil
	}
}

// WithExpectedStatus requires the response to carry code.
func WithExpectedStatus(code int) DoOption {
	return func(opts *doOpts) error {
		if code < 100 || code > 999 {
			return fmt.Errorf("invalid status code %d", code)
		}
		opts.expCode = code

		return nil
	}
}

// WithDoHooks sets the decode hooks for [Client.Do].
func WithDoHooks(h hooks.Hooks) DoOption {
	return func(opts *doOpts) error {
		opts.hooks = opts.hooks.Merge(h)

		return nil
	}
}

// Download options.

// DownloadOption configures [Client.Download].
type DownloadOption = download.Option

// DownloadError wraps a download sentinel error with additional detail.
type DownloadError = download.Error

var (
	// ErrContentLengthMismatch indicates the byte count did not match Content-Length.
	ErrContentLengthMismatch = download.ErrContentLengthMismatch
	// ErrChecksumMismatch indicates the file checksum did not match the expected value.
	ErrChecksumMismatch = download.ErrChecksumMismatch
	// ErrDownloadCancelled indicates the download was cancelled via context.
	ErrDownloadCancelled = download.ErrDownloadCancelled
)
