package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RetryConfig bounds transport-level retries. Zero waits keep the
// retryablehttp defaults.
type RetryConfig struct {
	Max     int
	WaitMin time.Duration
	WaitMax time.Duration
}

// Retry retries connection errors and retryable status codes (429 and 5xx
// other than 501) with exponential backoff. When retries are exhausted the
// last response is returned so it can be dispatched like any other. A nil
// logger disables retry logs.
//
// Request bodies are buffered in memory so they can be replayed.
func Retry(cfg RetryConfig, logger *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		rc := retryablehttp.NewClient()
		rc.HTTPClient = &http.Client{
			Transport: next,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		rc.RetryMax = cfg.Max
		if cfg.WaitMin > 0 {
			rc.RetryWaitMin = cfg.WaitMin
		}
		if cfg.WaitMax > 0 {
			rc.RetryWaitMax = cfg.WaitMax
		}
		rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

		rc.Logger = nil
		if logger != nil {
			rc.Logger = logger
		}

		return &retryablehttp.RoundTripper{Client: rc}
	}
}
