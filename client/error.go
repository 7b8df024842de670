package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/fetchkit/client/decode"
)

// execFn represents a func to operate on a decoded response.
type execFn func(res *decode.Result) error

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrUnexpectedKind is returned when a response decodes to a different
	// [decode.Kind] than the operation needs.
	ErrUnexpectedKind = errors.New("unexpected response kind")
)

// UnexpectedStatusError is returned when a successful response does not
// carry the status code set with [WithExpectedStatus]. Non-2xx responses
// are reported as a [*decode.FailureError] instead.
type UnexpectedStatusError struct {
	StatusCode int
	Expected   int
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, expected %d (%s)", e.Err, e.StatusCode, e.Expected, http.StatusText(e.Expected))
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
