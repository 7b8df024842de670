package decode

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/fetchkit/client/errs"
)

// maxErrBodySize caps the amount of a failure response read into a
// FailureError.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrUnexpectedStatus is wrapped by every FailureError.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrAuthFailure is joined with ErrUnexpectedStatus for 401 and 403
	// responses.
	ErrAuthFailure = errors.New("auth failure")

	ErrEmptyBody = errs.ErrEmptyBody
	ErrDecode    = errs.ErrDecode
)

// FailureError is returned for non-2xx responses. Message is taken from a
// JSON message, error or detail field when the body provides one and falls
// back to the status text.
type FailureError struct {
	StatusCode int
	Status     string
	Message    string
	Body       string
	Err        error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("%v: %d, %s", e.Err, e.StatusCode, e.Message)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}
