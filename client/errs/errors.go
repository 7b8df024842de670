// Package errs defines the error taxonomy shared by the route parser, the
// request assembler, the response decoders and the client.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every error raised while resolving a
// route or assembling a request from invalid input.
var ErrConfiguration = errors.New("configuration error")

var (
	ErrMissingBaseURL       = errors.New("missing base url")
	ErrInvalidMethod        = errors.New("invalid method")
	ErrInvalidProtocol      = errors.New("invalid protocol")
	ErrMissingPath          = errors.New("missing path")
	ErrMissingTokenProperty = errors.New("missing token property")
	ErrInvalidTokenLocation = errors.New("invalid token location")
	ErrInvalidArrayFormat   = errors.New("invalid array format")
)

var (
	// ErrEmptyBody is returned when a decoder that needs a body is handed
	// a response without one.
	ErrEmptyBody = errors.New("empty response body")
	// ErrDecode wraps malformed JSON in single-document and streamed bodies.
	ErrDecode = errors.New("decoding response")
)

// ConfigError reports which input was invalid and why.
type ConfigError struct {
	Field string
	Err   error
}

// NewConfigError constructs a *ConfigError for field.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %v", ErrConfiguration, e.Err)
	}

	return fmt.Sprintf("%v: %s: %v", ErrConfiguration, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports ErrConfiguration as a match in addition to the wrapped error.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// IsConfigError checks if err carries a configuration failure.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// /////////////////////////////////////////////////////////////////////////////////////////////

// FieldError is used to indicate an error with a specific option field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// NewFieldsError creates a fields error.
func NewFieldsError(field string, err error) error {
	return FieldErrors{
		{
			Field: field,
			Err:   err.Error(),
		},
	}
}

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// Is lets validation failures match ErrConfiguration.
func (fe FieldErrors) Is(target error) bool {
	return target == ErrConfiguration
}

// Fields returns the fields that failed validation
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string)
	for _, fld := range fe {
		m[fld.Field] = fld.Err
	}
	return m
}

// GetFieldErrors returns the FieldErrors in err's chain, if any.
func GetFieldErrors(err error) FieldErrors {
	var fe FieldErrors
	if !errors.As(err, &fe) {
		return nil
	}
	return fe
}
