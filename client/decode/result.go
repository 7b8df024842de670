package decode

import (
	"fmt"
	"io"
	"net/http"

	"github.com/adamwoolhether/fetchkit/client/decode/sse"
	"github.com/adamwoolhether/fetchkit/client/internal/codec"
	"github.com/adamwoolhether/fetchkit/client/stream"
)

// Kind identifies which field of a Result carries the payload.
type Kind int

const (
	// KindNone is a no-content response.
	KindNone Kind = iota
	// KindText sets Text.
	KindText
	// KindJSON sets Value, with the raw document in Text.
	KindJSON
	// KindNDJSON sets Values.
	KindNDJSON
	// KindEvents sets Events.
	KindEvents
	// KindRaw sets Body, which the caller must close.
	KindRaw
)

var kindNames = map[Kind]string{
	KindNone:   "none",
	KindText:   "text",
	KindJSON:   "json",
	KindNDJSON: "ndjson",
	KindEvents: "events",
	KindRaw:    "raw",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Result is the decoded form of a successful response. When OnError
// handled a decode error the Result has its Kind set and no payload.
type Result struct {
	Kind     Kind
	Response *http.Response

	Text   string
	Value  any
	Values *stream.Stream[any]
	Events *stream.Stream[sse.Event]
	Body   io.ReadCloser

	useNumber bool
}

// Decode unmarshals a JSON result into dst.
func (r *Result) Decode(dst any) error {
	if r.Kind != KindJSON {
		return fmt.Errorf("decoding %s result: %w", r.Kind, ErrDecode)
	}
	if err := codec.API(r.useNumber).UnmarshalFromString(r.Text, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

// Close releases an unconsumed stream or raw body.
func (r *Result) Close() error {
	switch {
	case r.Values != nil:
		return r.Values.Close()
	case r.Events != nil:
		return r.Events.Close()
	case r.Body != nil:
		return r.Body.Close()
	}
	return nil
}
