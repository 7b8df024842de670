// Package ndjson decodes delimiter-separated JSON response bodies.
package ndjson

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/fetchkit/client/errs"
	"github.com/adamwoolhether/fetchkit/client/hooks"
	"github.com/adamwoolhether/fetchkit/client/internal/codec"
	"github.com/adamwoolhether/fetchkit/client/stream"
)

// ContentType is the media type of a JSON value stream.
const ContentType = "application/stream+json"

// DefaultDelimiter separates values unless WithDelimiter says otherwise.
const DefaultDelimiter byte = 0

// Option configures Decode.
type Option func(*options)

type options struct {
	delim     byte
	useNumber bool
}

// WithDelimiter sets the byte separating values, e.g. '\n' for
// newline-delimited servers.
func WithDelimiter(b byte) Option {
	return func(o *options) {
		o.delim = b
	}
}

// WithUseNumber decodes numbers into json.Number.
func WithUseNumber() Option {
	return func(o *options) {
		o.useNumber = true
	}
}

// Decode returns a Stream of the JSON values in resp.Body. Segments are
// trimmed and empty ones skipped; an incomplete trailing segment is held
// until the next chunk, and parsed at EOF.
//
// OnData fires before each value is yielded, OnSuccess after the last one.
// Parse and read errors go to OnError when set and are yielded otherwise;
// either way iteration stops. The body is closed and OnEnd fires exactly
// once, last.
func Decode(resp *http.Response, h hooks.Hooks, opts ...Option) (*stream.Stream[any], error) {
	if resp == nil || resp.Body == nil {
		return nil, fmt.Errorf("decoding json stream: %w", errs.ErrEmptyBody)
	}

	o := options{delim: DefaultDelimiter}
	for _, opt := range opts {
		opt(&o)
	}
	api := codec.API(o.useNumber)

	release := stream.OnceCloser(func() error {
		defer h.End(resp)
		return resp.Body.Close()
	})

	seq := func(yield func(any, error) bool) {
		defer release.Close()

		fail := func(err error) {
			if !h.Error(err) {
				yield(nil, err)
			}
		}

		// emit parses one segment. It reports false when iteration must stop.
		emit := func(segment []byte) bool {
			segment = bytes.TrimSpace(segment)
			if len(segment) == 0 {
				return true
			}

			var v any
			if err := api.Unmarshal(segment, &v); err != nil {
				fail(fmt.Errorf("%w: json stream segment: %w", errs.ErrDecode, err))
				return false
			}

			h.Data(v)
			return yield(v, nil)
		}

		var pending []byte
		for chunk, err := range stream.Chunks(resp.Body) {
			if err != nil {
				fail(fmt.Errorf("reading json stream: %w", err))
				return
			}

			pending = append(pending, chunk...)
			for {
				i := bytes.IndexByte(pending, o.delim)
				if i < 0 {
					break
				}
				segment := pending[:i]
				pending = pending[i+1:]
				if !emit(segment) {
					return
				}
			}
		}

		if !emit(pending) {
			return
		}

		h.Success(resp)
	}

	return stream.New(seq, release), nil
}
