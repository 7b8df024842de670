// Package decode turns an *http.Response into application data, choosing
// a decoder from the status code and the declared Content-Type.
//
// The dispatch order is:
//
//  1. non-2xx status: OnFailure, OnEnd, then a *FailureError
//  2. 204 or 205: OnSuccess, OnEnd, KindNone
//  3. application/stream+json: the ndjson decoder
//  4. text/event-stream: the sse decoder
//  5. text/*: the body as text
//  6. application/json: the body parsed as JSON
//  7. anything else: the raw body, unread
//
// The stream markers are matched before the text/ prefix so that event
// streams are never read to completion as text.
package decode

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/adamwoolhether/fetchkit/client/decode/ndjson"
	"github.com/adamwoolhether/fetchkit/client/decode/sse"
	"github.com/adamwoolhether/fetchkit/client/hooks"
	"github.com/adamwoolhether/fetchkit/client/internal/codec"
)

const contentTypeJSON = "application/json"

// Option configures Dispatch.
type Option func(*options)

type options struct {
	useNumber bool
	ndjson    []ndjson.Option
	raw       bool
}

// WithUseNumber decodes JSON numbers into json.Number.
func WithUseNumber() Option {
	return func(o *options) {
		o.useNumber = true
		o.ndjson = append(o.ndjson, ndjson.WithUseNumber())
	}
}

// WithDelimiter sets the separator used for JSON value streams.
func WithDelimiter(b byte) Option {
	return func(o *options) {
		o.ndjson = append(o.ndjson, ndjson.WithDelimiter(b))
	}
}

// WithRaw skips content-type dispatch and returns every successful body
// unread.
func WithRaw() Option {
	return func(o *options) {
		o.raw = true
	}
}

// Dispatch decodes resp according to its status and Content-Type. A
// supported Content-Encoding is removed before anything is read.
//
// Decode errors, including a missing body, are passed to OnError when set
// and returned otherwise. OnEnd fires exactly once per call: before Dispatch
// returns for eager paths, and when the stream is drained, abandoned or
// closed for the streaming paths.
func Dispatch(resp *http.Response, h hooks.Hooks, opts ...Option) (*Result, error) {
	if resp == nil {
		return nil, fmt.Errorf("dispatching response: %w", ErrEmptyBody)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	uncompress(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ferr := newFailure(resp)
		h.Failure(resp)
		closeBody(resp)
		h.End(resp)
		return nil, ferr
	}

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		h.Success(resp)
		closeBody(resp)
		h.End(resp)
		return &Result{Kind: KindNone, Response: resp}, nil
	}

	mediaType, params := mediaType(resp.Header.Get("Content-Type"))

	switch {
	case o.raw:
		return raw(resp, h), nil

	case mediaType == ndjson.ContentType:
		s, err := ndjson.Decode(resp, h, o.ndjson...)
		if err != nil {
			return fail(resp, h, KindNDJSON, err)
		}
		return &Result{Kind: KindNDJSON, Response: resp, Values: s}, nil

	case mediaType == sse.ContentType:
		s, err := sse.Decode(resp, h)
		if err != nil {
			return fail(resp, h, KindEvents, err)
		}
		return &Result{Kind: KindEvents, Response: resp, Events: s}, nil

	case strings.HasPrefix(mediaType, "text/"):
		text, err := readText(resp, params["charset"])
		if err != nil {
			return fail(resp, h, KindText, err)
		}
		return succeed(resp, h, &Result{Kind: KindText, Response: resp, Text: text}, text), nil

	case mediaType == contentTypeJSON:
		text, err := readText(resp, "")
		if err != nil {
			return fail(resp, h, KindJSON, err)
		}

		var v any
		if err := codec.API(o.useNumber).UnmarshalFromString(text, &v); err != nil {
			return fail(resp, h, KindJSON, fmt.Errorf("%w: %w", ErrDecode, err))
		}

		res := Result{Kind: KindJSON, Response: resp, Text: text, Value: v, useNumber: o.useNumber}
		return succeed(resp, h, &res, v), nil

	default:
		return raw(resp, h), nil
	}
}

// MediaType returns the lower-cased media type of a Content-Type value
// without its parameters.
func MediaType(contentType string) string {
	mt, _ := mediaType(contentType)
	return mt
}

func mediaType(contentType string) (string, map[string]string) {
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
		return strings.ToLower(strings.TrimSpace(mt)), nil
	}
	return mt, params
}

func readText(resp *http.Response, label string) (string, error) {
	if resp.Body == nil {
		return "", ErrEmptyBody
	}
	defer closeBody(resp)

	var r io.Reader = resp.Body
	if label != "" && !isUTF8(label) {
		cr, err := charset.NewReaderLabel(label, r)
		if err != nil {
			return "", fmt.Errorf("%w: charset %q: %w", ErrDecode, label, err)
		}
		r = cr
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	return string(b), nil
}

func isUTF8(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "us-ascii":
		return true
	}
	return false
}

func succeed(resp *http.Response, h hooks.Hooks, res *Result, data any) *Result {
	h.Data(data)
	h.Success(resp)
	h.End(resp)
	return res
}

func fail(resp *http.Response, h hooks.Hooks, kind Kind, err error) (*Result, error) {
	closeBody(resp)
	handled := h.Error(err)
	h.End(resp)

	if handled {
		return &Result{Kind: kind, Response: resp}, nil
	}

	return nil, fmt.Errorf("decoding %s response: %w", kind, err)
}

func raw(resp *http.Response, h hooks.Hooks) *Result {
	h.Success(resp)
	h.End(resp)
	return &Result{Kind: KindRaw, Response: resp, Body: resp.Body}
}

// closeBody drains a bounded remainder so the connection can be reused.
func closeBody(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrBodySize))
	_ = resp.Body.Close()
}

// IsFailure reports whether err is a *FailureError and returns it.
func IsFailure(err error) (*FailureError, bool) {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
