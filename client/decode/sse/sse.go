// Package sse decodes text/event-stream response bodies.
package sse

import (
	"fmt"
	"net/http"

	"github.com/adamwoolhether/fetchkit/client/errs"
	"github.com/adamwoolhether/fetchkit/client/hooks"
	"github.com/adamwoolhether/fetchkit/client/stream"
)

// ContentType is the media type served by event streams.
const ContentType = "text/event-stream"

// Decode returns a Stream of the events in resp.Body. Reading starts on
// the first iteration and proceeds one chunk at a time as events are
// consumed.
//
// For every event OnData fires before the event is yielded. After the body
// is exhausted and the final event flushed, OnSuccess fires. Read errors go
// to OnError when set and are yielded otherwise; either way iteration stops.
// The body is closed and OnEnd fires exactly once when iteration ends, when
// the consumer breaks out early, or when an un-iterated Stream is closed.
func Decode(resp *http.Response, h hooks.Hooks) (*stream.Stream[Event], error) {
	if resp == nil || resp.Body == nil {
		return nil, fmt.Errorf("decoding event stream: %w", errs.ErrEmptyBody)
	}

	release := stream.OnceCloser(func() error {
		defer h.End(resp)
		return resp.Body.Close()
	})

	seq := func(yield func(Event, error) bool) {
		defer release.Close()

		emit := func(events []Event) bool {
			for _, ev := range events {
				h.Data(ev)
				if !yield(ev, nil) {
					return false
				}
			}
			return true
		}

		var p Parser
		for chunk, err := range stream.Chunks(resp.Body) {
			if err != nil {
				err = fmt.Errorf("reading event stream: %w", err)
				if !h.Error(err) {
					yield(Event{}, err)
				}
				return
			}

			if !emit(p.Feed(chunk)) {
				return
			}
		}

		if !emit(p.Finish()) {
			return
		}

		h.Success(resp)
	}

	return stream.New(seq, release), nil
}
