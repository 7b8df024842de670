// Package hooks defines the optional callbacks fired while a response is
// decoded.
//
// Every field is optional. Hooks run synchronously on the goroutine that
// drives decoding, so a slow hook holds up the next item and OnEnd.
package hooks

import "net/http"

// Hooks are invoked at fixed points of the decode pipeline. For any
// response OnEnd fires exactly once and always last.
type Hooks struct {
	// OnData receives each decoded value: the text, the parsed JSON
	// document, every NDJSON value or every SSE event.
	OnData func(item any)

	// OnError receives decode and read errors. When set, the error is
	// considered handled and is not returned to the caller.
	OnError func(err error)

	// OnSuccess fires after a successful response has been fully decoded.
	OnSuccess func(resp *http.Response)

	// OnFailure fires for non-2xx responses.
	OnFailure func(resp *http.Response)

	// OnEnd fires once, after every other hook.
	OnEnd func(resp *http.Response)
}

func (h Hooks) Data(item any) {
	if h.OnData != nil {
		h.OnData(item)
	}
}

// Error hands err to OnError and reports whether it was handled. An unhandled
// error must be returned by the caller.
func (h Hooks) Error(err error) bool {
	if h.OnError == nil {
		return false
	}
	h.OnError(err)
	return true
}

func (h Hooks) Success(resp *http.Response) {
	if h.OnSuccess != nil {
		h.OnSuccess(resp)
	}
}

func (h Hooks) Failure(resp *http.Response) {
	if h.OnFailure != nil {
		h.OnFailure(resp)
	}
}

func (h Hooks) End(resp *http.Response) {
	if h.OnEnd != nil {
		h.OnEnd(resp)
	}
}

// Merge returns hooks that call h first and then o for every event.
// Either side may leave fields unset. OnError counts as handled when
// either side handles it.
func (h Hooks) Merge(o Hooks) Hooks {
	return Hooks{
		OnData:    joinData(h.OnData, o.OnData),
		OnError:   joinError(h.OnError, o.OnError),
		OnSuccess: joinResp(h.OnSuccess, o.OnSuccess),
		OnFailure: joinResp(h.OnFailure, o.OnFailure),
		OnEnd:     joinResp(h.OnEnd, o.OnEnd),
	}
}

func joinData(a, b func(any)) func(any) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(item any) {
		a(item)
		b(item)
	}
}

func joinError(a, b func(error)) func(error) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(err error) {
		a(err)
		b(err)
	}
}

func joinResp(a, b func(*http.Response)) func(*http.Response) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(resp *http.Response) {
		a(resp)
		b(resp)
	}
}
