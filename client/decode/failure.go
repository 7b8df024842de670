package decode

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

func newFailure(resp *http.Response) *FailureError {
	var body string
	if resp.Body != nil {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}
		body = string(b)
	}

	status := statusText(resp)

	msg := messageFrom(body)
	if msg == "" {
		msg = status
	}

	err := ErrUnexpectedStatus
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		err = errors.Join(ErrUnexpectedStatus, ErrAuthFailure)
	}

	return &FailureError{
		StatusCode: resp.StatusCode,
		Status:     status,
		Message:    msg,
		Body:       body,
		Err:        err,
	}
}

// statusText returns the reason phrase of resp, e.g. "Not Found".
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok && text != "" {
		return text
	}
	if resp.Status != "" {
		return resp.Status
	}
	return http.StatusText(resp.StatusCode)
}

// messageFrom extracts a human readable message from a JSON error body.
func messageFrom(body string) string {
	var doc map[string]any
	if err := sonic.ConfigStd.UnmarshalFromString(body, &doc); err != nil {
		return ""
	}

	for _, key := range []string{"message", "error", "detail"} {
		switch v := doc[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if m, ok := v["message"].(string); ok && m != "" {
				return m
			}
		}
	}

	return ""
}
