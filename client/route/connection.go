package route

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/adamwoolhether/fetchkit/client/errs"
)

// Protocol is a lower-case channel protocol token.
type Protocol string

const (
	WS  Protocol = "ws"
	WSS Protocol = "wss"
)

// Connection is the resolved form of a channel descriptor such as
// "WS /chat" or "wss://stream.example.com/feed".
type Connection struct {
	Protocol Protocol
	BaseURL  string
	Path     string
}

// ParseConnection resolves s the way Resolve does for requests, except the
// leading token names a protocol. An explicit protocol or baseURL overrides
// the parsed values. Without any protocol hint the base URL's scheme decides:
// https and wss map to wss, everything else to ws.
func ParseConnection(s string, protocol Protocol, baseURL string) (Connection, error) {
	p := split(s)

	var c Connection

	c.Path = p.path
	if c.Path == "" {
		if p.baseURL == "" {
			return Connection{}, errs.NewConfigError("route", fmt.Errorf("%w: %q", errs.ErrMissingPath, s))
		}
		c.Path = "/"
	}

	c.BaseURL = baseURL
	if c.BaseURL == "" {
		c.BaseURL = p.baseURL
	}

	if c.BaseURL == "" {
		return Connection{}, errs.NewConfigError("baseUrl", errs.ErrMissingBaseURL)
	}

	switch {
	case protocol != "":
		c.Protocol = Protocol(strings.ToLower(string(protocol)))
	case p.token != "":
		c.Protocol = Protocol(strings.ToLower(p.token))
	default:
		c.Protocol = schemeProtocol(c.BaseURL)
	}

	if c.Protocol != WS && c.Protocol != WSS {
		return Connection{}, errs.NewConfigError("protocol", fmt.Errorf("%w: %q", errs.ErrInvalidProtocol, c.Protocol))
	}

	return c, nil
}

// DialBase returns BaseURL with its scheme replaced by the connection
// protocol, ready to be joined with Path.
func (c Connection) DialBase() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", errs.NewConfigError("baseUrl", fmt.Errorf("parsing base url: %w", err))
	}
	u.Scheme = string(c.Protocol)

	return u.String(), nil
}

func schemeProtocol(baseURL string) Protocol {
	scheme, _, _ := strings.Cut(baseURL, "://")
	switch strings.ToLower(scheme) {
	case "https", "wss":
		return WSS
	default:
		return WS
	}
}
