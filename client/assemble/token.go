package assemble

import (
	"fmt"
	"strings"

	"github.com/adamwoolhether/fetchkit/client/errs"
)

// ResolveToken places Options.Token according to TokenLocation, which
// defaults to header. An empty token is a no-op.
//
//   - query:  TokenProperty is required and names the query parameter.
//   - header: written to TokenProperty verbatim, or to Authorization
//     as a Bearer token when no property is given.
//   - cookie: TokenProperty is required and names the cookie, merged into
//     any existing Cookie header.
func (c *Context) ResolveToken() error {
	token := c.opts.Token
	if token == "" {
		return nil
	}

	prop := c.opts.TokenProperty

	switch c.opts.TokenLocation {
	case TokenQuery:
		if prop == "" {
			return errs.NewConfigError("tokenProperty", fmt.Errorf("%w: required for query tokens", errs.ErrMissingTokenProperty))
		}
		c.token = &pair{key: prop, value: token}
		c.syncQuery()

	case TokenHeader, "":
		if prop == "" {
			c.setHeader("Authorization", "Bearer "+token)
			return nil
		}
		c.setHeader(prop, token)

	case TokenCookie:
		if prop == "" {
			return errs.NewConfigError("tokenProperty", fmt.Errorf("%w: required for cookie tokens", errs.ErrMissingTokenProperty))
		}
		existing, _ := c.Init.Headers.Get("Cookie")
		c.setHeader("Cookie", mergeCookie(existing, prop, token))

	default:
		return errs.NewConfigError("tokenLocation", fmt.Errorf("%w: %q", errs.ErrInvalidTokenLocation, c.opts.TokenLocation))
	}

	return nil
}

// mergeCookie sets name=value within a Cookie header value, replacing a
// cookie of the same name and keeping the others in order.
func mergeCookie(existing, name, value string) string {
	var cookies []string
	replaced := false

	for _, part := range strings.Split(existing, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		k, _, _ := strings.Cut(part, "=")
		if strings.TrimSpace(k) == name {
			if replaced {
				continue
			}
			part = name + "=" + value
			replaced = true
		}
		cookies = append(cookies, part)
	}

	if !replaced {
		cookies = append(cookies, name+"="+value)
	}

	return strings.Join(cookies, "; ")
}
