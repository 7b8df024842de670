package assemble

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/adamwoolhether/fetchkit/client/errs"
)

// paramRe matches :name and {name} placeholders in one pass over the
// escaped path, where braces may already appear percent-encoded.
var paramRe = regexp.MustCompile(`:([A-Za-z0-9_]+)|(?:\{|%7[Bb])([A-Za-z0-9_]+)(?:\}|%7[Dd])`)

// ResolveURL joins the base URL and route path with exactly one slash.
func (c *Context) ResolveURL() error {
	base := strings.TrimRight(c.route.BaseURL, "/")
	path := strings.TrimLeft(c.route.Path, "/")

	u, err := url.Parse(base + "/" + path)
	if err != nil {
		return errs.NewConfigError("baseUrl", fmt.Errorf("parsing url: %w", err))
	}
	if u.Scheme == "" || u.Host == "" {
		return errs.NewConfigError("baseUrl", fmt.Errorf("%w: %q is not absolute", errs.ErrMissingBaseURL, c.route.BaseURL))
	}
	u.RawQuery = ""
	u.Fragment = ""

	c.URL = u
	c.syncQuery()

	return nil
}

// ResolvePath substitutes :name and {name} placeholders. Values come from
// Parameters first and fall back to the data map, in which case the key is
// consumed. Only string values are substituted; anything else leaves the
// placeholder untouched.
func (c *Context) ResolvePath() error {
	if c.URL == nil {
		return nil
	}

	escaped := c.URL.EscapedPath()
	if !paramRe.MatchString(escaped) {
		return nil
	}

	raw := paramRe.ReplaceAllStringFunc(escaped, func(placeholder string) string {
		m := paramRe.FindStringSubmatch(placeholder)
		name := m[1]
		if name == "" {
			name = m[2]
		}

		value, ok := c.lookupParam(name)
		if !ok {
			return placeholder
		}

		return strings.ReplaceAll(url.PathEscape(value), ":", "%3A")
	})

	path, err := url.PathUnescape(raw)
	if err != nil {
		return errs.NewConfigError("parameters", fmt.Errorf("unescaping path: %w", err))
	}

	c.URL.Path = path
	c.URL.RawPath = raw

	return nil
}

func (c *Context) lookupParam(name string) (string, bool) {
	if v, ok := c.opts.Parameters[name]; ok {
		s, isString := v.(string)
		return s, isString
	}

	data, ok := c.data.(map[string]any)
	if !ok {
		return "", false
	}

	s, ok := data[name].(string)
	if !ok {
		return "", false
	}
	delete(data, name)

	return s, true
}
