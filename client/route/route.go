// Package route parses compact route descriptors such as "POST /users/:id",
// "/health" or "https://api.example.com/v1/items" into their method, base
// URL and path components.
package route

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adamwoolhether/fetchkit/client/errs"
)

// Method is a lower-case HTTP method token.
type Method string

const (
	Get     Method = "get"
	Post    Method = "post"
	Put     Method = "put"
	Patch   Method = "patch"
	Delete  Method = "delete"
	Head    Method = "head"
	Options Method = "options"
)

var methods = map[Method]struct{}{
	Get: {}, Post: {}, Put: {}, Patch: {}, Delete: {}, Head: {}, Options: {},
}

// ParseMethod normalises s and reports whether it names a supported method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := methods[m]; !ok {
		return "", errs.NewConfigError("method", fmt.Errorf("%w: %q", errs.ErrInvalidMethod, s))
	}

	return m, nil
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	_, ok := methods[m]
	return ok
}

// HTTP returns the canonical upper-case form used on the wire.
func (m Method) HTTP() string {
	return strings.ToUpper(string(m))
}

// HasBody reports whether requests using m may carry a body.
// Only post, put and patch do.
func (m Method) HasBody() bool {
	switch m {
	case Post, Put, Patch:
		return true
	default:
		return false
	}
}

// Descriptor is the resolved form of a route string.
type Descriptor struct {
	Method  Method
	BaseURL string
	Path    string
}

// descriptorRe matches an optional "TOKEN " prefix, an optional absolute
// URL origin and an optional path. Query and fragment are dropped; any
// other trailing text fails the match.
var descriptorRe = regexp.MustCompile(`^(?:([A-Za-z]+)\s+)?([A-Za-z][A-Za-z0-9+.\-]*://[^/?#\s]+)?(/[^?#\s]*)?(?:[?#]\S*)?$`)

type parts struct {
	token   string
	baseURL string
	path    string
}

func split(s string) parts {
	m := descriptorRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return parts{}
	}

	return parts{token: m[1], baseURL: m[2], path: m[3]}
}

// Parse extracts the components of s without applying defaults beyond
// the method. A missing method resolves to get.
func Parse(s string) (Descriptor, error) {
	return Resolve(s, "", "")
}

// Resolve parses s and applies explicit overrides. A non-empty method or
// baseURL always wins over the value found in s. The method defaults to
// get; a missing base URL or an unsupported method is a configuration error.
func Resolve(s string, method Method, baseURL string) (Descriptor, error) {
	p := split(s)

	var d Descriptor

	d.Path = p.path
	if d.Path == "" {
		if p.baseURL == "" {
			return Descriptor{}, errs.NewConfigError("route", fmt.Errorf("%w: %q", errs.ErrMissingPath, s))
		}
		d.Path = "/"
	}

	switch {
	case method != "":
		d.Method = Method(strings.ToLower(string(method)))
	case p.token != "":
		d.Method = Method(strings.ToLower(p.token))
	default:
		d.Method = Get
	}

	if !d.Method.Valid() {
		return Descriptor{}, errs.NewConfigError("method", fmt.Errorf("%w: %q", errs.ErrInvalidMethod, d.Method))
	}

	d.BaseURL = baseURL
	if d.BaseURL == "" {
		d.BaseURL = p.baseURL
	}

	if d.BaseURL == "" {
		return Descriptor{}, errs.NewConfigError("baseUrl", errs.ErrMissingBaseURL)
	}

	return d, nil
}

// String renders d back into descriptor form.
func (d Descriptor) String() string {
	return fmt.Sprintf("%s %s%s", d.Method.HTTP(), d.BaseURL, d.Path)
}
