package assemble

import (
	"encoding/json"
	"reflect"
)

// ResolveHeaders merges the explicit Headers map into the context. Keys
// match case-insensitively, so a differently cased key replaces the
// existing entry. Strings are used as-is and numbers are stringified;
// nil and any other type are skipped. Headers remains nil when nothing
// was set.
func (c *Context) ResolveHeaders() error {
	for _, k := range sortedKeys(c.opts.Headers) {
		v := c.opts.Headers[k]
		if !isHeaderValue(v) {
			continue
		}

		s, _ := scalarString(v)
		c.setHeader(k, s)
	}

	return nil
}

func isHeaderValue(v any) bool {
	if _, ok := v.(json.Number); ok {
		return true
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
