package assemble

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

type pair struct {
	key   string
	value string
}

// ResolveQuery collects the explicit Query map and, for methods without a
// body, promotes scalar and scalar-slice entries of the data map into the
// query string. Explicit entries are written first; both sets are appended,
// never merged, so a shared key appears twice.
func (c *Context) ResolveQuery() error {
	format := c.opts.ArrayFormat
	if format == "" {
		format = FormatFlat
	}

	explicit := make([]pair, 0, len(c.opts.Query))
	for _, k := range sortedKeys(c.opts.Query) {
		explicit = append(explicit, encodeValue(k, c.opts.Query[k], format)...)
	}
	c.explicit = explicit

	if !c.Init.Method.HasBody() {
		if data, ok := c.data.(map[string]any); ok {
			for _, k := range sortedKeys(data) {
				v := data[k]
				if !isQueryValue(v) {
					continue
				}
				c.promoted = append(c.promoted, encodeValue(k, v, format)...)
				delete(data, k)
			}
		}
	}

	c.syncQuery()

	return nil
}

// syncQuery renders the explicit, promoted and token pairs into RawQuery.
func (c *Context) syncQuery() {
	if c.URL == nil {
		return
	}

	pairs := slices.Concat(c.explicit, c.promoted)
	if c.token != nil {
		pairs = slices.DeleteFunc(pairs, func(p pair) bool { return p.key == c.token.key })
		pairs = append(pairs, *c.token)
	}

	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}
	c.URL.RawQuery = sb.String()
}

func encodeValue(key string, v any, format ArrayFormat) []pair {
	if v == nil {
		return nil
	}

	if s, ok := scalarString(v); ok {
		return []pair{{key: key, value: s}}
	}

	if items, ok := sliceStrings(v); ok {
		return encodeArray(key, items, format)
	}

	b, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return []pair{{key: key, value: fmt.Sprint(v)}}
	}
	return []pair{{key: key, value: string(b)}}
}

func encodeArray(key string, items []string, format ArrayFormat) []pair {
	if format == FormatComma {
		return []pair{{key: key, value: strings.Join(items, ",")}}
	}

	pairs := make([]pair, 0, len(items))
	for i, item := range items {
		k := key
		switch format {
		case FormatBrackets:
			k = key + "[]"
		case FormatIndices:
			k = key + "[" + strconv.Itoa(i) + "]"
		case FormatPath:
			k = key + "." + strconv.Itoa(i)
		}
		pairs = append(pairs, pair{key: k, value: item})
	}
	return pairs
}

// isQueryValue reports whether v is a scalar or a slice of scalars.
func isQueryValue(v any) bool {
	if _, ok := scalarString(v); ok {
		return true
	}
	_, ok := sliceStrings(v)
	return ok
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.String:
		return rv.String(), true
	default:
		return "", false
	}
}

func sliceStrings(v any) ([]string, bool) {
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	items := make([]string, 0, rv.Len())
	for i := range rv.Len() {
		s, ok := scalarString(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		items = append(items, s)
	}
	return items, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
