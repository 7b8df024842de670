package assemble

import (
	"net/http"
	"strings"
)

// Header is a case-insensitive header map. Lookups normalise the key to
// lower case, the casing of the first occurrence is kept for output, and
// insertion order is preserved.
type Header struct {
	names  map[string]string
	values map[string]string
	order  []string
}

// NewHeader returns an empty Header.
func NewHeader() *Header {
	return &Header{
		names:  make(map[string]string),
		values: make(map[string]string),
	}
}

// Set stores value under key, replacing any entry whose key differs only
// by case.
func (h *Header) Set(key, value string) {
	lk := lower(key)
	if _, ok := h.names[lk]; !ok {
		h.names[lk] = key
		h.order = append(h.order, lk)
	}
	h.values[lk] = value
}

// Get returns the value stored under key and whether it was present.
func (h *Header) Get(key string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.values[lower(key)]
	return v, ok
}

// Del removes key regardless of case.
func (h *Header) Del(key string) {
	lk := lower(key)
	if _, ok := h.names[lk]; !ok {
		return
	}
	delete(h.names, lk)
	delete(h.values, lk)
	for i, k := range h.order {
		if k == lk {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of distinct keys.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Keys returns the stored keys in insertion order using their first-seen casing.
func (h *Header) Keys() []string {
	if h == nil {
		return nil
	}
	keys := make([]string, 0, len(h.order))
	for _, lk := range h.order {
		keys = append(keys, h.names[lk])
	}
	return keys
}

// HTTP converts h into an http.Header.
func (h *Header) HTTP() http.Header {
	hdr := make(http.Header, h.Len())
	if h == nil {
		return hdr
	}
	for _, lk := range h.order {
		hdr.Set(h.names[lk], h.values[lk])
	}
	return hdr
}

func lower(s string) string {
	return strings.ToLower(s)
}
