// Package codec selects the JSON API used by the decoders.
package codec

import "github.com/bytedance/sonic"

// number mirrors sonic.ConfigStd but decodes numbers into json.Number.
var number = sonic.Config{
	EscapeHTML:       true,
	SortMapKeys:      true,
	CompactMarshaler: true,
	CopyString:       true,
	ValidateString:   true,
	UseNumber:        true,
}.Froze()

// API returns the standard-library compatible sonic API, or its
// json.Number variant when useNumber is set.
func API(useNumber bool) sonic.API {
	if useNumber {
		return number
	}
	return sonic.ConfigStd
}
