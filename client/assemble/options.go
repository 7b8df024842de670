package assemble

import (
	"io"

	"github.com/adamwoolhether/fetchkit/client/route"
)

// ArrayFormat selects how slice values are written to the query string.
type ArrayFormat string

const (
	// FormatFlat repeats the key: tags=a&tags=b.
	FormatFlat ArrayFormat = "flat"
	// FormatBrackets appends []: tags[]=a&tags[]=b.
	FormatBrackets ArrayFormat = "brackets"
	// FormatIndices appends the index: tags[0]=a&tags[1]=b.
	FormatIndices ArrayFormat = "indices"
	// FormatComma joins values: tags=a,b.
	FormatComma ArrayFormat = "comma"
	// FormatPath appends a dotted index: tags.0=a&tags.1=b.
	FormatPath ArrayFormat = "path"
)

// TokenLocation says where an auth token is placed on the request.
type TokenLocation string

const (
	TokenQuery  TokenLocation = "query"
	TokenHeader TokenLocation = "header"
	TokenCookie TokenLocation = "cookie"
)

// Options are the structured inputs combined with a route descriptor.
//
// Data is the catch-all payload. Path parameters missing from Parameters
// are taken from it, scalar entries are promoted to the query string for
// methods without a body, and whatever remains becomes the body.
type Options struct {
	BaseURL string       `json:"baseUrl"`
	Method  route.Method `json:"method"`

	Parameters map[string]any `json:"parameters"`
	Query      map[string]any `json:"query"`
	Data       any            `json:"data"`
	Body       any            `json:"body"`
	Headers    map[string]any `json:"headers"`

	Token         string        `json:"token"`
	TokenLocation TokenLocation `json:"tokenLocation" validate:"omitempty,oneof=query header cookie"`
	TokenProperty string        `json:"tokenProperty"`

	ArrayFormat ArrayFormat `json:"arrayFormat" validate:"omitempty,oneof=flat brackets indices comma path"`
}

// File is a single file-like payload. As Data it becomes an
// application/octet-stream body; as a value inside a Data map it becomes
// a multipart file part.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Form is an ordered multipart form container.
type Form struct {
	parts []formPart
}

type formPart struct {
	name  string
	value string
	file  *File
}

// Set appends a plain field.
func (f *Form) Set(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// SetFile appends a file part.
func (f *Form) SetFile(name string, file File) *Form {
	f.parts = append(f.parts, formPart{name: name, file: &file})
	return f
}

// Len returns the number of parts.
func (f *Form) Len() int {
	return len(f.parts)
}
