package assemble

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"

	"github.com/adamwoolhether/fetchkit/client/route"
)

const (
	contentTypeJSON        = "application/json"
	contentTypeOctetStream = "application/octet-stream"
)

// ResolveBody derives the request body. It is a no-op for get, head and
// delete. An explicit Body is used verbatim. Otherwise the remaining data
// decides: a Form or a map of Files becomes multipart/form-data, an
// io.Reader or []byte passes through untouched, a single File becomes an
// octet-stream body, and any other value is encoded as JSON.
func (c *Context) ResolveBody() error {
	switch c.Init.Method {
	case route.Get, route.Head, route.Delete:
		return nil
	}

	if c.Init.Body != nil {
		return nil
	}

	if c.opts.Body != nil {
		c.Init.Body = c.opts.Body
		return nil
	}

	switch d := c.data.(type) {
	case nil:
		return nil

	case *Form:
		if d == nil {
			return nil
		}
		return c.setMultipart(d.parts)

	case File:
		c.setFile(&d)

	case *File:
		if d == nil {
			return nil
		}
		c.setFile(d)

	case []byte:
		c.Init.Body = d

	case io.Reader:
		c.Init.Body = d

	case map[string]any:
		if parts, ok := fileParts(d); ok {
			return c.setMultipart(parts)
		}
		return c.setJSON(d)

	default:
		return c.setJSON(d)
	}

	return nil
}

func (c *Context) setFile(f *File) {
	var body io.Reader = http.NoBody
	if f.Content != nil {
		body = f.Content
	}
	c.Init.Body = body
	c.setHeader("Content-Type", contentTypeOctetStream)
}

func (c *Context) setJSON(v any) error {
	b, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding request payload: %w", err)
	}
	c.Init.Body = string(b)
	c.setHeader("Content-Type", contentTypeJSON)

	return nil
}

func (c *Context) setMultipart(parts []formPart) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		if p.file == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return fmt.Errorf("writing form field %q: %w", p.name, err)
			}
			continue
		}

		if err := writeFilePart(w, p.name, p.file); err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("closing multipart writer: %w", err)
	}

	c.Init.Body = buf.Bytes()
	c.setHeader("Content-Type", w.FormDataContentType())

	return nil
}

func writeFilePart(w *multipart.Writer, name string, f *File) error {
	var content []byte
	if f.Content != nil {
		b, err := io.ReadAll(f.Content)
		if err != nil {
			return fmt.Errorf("reading file part %q: %w", name, err)
		}
		content = b
	}

	contentType := f.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(content).String()
	}

	filename := f.Name
	if filename == "" {
		filename = name
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(name), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	pw, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating file part %q: %w", name, err)
	}
	if _, err := pw.Write(content); err != nil {
		return fmt.Errorf("writing file part %q: %w", name, err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// fileParts reports whether every value of m is a File.
func fileParts(m map[string]any) ([]formPart, bool) {
	if len(m) == 0 {
		return nil, false
	}

	parts := make([]formPart, 0, len(m))
	for _, k := range sortedKeys(m) {
		switch f := m[k].(type) {
		case File:
			parts = append(parts, formPart{name: k, file: &f})
		case *File:
			if f == nil {
				return nil, false
			}
			parts = append(parts, formPart{name: k, file: f})
		default:
			return nil, false
		}
	}

	return parts, true
}
