package decode

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// opener wraps a compressed stream in a decompressing reader.
type opener func(io.Reader) (io.ReadCloser, error)

var openers = map[string]opener{
	"gzip":   openGzip,
	"x-gzip": openGzip,
	"deflate": func(r io.Reader) (io.ReadCloser, error) {
		return zlib.NewReader(r)
	},
	"zstd": func(r io.Reader) (io.ReadCloser, error) {
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	},
}

func openGzip(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// uncompress replaces resp.Body with a decompressing reader when the
// response declares a supported Content-Encoding. The decompressor is
// created on the first read, so a corrupt stream surfaces as a read error
// on whichever path consumes the body. Unknown encodings are left alone.
func uncompress(resp *http.Response) {
	if resp.Body == nil || resp.Body == http.NoBody || resp.Uncompressed {
		return
	}

	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	open, ok := openers[enc]
	if !ok {
		return
	}

	resp.Body = &lazyReader{src: resp.Body, open: open, encoding: enc}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
}

type lazyReader struct {
	src      io.ReadCloser
	open     opener
	encoding string

	r   io.ReadCloser
	err error
}

func (l *lazyReader) Read(p []byte) (int, error) {
	if l.r == nil && l.err == nil {
		l.r, l.err = l.open(l.src)
		if l.err != nil {
			l.err = fmt.Errorf("opening %s reader: %w", l.encoding, l.err)
		}
	}
	if l.err != nil {
		return 0, l.err
	}
	return l.r.Read(p)
}

func (l *lazyReader) Close() error {
	if l.r != nil {
		_ = l.r.Close()
	}
	return l.src.Close()
}
