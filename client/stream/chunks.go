package stream

import (
	"errors"
	"io"
	"iter"
)

// ChunkSize is the read size used by Chunks.
const ChunkSize = 32 << 10

// Chunks reads r until EOF, yielding each non-empty read. The yielded slice
// is reused and only valid until the next iteration. io.EOF is not reported.
func Chunks(r io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		buf := make([]byte, ChunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if !yield(buf[:n], nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}
