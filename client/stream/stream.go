// Package stream wraps a lazily decoded response so it can be consumed
// either one item at a time or collected in a single call.
package stream

import (
	"errors"
	"io"
	"iter"
	"sync"
	"sync/atomic"
)

// ErrConsumed is returned when a Stream is iterated a second time.
var ErrConsumed = errors.New("stream already consumed")

// Stream is a single-consumption sequence of decoded items. All and Collect
// share the same underlying reads; whichever runs first owns the sequence.
type Stream[T any] struct {
	seq      iter.Seq2[T, error]
	closer   io.Closer
	consumed atomic.Bool
}

// New wraps seq. closer is invoked by Close when the sequence was never
// iterated, and may be nil.
func New[T any](seq iter.Seq2[T, error], closer io.Closer) *Stream[T] {
	return &Stream[T]{seq: seq, closer: closer}
}

// All returns the sequence. Breaking out of the loop early releases the
// underlying body. Only the first range over any sequence returned by All
// reads; every later one yields ErrConsumed once.
func (s *Stream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			var zero T
			yield(zero, ErrConsumed)
			return
		}
		s.seq(yield)
	}
}

// Collect drains the sequence. On error it returns the items decoded so far
// together with the error.
func (s *Stream[T]) Collect() ([]T, error) {
	var items []T
	for item, err := range s.All() {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Close releases a stream that will not be iterated. It is a no-op once
// iteration has started.
func (s *Stream[T]) Close() error {
	if !s.consumed.CompareAndSwap(false, true) {
		return nil
	}
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// OnceCloser returns an io.Closer that runs fn at most once. Every call
// returns the error of the first.
func OnceCloser(fn func() error) io.Closer {
	return &onceCloser{fn: fn}
}

type onceCloser struct {
	once sync.Once
	fn   func() error
	err  error
}

func (c *onceCloser) Close() error {
	c.once.Do(func() { c.err = c.fn() })
	return c.err
}

// Of returns a Stream over a fixed set of items.
func Of[T any](items ...T) *Stream[T] {
	return New(func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}, nil)
}
