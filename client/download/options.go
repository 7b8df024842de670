package download

import (
	"errors"
	"hash"
	"time"
)

const defaultProgressInterval = time.Second

// Option configures Handle.
type Option func(*options) error

type options struct {
	checksum     *checksumVerifier
	progress     bool
	progressFn   ProgressFunc
	interval     time.Duration
	skipExisting bool
	mkdirAll     bool
}

// WithChecksum validates the file against expected, a hex digest produced
// by h (e.g. sha256.New()).
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithProgress logs progress through the logger given to Handle.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithProgressFunc calls fn at most once per interval while writing.
func WithProgressFunc(interval time.Duration, fn ProgressFunc) Option {
	return func(opts *options) error {
		if fn == nil {
			return errors.New("progress func must not be nil")
		}
		if interval <= 0 {
			interval = defaultProgressInterval
		}
		opts.progressFn = fn
		opts.interval = interval
		return nil
	}
}

// WithSkipExisting makes Handle return immediately when the destination
// already exists.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}

// WithMkdirAll creates missing parent directories of the destination.
func WithMkdirAll() Option {
	return func(opts *options) error {
		opts.mkdirAll = true
		return nil
	}
}
