package chat

import (
	"log/slog"

	"github.com/papercomputeco/faqbot/pkg/logger"
)

const defaultReadSize = 32 * 1024

// Option configures Decode and Chunks.
type Option func(*decodeConfig)

type decodeConfig struct {
	logger         *slog.Logger
	readSize       int
	maxLineSize    int
	maxConsecutive int
}

func newDecodeConfig(opts ...Option) *decodeConfig {
	c := &decodeConfig{
		logger:   logger.Nop(),
		readSize: defaultReadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger sets the sink for malformed-line diagnostics. Defaults to a
// discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *decodeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReadSize sets the size of the buffer passed to each Read of the body.
func WithReadSize(n int) Option {
	return func(c *decodeConfig) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// WithMaxLineSize bounds a single line in bytes. A longer line ends the
// stream with an error chunk. Zero means unlimited.
func WithMaxLineSize(n int) Option {
	return func(c *decodeConfig) {
		c.maxLineSize = n
	}
}

// WithMaxConsecutiveFailures stops decoding with an error chunk once k
// malformed lines arrive in a row. Zero, the default, tolerates any number.
func WithMaxConsecutiveFailures(k int) Option {
	return func(c *decodeConfig) {
		c.maxConsecutive = k
	}
}
