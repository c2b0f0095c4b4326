package gqlgate

import (
	"time"

	"github.com/rs/zerolog"
)

// Configuration holds the tunable policies of a proxy instance. Zero values
// fall back to the documented defaults.
type Configuration struct {
	DefaultTTL          time.Duration
	CacheMaxSize        int64
	TrustedHeaderPrefix string
	KeyFunc             KeyFunc
	ResponseHeaders     []string
	PassContentLength   bool
	Logger              zerolog.Logger
}

type Option func(*Configuration)

// WithDefaultTTL is a functional option to cache query operations without a
// ttl of their own for the given duration.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Configuration) {
		c.DefaultTTL = ttl
	}
}

// WithCacheSize is a functional option to bound the number of cached entries.
func WithCacheSize(maxSize int64) Option {
	return func(c *Configuration) {
		c.CacheMaxSize = maxSize
	}
}

// WithTrustedHeaderPrefix is a functional option to change the vendor header
// prefix participating in cache key derivation.
func WithTrustedHeaderPrefix(prefix string) Option {
	return func(c *Configuration) {
		c.TrustedHeaderPrefix = prefix
	}
}

// WithKeyFunc is a functional option to replace the cache key derivation
// policy entirely.
func WithKeyFunc(fn KeyFunc) Option {
	return func(c *Configuration) {
		c.KeyFunc = fn
	}
}

// WithResponseHeaders is a functional option to set which upstream response
// headers are passed back to the client.
func WithResponseHeaders(names ...string) Option {
	return func(c *Configuration) {
		c.ResponseHeaders = names
	}
}

// WithContentLengthPassthrough is a functional option to add content-length
// to the response header projection.
func WithContentLengthPassthrough() Option {
	return func(c *Configuration) {
		c.PassContentLength = true
	}
}

// WithLogger is a functional option to set the logger used for advisory
// warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Configuration) {
		c.Logger = log
	}
}
