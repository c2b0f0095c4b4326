// Package reqcache provides the deduplicating TTL cache wrapped around
// query-type operation resolvers. Concurrent identical requests share one
// in-flight execution; resolved values are served until the absolute expiry
// measured from resolution time. Requests that differ in variables,
// authorization or any trusted header never share an entry or an in-flight
// call.
package reqcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/karlseguin/ccache/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/gqlgate/gqlgate/internal/platform/headers"
	"github.com/gqlgate/gqlgate/internal/platform/operations"
)

// DefaultMaxSize bounds the entry count when the caller does not set one.
const DefaultMaxSize = 5000

// KeyFunc derives the cache key from an operation name, its variables and
// the inbound headers. Two requests share a cache entry iff the derived keys
// are byte-identical.
type KeyFunc func(op string, vars map[string]interface{}, hdrs headers.Bundle) (string, error)

// DefaultKey builds an order-independent canonical serialization of
// {operation, variables, trusted headers}. encoding/json emits map keys in
// sorted order, so key-order permutations of the variables object derive the
// same key; the trusted subset (authorization plus vendor-prefixed headers)
// is sorted explicitly.
func DefaultKey(trustedPrefix string) KeyFunc {
	return func(op string, vars map[string]interface{}, hdrs headers.Bundle) (string, error) {
		trusted := headers.TrustedSubset(hdrs, trustedPrefix)

		composite := struct {
			Operation string                 `json:"op"`
			Variables map[string]interface{} `json:"vars,omitempty"`
			Trusted   [][2]string            `json:"trusted,omitempty"`
		}{
			Operation: op,
			Variables: vars,
			Trusted:   trusted.SortedPairs(),
		}

		key, err := json.Marshal(&composite)
		if err != nil {
			return "", errors.Wrap(err, "deriving cache key")
		}
		return string(key), nil
	}
}

// Options configure a Store.
type Options struct {
	// DefaultTTL applies to query operations without a behavior ttl of their
	// own. Zero leaves such operations uncached.
	DefaultTTL time.Duration

	// MaxSize bounds the number of cached entries.
	MaxSize int64

	// KeyFunc overrides the default key derivation policy.
	KeyFunc KeyFunc

	// TrustedPrefix is the vendor header prefix for the default key policy.
	TrustedPrefix string
}

// Store is the shared dedup/TTL cache. It is owned by the facade instance,
// not ambient, so every test can build its own.
type Store struct {
	cache      *ccache.Cache
	group      singleflight.Group
	keyFn      KeyFunc
	defaultTTL time.Duration
}

func New(opts Options) *Store {
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	keyFn := opts.KeyFunc
	if keyFn == nil {
		keyFn = DefaultKey(opts.TrustedPrefix)
	}

	return &Store{
		cache:      ccache.New(ccache.Configure().MaxSize(maxSize)),
		keyFn:      keyFn,
		defaultTTL: opts.DefaultTTL,
	}
}

// TTLFor returns the effective cache lifetime of the descriptor, zero when
// the operation must not be cached. Mutations and subscriptions are never
// cacheable regardless of configuration.
func (s *Store) TTLFor(op *operations.Descriptor) time.Duration {
	if op.Kind != operations.KindQuery {
		return 0
	}
	if op.Behavior.TTL > 0 {
		return op.Behavior.TTL
	}
	return s.defaultTTL
}

// Wrap returns resolve wrapped with dedup and TTL caching, or resolve
// unchanged when the descriptor is not cacheable. The wrapping covers the
// whole resolver, so overridden operations are cacheable too.
func (s *Store) Wrap(op *operations.Descriptor, resolve operations.ResolveFunc) operations.ResolveFunc {
	ttl := s.TTLFor(op)
	if ttl <= 0 {
		return resolve
	}

	return func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (*operations.Result, error) {
		key, err := s.keyFn(op.Name, vars, hdrs)
		if err != nil {
			return nil, err
		}

		if item := s.cache.Get(key); item != nil && !item.Expired() {
			return item.Value().(*operations.Result), nil
		}

		// singleflight makes the check-for-in-flight-else-create step atomic:
		// all concurrent callers of the same key wait on one execution and
		// observe the same resolved value.
		v, err, _ := s.group.Do(key, func() (interface{}, error) {
			if item := s.cache.Get(key); item != nil && !item.Expired() {
				return item.Value(), nil
			}

			res, err := resolve(ctx, vars, hdrs)
			if err != nil {
				// failures are never cached
				return nil, err
			}

			s.cache.Set(key, res, ttl)
			return res, nil
		})
		if err != nil {
			return nil, err
		}

		return v.(*operations.Result), nil
	}
}
