package headers

import (
	"sort"
	"strings"
)

const (
	AuthorizationHeader = "authorization"

	// DefaultTrustedPrefix selects identity/tenant propagation headers for
	// cache key derivation.
	DefaultTrustedPrefix = "x-gqlgate-"

	ContentTypeJSON = "application/json"
)

// hop-by-hop and framing headers that must never be forwarded verbatim to the
// upstream. Content-Length is recomputed by the transport, not forwarded.
var forbiddenOutbound = []string{
	"host",
	"connection",
	"keep-alive",
	"transfer-encoding",
	"content-length",
}

// DefaultResponseHeaders is the default projection applied to upstream
// response headers before they are returned to the client.
var DefaultResponseHeaders = []string{"content-encoding", "content-type"}

type pair struct {
	name  string
	value string
}

// Bundle is an ordered multimap of header name to one or more values. Names
// are lower-cased on insertion so lookups are case-insensitive regardless of
// the host runtime the values came from.
type Bundle struct {
	pairs []pair
}

// New returns a Bundle built from alternating name/value arguments.
func New(nv ...string) Bundle {
	var b Bundle
	for i := 0; i+1 < len(nv); i += 2 {
		b.Add(nv[i], nv[i+1])
	}
	return b
}

// Get returns the first value for the name or "".
func (b *Bundle) Get(name string) string {
	name = strings.ToLower(name)
	for i := range b.pairs {
		if b.pairs[i].name == name {
			return b.pairs[i].value
		}
	}
	return ""
}

// Values returns all values for the name in insertion order.
func (b *Bundle) Values(name string) []string {
	name = strings.ToLower(name)
	var vals []string
	for i := range b.pairs {
		if b.pairs[i].name == name {
			vals = append(vals, b.pairs[i].value)
		}
	}
	return vals
}

// Has reports whether at least one value exists for the name.
func (b *Bundle) Has(name string) bool {
	name = strings.ToLower(name)
	for i := range b.pairs {
		if b.pairs[i].name == name {
			return true
		}
	}
	return false
}

// Set replaces all values of the name with a single value.
func (b *Bundle) Set(name, value string) {
	b.Del(name)
	b.Add(name, value)
}

// Add appends a value for the name, preserving existing ones.
func (b *Bundle) Add(name, value string) {
	b.pairs = append(b.pairs, pair{name: strings.ToLower(name), value: value})
}

// Del removes all values of the name.
func (b *Bundle) Del(name string) {
	name = strings.ToLower(name)
	kept := b.pairs[:0]
	for i := range b.pairs {
		if b.pairs[i].name != name {
			kept = append(kept, b.pairs[i])
		}
	}
	b.pairs = kept
}

// Len returns the number of name/value pairs.
func (b *Bundle) Len() int {
	return len(b.pairs)
}

// Clone returns an independent copy of the bundle.
func (b *Bundle) Clone() Bundle {
	out := Bundle{pairs: make([]pair, len(b.pairs))}
	copy(out.pairs, b.pairs)
	return out
}

// Range calls fn for every pair in insertion order.
func (b *Bundle) Range(fn func(name, value string)) {
	for i := range b.pairs {
		fn(b.pairs[i].name, b.pairs[i].value)
	}
}

// SanitizeOutbound returns a copy of the bundle safe to forward to the
// upstream: forbidden transport headers are dropped and the content
// negotiation headers are forced to JSON.
func SanitizeOutbound(b Bundle) Bundle {
	out := b.Clone()
	for _, name := range forbiddenOutbound {
		out.Del(name)
	}
	out.Set("content-type", ContentTypeJSON)
	out.Set("accept", ContentTypeJSON)
	return out
}

// Copy projects only the named headers out of the bundle. Used for the
// response-header passthrough policy; callers may substitute their own
// projection.
func Copy(b Bundle, names ...string) Bundle {
	var out Bundle
	for _, name := range names {
		for _, v := range b.Values(name) {
			out.Add(name, v)
		}
	}
	return out
}

// TrustedSubset extracts the headers whose lower-cased name begins with the
// vendor prefix, plus authorization. The subset participates in cache key
// derivation only and is never forwarded without SanitizeOutbound.
func TrustedSubset(b Bundle, prefix string) Bundle {
	if prefix == "" {
		prefix = DefaultTrustedPrefix
	}
	prefix = strings.ToLower(prefix)

	var out Bundle
	b.Range(func(name, value string) {
		if strings.HasPrefix(name, prefix) || name == AuthorizationHeader {
			out.Add(name, value)
		}
	})
	return out
}

// SortedPairs returns name/value pairs ordered by name then value. Key
// derivation uses it so header order permutations hash identically.
func (b *Bundle) SortedPairs() [][2]string {
	out := make([][2]string, 0, len(b.pairs))
	for i := range b.pairs {
		out = append(out, [2]string{b.pairs[i].name, b.pairs[i].value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
