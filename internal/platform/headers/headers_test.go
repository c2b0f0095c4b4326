package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleBasics(t *testing.T) {

	var b Bundle
	b.Add("X-Custom", "one")
	b.Add("x-custom", "two")
	b.Set("Content-Type", "text/plain")

	assert.Equal(t, "one", b.Get("X-CUSTOM"))
	assert.Equal(t, []string{"one", "two"}, b.Values("x-custom"))
	assert.True(t, b.Has("content-type"))
	assert.Equal(t, 3, b.Len())

	b.Del("x-custom")
	assert.False(t, b.Has("x-custom"))
	assert.Equal(t, 1, b.Len())
}

func TestCloneIsIndependent(t *testing.T) {

	b := New("authorization", "Bearer a")
	c := b.Clone()
	c.Set("authorization", "Bearer b")

	assert.Equal(t, "Bearer a", b.Get("authorization"))
	assert.Equal(t, "Bearer b", c.Get("authorization"))
}

func TestSanitizeOutbound(t *testing.T) {

	b := New(
		"Host", "client.example.com",
		"Connection", "keep-alive",
		"Keep-Alive", "timeout=5",
		"Transfer-Encoding", "chunked",
		"Content-Length", "42",
		"Authorization", "Bearer token",
		"Content-Type", "text/xml",
		"Accept", "text/html",
		"X-Custom", "kept",
	)

	out := SanitizeOutbound(b)

	for _, name := range []string{"host", "connection", "keep-alive", "transfer-encoding", "content-length"} {
		assert.False(t, out.Has(name), "forbidden header %q must be dropped", name)
	}

	assert.Equal(t, "application/json", out.Get("content-type"))
	assert.Equal(t, "application/json", out.Get("accept"))
	assert.Equal(t, "Bearer token", out.Get("authorization"))
	assert.Equal(t, "kept", out.Get("x-custom"))

	// the input bundle is untouched
	assert.True(t, b.Has("host"))
	assert.Equal(t, "text/xml", b.Get("content-type"))
}

func TestCopyProjection(t *testing.T) {

	b := New(
		"content-type", "application/json",
		"content-encoding", "gzip",
		"set-cookie", "secret=1",
		"x-internal", "nope",
	)

	out := Copy(b, DefaultResponseHeaders...)

	assert.Equal(t, 2, out.Len())
	assert.Equal(t, "application/json", out.Get("content-type"))
	assert.Equal(t, "gzip", out.Get("content-encoding"))
	assert.False(t, out.Has("set-cookie"))
	assert.False(t, out.Has("x-internal"))
}

func TestTrustedSubset(t *testing.T) {

	b := New(
		"Authorization", "Bearer t",
		"X-Gqlgate-Tenant", "acme",
		"X-Gqlgate-Region", "eu",
		"X-Other", "untrusted",
		"Cookie", "session=1",
	)

	trusted := TrustedSubset(b, "")

	require.Equal(t, 3, trusted.Len())
	assert.Equal(t, "Bearer t", trusted.Get("authorization"))
	assert.Equal(t, "acme", trusted.Get("x-gqlgate-tenant"))
	assert.Equal(t, "eu", trusted.Get("x-gqlgate-region"))
	assert.False(t, trusted.Has("x-other"))
	assert.False(t, trusted.Has("cookie"))
}

func TestSortedPairsOrderIndependent(t *testing.T) {

	a := New("b", "2", "a", "1", "a", "0")
	b := New("a", "0", "a", "1", "b", "2")

	assert.Equal(t, a.SortedPairs(), b.SortedPairs())
}
