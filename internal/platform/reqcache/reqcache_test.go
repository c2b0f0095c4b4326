package reqcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gqlgate/gqlgate/internal/platform/headers"
	"github.com/gqlgate/gqlgate/internal/platform/operations"
)

func queryOp(ttl time.Duration) *operations.Descriptor {
	return &operations.Descriptor{
		Name:     "getX",
		Kind:     operations.KindQuery,
		Query:    "query { x }",
		Behavior: operations.Behavior{TTL: ttl},
	}
}

// countingResolver resolves after a small delay so concurrent callers overlap.
func countingResolver(calls *int64, delay time.Duration) operations.ResolveFunc {
	return func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (*operations.Result, error) {
		n := atomic.AddInt64(calls, 1)
		if delay > 0 {
			time.Sleep(delay)
		}
		return &operations.Result{Body: n}, nil
	}
}

func TestDefaultKeyIsOrderIndependent(t *testing.T) {

	keyFn := DefaultKey("")

	h1 := headers.New("authorization", "Bearer a", "x-gqlgate-tenant", "acme")
	h2 := headers.New("x-gqlgate-tenant", "acme", "authorization", "Bearer a")

	k1, err := keyFn("getX", map[string]interface{}{"a": 1, "b": 2}, h1)
	require.NoError(t, err)
	k2, err := keyFn("getX", map[string]interface{}{"b": 2, "a": 1}, h2)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

func TestDefaultKeySeparatesAuthContexts(t *testing.T) {

	keyFn := DefaultKey("")
	vars := map[string]interface{}{"id": 1}

	k1, err := keyFn("getX", vars, headers.New("authorization", "Bearer a"))
	require.NoError(t, err)
	k2, err := keyFn("getX", vars, headers.New("authorization", "Bearer b"))
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestDefaultKeyIgnoresUntrustedHeaders(t *testing.T) {

	keyFn := DefaultKey("")

	k1, err := keyFn("getX", nil, headers.New("authorization", "Bearer a", "user-agent", "curl"))
	require.NoError(t, err)
	k2, err := keyFn("getX", nil, headers.New("authorization", "Bearer a", "user-agent", "wget"))
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

func TestWrapDeduplicatesConcurrentCalls(t *testing.T) {

	store := New(Options{})
	var calls int64

	resolve := store.Wrap(queryOp(5*time.Second), countingResolver(&calls, 50*time.Millisecond))
	hdrs := headers.New("authorization", "Bearer a")
	vars := map[string]interface{}{"id": 1}

	const workers = 16
	results := make([]interface{}, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := resolve(context.Background(), vars, hdrs)
			if assert.NoError(t, err) {
				results[i] = res.Body
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent identical requests must share one execution")
	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestWrapServesCachedValueWithinTTL(t *testing.T) {

	store := New(Options{})
	var calls int64

	resolve := store.Wrap(queryOp(5*time.Second), countingResolver(&calls, 0))
	hdrs := headers.New("authorization", "Bearer a")

	first, err := resolve(context.Background(), nil, hdrs)
	require.NoError(t, err)
	second, err := resolve(context.Background(), nil, hdrs)
	require.NoError(t, err)

	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int64(1), calls)
}

func TestWrapIsolatesAuthorizationContexts(t *testing.T) {

	store := New(Options{})
	var calls int64

	resolve := store.Wrap(queryOp(5*time.Second), countingResolver(&calls, 20*time.Millisecond))
	vars := map[string]interface{}{"id": 1}

	var wg sync.WaitGroup
	var bodyA, bodyB interface{}

	wg.Add(2)
	go func() {
		defer wg.Done()
		res, err := resolve(context.Background(), vars, headers.New("authorization", "Bearer a"))
		if assert.NoError(t, err) {
			bodyA = res.Body
		}
	}()
	go func() {
		defer wg.Done()
		res, err := resolve(context.Background(), vars, headers.New("authorization", "Bearer b"))
		if assert.NoError(t, err) {
			bodyB = res.Body
		}
	}()
	wg.Wait()

	assert.Equal(t, int64(2), atomic.LoadInt64(&calls), "differing auth contexts must never share an execution")
	assert.NotEqual(t, bodyA, bodyB)
}

func TestWrapExpiresAfterTTL(t *testing.T) {

	store := New(Options{})
	var calls int64

	resolve := store.Wrap(queryOp(50*time.Millisecond), countingResolver(&calls, 0))
	hdrs := headers.New("authorization", "Bearer a")

	_, err := resolve(context.Background(), nil, hdrs)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	_, err = resolve(context.Background(), nil, hdrs)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls, "a call after the TTL window must resolve again")
}

func TestWrapNeverCachesErrors(t *testing.T) {

	store := New(Options{})
	var calls int64

	resolve := store.Wrap(queryOp(5*time.Second), func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (*operations.Result, error) {
		if atomic.AddInt64(&calls, 1) == 1 {
			return nil, assert.AnError
		}
		return &operations.Result{Body: "ok"}, nil
	})

	_, err := resolve(context.Background(), nil, headers.Bundle{})
	require.Error(t, err)

	res, err := resolve(context.Background(), nil, headers.Bundle{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Body)
	assert.Equal(t, int64(2), calls)
}

func TestMutationsAreNeverWrapped(t *testing.T) {

	store := New(Options{DefaultTTL: 5 * time.Second})
	var calls int64

	op := &operations.Descriptor{
		Name:     "createX",
		Kind:     operations.KindMutation,
		Query:    "mutation { createX { id } }",
		Behavior: operations.Behavior{TTL: 5 * time.Second},
	}

	resolve := store.Wrap(op, countingResolver(&calls, 0))
	hdrs := headers.New("authorization", "Bearer a")

	_, err := resolve(context.Background(), nil, hdrs)
	require.NoError(t, err)
	_, err = resolve(context.Background(), nil, hdrs)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls, "mutations must not be deduplicated or cached")
}

func TestDefaultTTLAppliesToUnconfiguredQueries(t *testing.T) {

	store := New(Options{DefaultTTL: 5 * time.Second})

	assert.Equal(t, 5*time.Second, store.TTLFor(queryOp(0)))
	assert.Equal(t, 10*time.Second, store.TTLFor(queryOp(10*time.Second)))

	// zero default leaves unconfigured queries uncached
	uncached := New(Options{})
	assert.Equal(t, time.Duration(0), uncached.TTLFor(queryOp(0)))
}
