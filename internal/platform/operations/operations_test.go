package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gqlgate/gqlgate/internal/platform/headers"
)

func testCatalog() []Descriptor {
	return []Descriptor{
		{Name: "getUser", Kind: KindQuery, Query: "query getUser($id: ID!) { user(id: $id) { id } }"},
		{Name: "createUser", Kind: KindMutation, Query: "mutation createUser($input: UserInput!) { createUser(input: $input) { id } }"},
	}
}

func TestNewRegistryRejectsMalformedDescriptors(t *testing.T) {

	tests := []struct {
		name  string
		descs []Descriptor
	}{
		{
			name:  "empty name",
			descs: []Descriptor{{Name: "", Kind: KindQuery, Query: "query { x }"}},
		},
		{
			name:  "empty query",
			descs: []Descriptor{{Name: "getX", Kind: KindQuery, Query: ""}},
		},
		{
			name:  "unknown kind",
			descs: []Descriptor{{Name: "getX", Kind: Kind("fetch"), Query: "query { x }"}},
		},
		{
			name: "duplicate name",
			descs: []Descriptor{
				{Name: "getX", Kind: KindQuery, Query: "query { x }"},
				{Name: "getX", Kind: KindQuery, Query: "query { x }"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.descs)
			assert.Error(t, err)
		})
	}
}

func TestLookupUnknownOperation(t *testing.T) {

	r, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	_, err = r.Lookup("unknown-op")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
}

func TestListPreservesRegistrationOrder(t *testing.T) {

	r, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "getUser", list[0].Name)
	assert.Equal(t, "createUser", list[1].Name)
}

func TestResolverDispatchesByDefault(t *testing.T) {

	r, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	dispatched := 0
	dispatch := func(ctx context.Context, op *Descriptor, vars map[string]interface{}, hdrs headers.Bundle) (*Result, error) {
		dispatched++
		assert.Equal(t, "getUser", op.Name)
		return &Result{Body: "ok"}, nil
	}

	resolve := r.Resolver("getUser", dispatch)
	res, err := resolve(context.Background(), map[string]interface{}{"id": 1}, headers.Bundle{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Body)
	assert.Equal(t, 1, dispatched)
}

func TestResolverValidatorRejectsBeforeDispatch(t *testing.T) {

	r, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	err = r.SetValidation("getUser", func(ctx context.Context, vars map[string]interface{}, op *Descriptor) error {
		if _, ok := vars["id"]; !ok {
			return Invalid("id is required")
		}
		return nil
	})
	require.NoError(t, err)

	dispatched := 0
	dispatch := func(ctx context.Context, op *Descriptor, vars map[string]interface{}, hdrs headers.Bundle) (*Result, error) {
		dispatched++
		return &Result{Body: "ok"}, nil
	}

	resolve := r.Resolver("getUser", dispatch)

	_, err = resolve(context.Background(), nil, headers.Bundle{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 0, dispatched)

	res, err := resolve(context.Background(), map[string]interface{}{"id": 1}, headers.Bundle{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Body)
	assert.Equal(t, 1, dispatched)
}

func TestResolverOverrideBypassesDispatch(t *testing.T) {

	r, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	err = r.SetOverride("getUser", func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (interface{}, error) {
		return map[string]interface{}{"user": "local"}, nil
	})
	require.NoError(t, err)

	dispatch := func(ctx context.Context, op *Descriptor, vars map[string]interface{}, hdrs headers.Bundle) (*Result, error) {
		t.Fatal("dispatch must not be reached when an override is set")
		return nil, nil
	}

	resolve := r.Resolver("getUser", dispatch)
	res, err := resolve(context.Background(), nil, headers.Bundle{})
	require.NoError(t, err)

	body, ok := res.Body.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"user": "local"}, body["data"])
	assert.Equal(t, 0, res.Headers.Len())
}

func TestResolverValidatedOverride(t *testing.T) {

	r, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	require.NoError(t, r.SetValidation("getUser", func(ctx context.Context, vars map[string]interface{}, op *Descriptor) error {
		return Invalid("always rejected")
	}))
	require.NoError(t, r.SetOverride("getUser", func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (interface{}, error) {
		t.Fatal("override must not run when the validator rejects")
		return nil, nil
	}))

	resolve := r.Resolver("getUser", nil)
	_, err = resolve(context.Background(), nil, headers.Bundle{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSetSlotsOnUnknownOperation(t *testing.T) {

	r, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	err = r.SetValidation("nope", func(ctx context.Context, vars map[string]interface{}, op *Descriptor) error { return nil })
	assert.True(t, IsNotFound(err))

	err = r.SetOverride("nope", func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (interface{}, error) { return nil, nil })
	assert.True(t, IsNotFound(err))
}

func TestHasOverride(t *testing.T) {

	r, err := NewRegistry(testCatalog())
	require.NoError(t, err)

	assert.False(t, r.HasOverride("getUser"))

	require.NoError(t, r.SetOverride("getUser", func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (interface{}, error) {
		return nil, nil
	}))

	assert.True(t, r.HasOverride("getUser"))
	assert.False(t, r.HasOverride("createUser"))
}
