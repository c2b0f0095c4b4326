package operations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
operations:
  - name: getUser
    kind: query
    query: "query getUser($id: ID!) { user(id: $id) { id } }"
    behavior:
      ttl: 30
      audit: true
  - name: createUser
    kind: mutation
    query: "mutation createUser($input: UserInput!) { createUser(input: $input) { id } }"
`

func TestParseManifest(t *testing.T) {

	descs, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)
	require.Len(t, descs, 2)

	getUser := descs[0]
	assert.Equal(t, "getUser", getUser.Name)
	assert.Equal(t, KindQuery, getUser.Kind)
	assert.Equal(t, 30*time.Second, getUser.Behavior.TTL)
	assert.True(t, getUser.Behavior.Cacheable())
	assert.Equal(t, true, getUser.Behavior.Extra["audit"])

	createUser := descs[1]
	assert.Equal(t, KindMutation, createUser.Kind)
	assert.Equal(t, time.Duration(0), createUser.Behavior.TTL)
	assert.False(t, createUser.Behavior.Cacheable())
	assert.Nil(t, createUser.Behavior.Extra)
}

func TestParseManifestErrors(t *testing.T) {

	tests := []struct {
		name     string
		manifest string
	}{
		{
			name:     "empty manifest",
			manifest: "operations: []",
		},
		{
			name: "unknown kind",
			manifest: `
operations:
  - name: getX
    kind: fetch
    query: "query { x }"
`,
		},
		{
			name: "ttl not an integer",
			manifest: `
operations:
  - name: getX
    kind: query
    query: "query { x }"
    behavior:
      ttl: "30s"
`,
		},
		{
			name: "negative ttl",
			manifest: `
operations:
  - name: getX
    kind: query
    query: "query { x }"
    behavior:
      ttl: -5
`,
		},
		{
			name:     "not yaml",
			manifest: "{{nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.manifest))
			assert.Error(t, err)
		})
	}
}

func TestManifestFeedsRegistry(t *testing.T) {

	descs, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)

	r, err := NewRegistry(descs)
	require.NoError(t, err)

	op, err := r.Lookup("getUser")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, op.Behavior.TTL)
}
