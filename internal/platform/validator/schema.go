package validator

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/wundergraph/graphql-go-tools/pkg/astprinter"
	"github.com/wundergraph/graphql-go-tools/pkg/graphql"
	"github.com/wundergraph/graphql-go-tools/pkg/introspection"

	"github.com/gqlgate/gqlgate/internal/platform/dispatch"
	"github.com/gqlgate/gqlgate/internal/platform/headers"
	"github.com/gqlgate/gqlgate/internal/platform/operations"
)

const introspectionQuery = `
	query {
	  __schema {
		queryType { name }
		mutationType { name }
		subscriptionType { name }
		types {
		  ...FullType
		}
		directives {
		  name
		  locations
		  args {
			...InputValue
		  }
		}
	  }
	}
	fragment FullType on __Type {
	  kind
	  name
	  fields(includeDeprecated: true) {
		name
		args {
		  ...InputValue
		}
		type {
		  ...TypeRef
		}
		isDeprecated
		deprecationReason
	  }
	  inputFields {
		...InputValue
	  }
	  interfaces {
		...TypeRef
	  }
	  enumValues(includeDeprecated: true) {
		name
		isDeprecated
		deprecationReason
	  }
	  possibleTypes {
		...TypeRef
	  }
	}
	fragment InputValue on __InputValue {
	  name
	  type { ...TypeRef }
	  defaultValue
	}
	fragment TypeRef on __Type {
	  kind
	  name
	  ofType {
		kind
		name
		ofType {
		  kind
		  name
		  ofType {
			kind
			name
			ofType {
			  kind
			  name
			  ofType {
				kind
				name
				ofType {
				  kind
				  name
				  ofType {
					kind
					name
				  }
				}
			  }
			}
		  }
		}
	  }
	}
  `

// FetchUpstreamSchema introspects the upstream through the regular dispatch
// path and rebuilds a schema from the reply. Accept is forced to JSON by the
// outbound sanitizer; accept-encoding is left as the caller set it.
func FetchUpstreamSchema(ctx context.Context, d *dispatch.Dispatcher, hdrs headers.Bundle) (*graphql.Schema, error) {

	resp, err := d.Dispatch(ctx, introspectionQuery, nil, hdrs)
	if err != nil {
		return nil, errors.Wrap(err, "introspection dispatch")
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, errors.Wrap(err, "parsing introspection response")
	}
	if len(envelope.Data) == 0 {
		return nil, errors.Errorf("introspection response carries no data: %s", envelope.Errors)
	}

	converter := introspection.JsonConverter{}
	doc, err := converter.GraphQLDocument(bytes.NewReader(envelope.Data))
	if err != nil {
		return nil, errors.Wrap(err, "converting introspection JSON")
	}

	sdl, err := astprinter.PrintString(doc, nil)
	if err != nil {
		return nil, errors.Wrap(err, "printing upstream schema")
	}

	schema, err := graphql.NewSchemaFromString(sdl)
	if err != nil {
		return nil, errors.Wrap(err, "building upstream schema")
	}

	return schema, nil
}

// OperationIssue is one registered operation whose query text does not
// validate against the upstream schema.
type OperationIssue struct {
	Operation string
	Err       error
}

// ValidateOperations statically checks every registered operation against the
// schema. Overridden operations never reach the upstream so they are skipped.
// Issues are collected and returned, not thrown.
func ValidateOperations(registry *operations.Registry, schema *graphql.Schema) []OperationIssue {

	var issues []OperationIssue

	for _, op := range registry.List() {
		if registry.HasOverride(op.Name) {
			continue
		}

		request := graphql.Request{Query: op.Query}

		normResult, err := request.Normalize(schema)
		if err != nil {
			issues = append(issues, OperationIssue{Operation: op.Name, Err: err})
			continue
		}
		if !normResult.Successful {
			issues = append(issues, OperationIssue{Operation: op.Name, Err: normResult.Errors})
			continue
		}

		result, err := request.ValidateForSchema(schema)
		if err != nil {
			issues = append(issues, OperationIssue{Operation: op.Name, Err: err})
			continue
		}
		if !result.Valid {
			issues = append(issues, OperationIssue{Operation: op.Name, Err: result.Errors})
		}
	}

	return issues
}
