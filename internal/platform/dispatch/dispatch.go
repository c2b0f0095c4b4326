package dispatch

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/gqlgate/gqlgate/internal/platform/headers"
)

// Transport sends a serialized GraphQL request body to the upstream and
// returns its raw response. It must not retry or cache; retries,
// circuit-breaking and timeouts belong to the transport collaborator behind
// this function, not to the proxy core.
type Transport func(ctx context.Context, body []byte, hdrs headers.Bundle) (*Response, error)

// Response is the upstream reply: the raw body plus the upstream response
// headers (projected later by the facade's header-copy policy).
type Response struct {
	Body    json.RawMessage
	Headers headers.Bundle
}

// Dispatcher builds upstream request payloads and hands them to the injected
// transport. Upstream GraphQL error payloads are data, not dispatch faults.
type Dispatcher struct {
	transport Transport
}

func New(transport Transport) *Dispatcher {
	return &Dispatcher{transport: transport}
}

// Dispatch serializes {query, variables} and forwards it with sanitized
// headers. The variables key is omitted entirely when vars is nil; a JSON
// null is never sent. Transport errors propagate unmodified.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, vars map[string]interface{}, hdrs headers.Bundle) (*Response, error) {
	payload := map[string]interface{}{"query": query}
	if vars != nil {
		payload["variables"] = vars
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling upstream request body")
	}

	return d.transport(ctx, body, headers.SanitizeOutbound(hdrs))
}
