// Package gqlgate exposes the GraphQL operation proxy as an embeddable
// library: a fixed catalog of pre-registered operations, per-operation
// validators and overrides, and a deduplicating TTL cache in front of an
// injected upstream transport.
package gqlgate

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gqlgate/gqlgate/internal/platform/dispatch"
	"github.com/gqlgate/gqlgate/internal/platform/headers"
	"github.com/gqlgate/gqlgate/internal/platform/operations"
	"github.com/gqlgate/gqlgate/internal/platform/reqcache"
	"github.com/gqlgate/gqlgate/internal/platform/validator"
)

// Proxy is the public surface of the operation proxy.
type Proxy interface {
	Request(ctx context.Context, name string, vars map[string]interface{}, hdrs Headers) (*Response, error)
	Operation(name string) (*Descriptor, error)
	Operations() []*Descriptor
	AddValidation(name string, fn ValidateFunc) error
	AddOverride(name string, fn OverrideFunc) error
	ValidateOperations(ctx context.Context, hdrs Headers) ([]OperationIssue, error)
}

// Response is what a proxied request returns to the caller: the response body
// and the upstream headers projected through the configured passthrough list.
type Response struct {
	Body    interface{}
	Headers Headers
}

type operationProxy struct {
	registry        *operations.Registry
	dispatcher      *dispatch.Dispatcher
	store           *reqcache.Store
	resolvers       map[string]operations.ResolveFunc
	responseHeaders []string
	log             zerolog.Logger
}

var _ Proxy = (*operationProxy)(nil)

// New builds a proxy over the given operation catalog and upstream transport.
// Duplicate names and malformed descriptors fail construction.
func New(descs []Descriptor, transport Transport, options ...Option) (Proxy, error) {

	cfg := Configuration{
		CacheMaxSize:        reqcache.DefaultMaxSize,
		TrustedHeaderPrefix: headers.DefaultTrustedPrefix,
		ResponseHeaders:     headers.DefaultResponseHeaders,
		Logger:              zerolog.Nop(),
	}
	for _, opt := range options {
		opt(&cfg)
	}

	registry, err := operations.NewRegistry(descs)
	if err != nil {
		return nil, err
	}

	dispatcher := dispatch.New(transport)

	store := reqcache.New(reqcache.Options{
		DefaultTTL:    cfg.DefaultTTL,
		MaxSize:       cfg.CacheMaxSize,
		KeyFunc:       cfg.KeyFunc,
		TrustedPrefix: cfg.TrustedHeaderPrefix,
	})

	responseHeaders := cfg.ResponseHeaders
	if cfg.PassContentLength {
		responseHeaders = append(append([]string(nil), responseHeaders...), "content-length")
	}

	p := &operationProxy{
		registry:        registry,
		dispatcher:      dispatcher,
		store:           store,
		resolvers:       make(map[string]operations.ResolveFunc, len(descs)),
		responseHeaders: responseHeaders,
		log:             cfg.Logger,
	}

	// Resolvers are bound once per operation; the cache wraps the whole
	// resolver so overridden operations honor their TTL too. Slots registered
	// later are read per call inside the resolver.
	dispatchFn := p.dispatchOperation
	for _, desc := range registry.List() {
		resolve := registry.Resolver(desc.Name, dispatchFn)
		p.resolvers[desc.Name] = store.Wrap(desc, resolve)
	}

	return p, nil
}

func (p *operationProxy) dispatchOperation(ctx context.Context, op *operations.Descriptor, vars map[string]interface{}, hdrs headers.Bundle) (*operations.Result, error) {
	resp, err := p.dispatcher.Dispatch(ctx, op.Query, vars, hdrs)
	if err != nil {
		return nil, err
	}
	return &operations.Result{Body: resp.Body, Headers: resp.Headers}, nil
}

// Request resolves a registered operation. Unknown names fail with
// NotFoundError before any validation or dispatch runs.
func (p *operationProxy) Request(ctx context.Context, name string, vars map[string]interface{}, hdrs Headers) (*Response, error) {

	if _, err := p.registry.Lookup(name); err != nil {
		return nil, err
	}

	res, err := p.resolvers[name](ctx, vars, hdrs)
	if err != nil {
		return nil, err
	}

	return &Response{
		Body:    res.Body,
		Headers: headers.Copy(res.Headers, p.responseHeaders...),
	}, nil
}

// Operation returns the descriptor registered under the name.
func (p *operationProxy) Operation(name string) (*Descriptor, error) {
	return p.registry.Lookup(name)
}

// Operations returns all descriptors in registration order.
func (p *operationProxy) Operations() []*Descriptor {
	return p.registry.List()
}

// AddValidation installs a validator for the operation. It replaces any
// previously installed one and takes effect on the next request.
func (p *operationProxy) AddValidation(name string, fn ValidateFunc) error {
	return p.registry.SetValidation(name, fn)
}

// AddOverride installs a local resolution handler for the operation,
// bypassing the upstream entirely.
func (p *operationProxy) AddOverride(name string, fn OverrideFunc) error {
	return p.registry.SetOverride(name, fn)
}

// ValidateOperations fetches the upstream schema through the dispatcher and
// statically checks every non-overridden operation against it. The returned
// issues are advisory; only the schema fetch itself can fail.
func (p *operationProxy) ValidateOperations(ctx context.Context, hdrs Headers) ([]OperationIssue, error) {

	schema, err := validator.FetchUpstreamSchema(ctx, p.dispatcher, hdrs)
	if err != nil {
		return nil, err
	}

	issues := validator.ValidateOperations(p.registry, schema)
	for _, issue := range issues {
		p.log.Warn().Str("operation", issue.Operation).Err(issue.Err).Msg("operation does not validate against the upstream schema")
	}

	return issues, nil
}
