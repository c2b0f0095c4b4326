package operations

import (
	"context"

	"github.com/gqlgate/gqlgate/internal/platform/headers"
)

// ValidateFunc inspects client-supplied variables before anything else runs.
// Returning a *ValidationError rejects the request with the error's message;
// any other non-nil error propagates as an internal failure.
type ValidateFunc func(ctx context.Context, vars map[string]interface{}, op *Descriptor) error

// OverrideFunc resolves an operation locally, bypassing the upstream
// entirely. The returned value is wrapped as {"data": <value>}.
type OverrideFunc func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (interface{}, error)

// DispatchFunc forwards the descriptor's canonical query to the upstream.
// The facade binds it to the remote dispatcher.
type DispatchFunc func(ctx context.Context, op *Descriptor, vars map[string]interface{}, hdrs headers.Bundle) (*Result, error)

// ResolveFunc is a fully bound per-operation resolver, the unit the cache
// layer wraps.
type ResolveFunc func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (*Result, error)

// Result is the canonical response shape flowing back to the facade. Body is
// the raw upstream payload for remote dispatches or {"data": v} for
// overrides; Headers is empty for overrides.
type Result struct {
	Body    interface{}
	Headers headers.Bundle
}

// resolution holds the mutable per-operation slots. Each slot is set at most
// once per registration call and replaced wholesale on re-registration.
type resolution struct {
	validate ValidateFunc
	override OverrideFunc
}

type strategy int

const (
	strategyNone strategy = iota
	strategyValidated
	strategyOverridden
	strategyValidatedOverridden
)

func (res resolution) strategy() strategy {
	switch {
	case res.validate != nil && res.override != nil:
		return strategyValidatedOverridden
	case res.validate != nil:
		return strategyValidated
	case res.override != nil:
		return strategyOverridden
	}
	return strategyNone
}

// Resolver binds a registered operation to its dispatch function. The
// validator/override slots are read from the registry on every call, so
// registrations made while in service take effect immediately.
func (r *Registry) Resolver(name string, dispatch DispatchFunc) ResolveFunc {
	return func(ctx context.Context, vars map[string]interface{}, hdrs headers.Bundle) (*Result, error) {
		op, res, err := r.snapshot(name)
		if err != nil {
			return nil, err
		}

		switch res.strategy() {
		case strategyValidated:
			if err := res.validate(ctx, vars, op); err != nil {
				return nil, err
			}
			return dispatch(ctx, op, vars, hdrs)

		case strategyOverridden:
			return invokeOverride(ctx, res.override, vars, hdrs)

		case strategyValidatedOverridden:
			if err := res.validate(ctx, vars, op); err != nil {
				return nil, err
			}
			return invokeOverride(ctx, res.override, vars, hdrs)

		default:
			return dispatch(ctx, op, vars, hdrs)
		}
	}
}

func invokeOverride(ctx context.Context, fn OverrideFunc, vars map[string]interface{}, hdrs headers.Bundle) (*Result, error) {
	v, err := fn(ctx, vars, hdrs)
	if err != nil {
		return nil, err
	}
	return &Result{Body: map[string]interface{}{"data": v}}, nil
}
