package operations

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Kind is the GraphQL operation kind of a registered descriptor.
type Kind string

const (
	KindQuery        Kind = "query"
	KindMutation     Kind = "mutation"
	KindSubscription Kind = "subscription"
)

// ParseKind validates a manifest-supplied kind value.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindQuery, KindMutation, KindSubscription:
		return Kind(s), nil
	}
	return "", errors.Errorf("unknown operation kind %q", s)
}

// Behavior carries per-operation policy hints. TTL is the only hint the proxy
// acts on; unrecognized manifest keys are preserved in Extra so override
// handlers and future policies can read them.
type Behavior struct {
	TTL   time.Duration
	Extra map[string]interface{}
}

// Cacheable reports whether the descriptor opted into response caching.
func (b Behavior) Cacheable() bool {
	return b.TTL > 0
}

// Descriptor is an immutable registered operation: the only queries the proxy
// will ever send upstream are the Query texts of registered descriptors.
type Descriptor struct {
	Name     string
	Kind     Kind
	Query    string
	Behavior Behavior
}

type entry struct {
	desc *Descriptor
	res  resolution
}

// Registry maps operation names to descriptors. It is built once at startup
// and read-mostly afterwards; the only mutation is validator/override slot
// registration, guarded by mu.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []*Descriptor
}

// NewRegistry builds the registry. Duplicate names and malformed descriptors
// are construction-time failures.
func NewRegistry(descs []Descriptor) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]*entry, len(descs)),
	}

	for i := range descs {
		d := descs[i]
		if d.Name == "" {
			return nil, errors.New("operation with empty name")
		}
		if d.Query == "" {
			return nil, errors.Errorf("operation %q has empty query text", d.Name)
		}
		if _, err := ParseKind(string(d.Kind)); err != nil {
			return nil, errors.Wrapf(err, "operation %q", d.Name)
		}
		if _, ok := r.entries[d.Name]; ok {
			return nil, errors.Errorf("duplicate operation name %q", d.Name)
		}

		r.entries[d.Name] = &entry{desc: &d}
		r.order = append(r.order, &d)
	}

	return r, nil
}

// Lookup returns the descriptor for the name or a NotFoundError.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, &NotFoundError{Operation: name}
	}
	return e.desc, nil
}

// List returns all descriptors in registration order.
func (r *Registry) List() []*Descriptor {
	out := make([]*Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// SetValidation installs (or replaces) the validator slot of the operation.
func (r *Registry) SetValidation(name string, fn ValidateFunc) error {
	e, ok := r.entries[name]
	if !ok {
		return &NotFoundError{Operation: name}
	}

	r.mu.Lock()
	e.res.validate = fn
	r.mu.Unlock()
	return nil
}

// SetOverride installs (or replaces) the override slot of the operation.
func (r *Registry) SetOverride(name string, fn OverrideFunc) error {
	e, ok := r.entries[name]
	if !ok {
		return &NotFoundError{Operation: name}
	}

	r.mu.Lock()
	e.res.override = fn
	r.mu.Unlock()
	return nil
}

// HasOverride reports whether the operation currently resolves locally. The
// schema check utility skips such operations since they never reach upstream.
func (r *Registry) HasOverride(name string) bool {
	e, ok := r.entries[name]
	if !ok {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return e.res.override != nil
}

func (r *Registry) snapshot(name string) (*Descriptor, resolution, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, resolution{}, &NotFoundError{Operation: name}
	}

	r.mu.RLock()
	res := e.res
	r.mu.RUnlock()
	return e.desc, res, nil
}
