package gqlgate

import (
	"github.com/gqlgate/gqlgate/internal/platform/dispatch"
	"github.com/gqlgate/gqlgate/internal/platform/headers"
	"github.com/gqlgate/gqlgate/internal/platform/operations"
	"github.com/gqlgate/gqlgate/internal/platform/reqcache"
	"github.com/gqlgate/gqlgate/internal/platform/validator"
)

// Re-exported core types so embedders never import internal packages.
type (
	Descriptor = operations.Descriptor
	Kind       = operations.Kind
	Behavior   = operations.Behavior

	ValidateFunc = operations.ValidateFunc
	OverrideFunc = operations.OverrideFunc

	NotFoundError   = operations.NotFoundError
	ValidationError = operations.ValidationError

	Headers = headers.Bundle

	Transport        = dispatch.Transport
	UpstreamResponse = dispatch.Response

	KeyFunc = reqcache.KeyFunc

	OperationIssue = validator.OperationIssue
)

const (
	KindQuery        = operations.KindQuery
	KindMutation     = operations.KindMutation
	KindSubscription = operations.KindSubscription
)

// NewHeaders builds a header bundle from alternating name/value arguments.
func NewHeaders(nv ...string) Headers {
	return headers.New(nv...)
}

// Invalid builds a ValidationError for use inside validators.
func Invalid(format string, args ...interface{}) error {
	return operations.Invalid(format, args...)
}

// IsNotFound reports whether err means an unregistered operation name.
func IsNotFound(err error) bool {
	return operations.IsNotFound(err)
}

// IsValidation reports whether err means rejected client input.
func IsValidation(err error) bool {
	return operations.IsValidation(err)
}

// LoadManifest reads an operation catalog from a YAML manifest file.
func LoadManifest(path string) ([]Descriptor, error) {
	return operations.LoadManifest(path)
}

// ParseManifest parses an operation catalog from YAML bytes.
func ParseManifest(data []byte) ([]Descriptor, error) {
	return operations.ParseManifest(data)
}
