package operations

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// behaviorTTLKey is the one behavior hint the proxy itself acts on.
const behaviorTTLKey = "ttl"

type manifestOperation struct {
	Name     string                 `yaml:"name"`
	Kind     string                 `yaml:"kind"`
	Query    string                 `yaml:"query"`
	Behavior map[string]interface{} `yaml:"behavior"`
}

type manifest struct {
	Operations []manifestOperation `yaml:"operations"`
}

// LoadManifest reads the YAML operation catalog and returns descriptors ready
// for NewRegistry. Manifest errors are fatal at startup, never per-request.
func LoadManifest(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading operations manifest")
	}
	return ParseManifest(data)
}

// ParseManifest parses the manifest body.
func ParseManifest(data []byte) ([]Descriptor, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing operations manifest")
	}

	if len(m.Operations) == 0 {
		return nil, errors.New("operations manifest is empty")
	}

	descs := make([]Descriptor, 0, len(m.Operations))
	for _, mo := range m.Operations {
		kind, err := ParseKind(mo.Kind)
		if err != nil {
			return nil, errors.Wrapf(err, "operation %q", mo.Name)
		}

		behavior, err := parseBehavior(mo.Behavior)
		if err != nil {
			return nil, errors.Wrapf(err, "operation %q", mo.Name)
		}

		descs = append(descs, Descriptor{
			Name:     mo.Name,
			Kind:     kind,
			Query:    mo.Query,
			Behavior: behavior,
		})
	}

	return descs, nil
}

// parseBehavior maps the open behavior bag to the typed Behavior struct. The
// ttl key must be a positive integer number of seconds; everything else is
// kept verbatim in Extra.
func parseBehavior(raw map[string]interface{}) (Behavior, error) {
	var b Behavior

	for k, v := range raw {
		if k != behaviorTTLKey {
			if b.Extra == nil {
				b.Extra = make(map[string]interface{})
			}
			b.Extra[k] = v
			continue
		}

		seconds, ok := v.(int)
		if !ok {
			return b, errors.Errorf("behavior ttl must be an integer number of seconds, got %T", v)
		}
		if seconds < 0 {
			return b, errors.Errorf("behavior ttl must not be negative, got %d", seconds)
		}
		b.TTL = time.Duration(seconds) * time.Second
	}

	return b, nil
}
