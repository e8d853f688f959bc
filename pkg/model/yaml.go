package model

import (
	"fmt"
)

// UnmarshalYAML accepts the two include shapes: a bare context identifier,
// or an identifier mapped to an attribute block. "empty" is the only
// recognized attribute.
func (inc *Include) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		inc.ContextID = s
		inc.Empty = false
		return nil
	}
	var m map[string]map[string]interface{}
	if err := unmarshal(&m); err != nil {
		return fmt.Errorf("include entry must be a context id or a context id with attributes: %v", err)
	}
	if len(m) != 1 {
		return fmt.Errorf("include entry must name exactly one context, got %d", len(m))
	}
	for contextID, attrs := range m {
		inc.ContextID = contextID
		inc.Empty = false
		for name, value := range attrs {
			if name != "empty" {
				return fmt.Errorf("unknown include attribute %q for context %q", name, contextID)
			}
			empty, ok := value.(bool)
			if !ok {
				return fmt.Errorf("include attribute \"empty\" for context %q must be a boolean", contextID)
			}
			inc.Empty = empty
		}
	}
	return nil
}

// MarshalYAML emits the compact string form unless attributes are set
func (inc Include) MarshalYAML() (interface{}, error) {
	if !inc.Empty {
		return inc.ContextID, nil
	}
	return map[string]map[string]interface{}{
		inc.ContextID: {"empty": true},
	}, nil
}

type dependencyFields struct {
	ID       string   `yaml:"id"`
	Version  int      `yaml:"version"`
	Excludes []string `yaml:"excludes"`
}

// UnmarshalYAML accepts the three dependency shapes: a bare identifier, an
// {id, version} mapping, or an [id, version] pair.
func (dep *DependencyDescriptor) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*dep = DependencyDescriptor{ID: s}
		return nil
	}
	var pair []interface{}
	if err := unmarshal(&pair); err == nil {
		if len(pair) < 1 || len(pair) > 2 {
			return fmt.Errorf("dependency pair must have one or two elements, got %d", len(pair))
		}
		id, ok := pair[0].(string)
		if !ok {
			return fmt.Errorf("dependency pair id must be a string, got %T", pair[0])
		}
		*dep = DependencyDescriptor{ID: id}
		if len(pair) == 2 {
			version, ok := pair[1].(int)
			if !ok {
				return fmt.Errorf("dependency pair version must be an integer, got %T", pair[1])
			}
			dep.Version = version
		}
		return nil
	}
	var fields dependencyFields
	if err := unmarshal(&fields); err != nil {
		return fmt.Errorf("dependency entry must be an id, an [id, version] pair, or an {id, version} mapping: %v", err)
	}
	*dep = DependencyDescriptor{ID: fields.ID, Version: fields.Version, Excludes: fields.Excludes}
	return nil
}

// MarshalYAML emits the mapping form, the only shape that can carry all
// fields
func (dep DependencyDescriptor) MarshalYAML() (interface{}, error) {
	out := map[string]interface{}{"id": dep.ID}
	if dep.Version != 0 {
		out["version"] = dep.Version
	}
	if len(dep.Excludes) != 0 {
		out["excludes"] = dep.Excludes
	}
	return out, nil
}
