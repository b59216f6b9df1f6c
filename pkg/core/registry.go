package core

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is an immutable set of block schemas keyed by block type.
//
// A Registry is built once at startup and shared read-only by the validator,
// the renderer and the HTTP layer, so it is safe for concurrent use without
// locking. Use Merge to derive a registry with extra schemas.
type Registry struct {
	schemas map[string]BlockSchema
	order   []string
}

// NewRegistry builds a registry from the given schemas. Duplicate types and
// malformed field specs are rejected.
func NewRegistry(schemas ...BlockSchema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]BlockSchema, len(schemas))}
	for _, s := range schemas {
		if s.Type == "" {
			return nil, fmt.Errorf("block schema with empty type")
		}
		if _, exists := r.schemas[s.Type]; exists {
			return nil, fmt.Errorf("block type %s already registered", s.Type)
		}
		if err := checkFields(s.Fields, s.Type); err != nil {
			return nil, fmt.Errorf("block type %s: %w", s.Type, err)
		}
		r.schemas[s.Type] = s
		r.order = append(r.order, s.Type)
	}
	sort.Strings(r.order)
	return r, nil
}

func checkFields(fields []Field, path string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("%s: field with empty name", path)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%s: duplicate field %s", path, f.Name)
		}
		seen[f.Name] = struct{}{}
		if err := checkSpec(f.Spec, path+"."+f.Name); err != nil {
			return err
		}
	}
	return nil
}

func checkSpec(spec FieldSpec, path string) error {
	if !spec.Kind.Valid() {
		return fmt.Errorf("%s: unknown kind %q", path, spec.Kind)
	}
	switch spec.Kind {
	case KindArray:
		if spec.Items == nil {
			return fmt.Errorf("%s: array without item spec", path)
		}
		return checkSpec(*spec.Items, path+"[]")
	case KindObject:
		return checkFields(spec.Children, path)
	}
	return nil
}

// Lookup returns the schema registered for blockType. Unknown types report
// false; Lookup never fails otherwise.
func (r *Registry) Lookup(blockType string) (BlockSchema, bool) {
	if r == nil {
		return BlockSchema{}, false
	}
	s, ok := r.schemas[blockType]
	return s, ok
}

// Types returns the registered block types sorted by name.
func (r *Registry) Types() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Schemas returns all schemas sorted by type.
func (r *Registry) Schemas() []BlockSchema {
	if r == nil {
		return nil
	}
	out := make([]BlockSchema, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.schemas[t])
	}
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Merge returns a new registry holding r's schemas plus extra. A type that
// already exists in r is an error; built-ins cannot be replaced.
func (r *Registry) Merge(extra ...BlockSchema) (*Registry, error) {
	all := append(r.Schemas(), extra...)
	return NewRegistry(all...)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(BuiltinBlocks()...)
	if err != nil {
		panic(fmt.Sprintf("invalid builtin blocks: %v", err))
	}
	return r
})

// DefaultRegistry returns the shared registry of built-in editor blocks.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}
