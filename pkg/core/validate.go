package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingField is returned when a required field is absent or null.
	ErrMissingField = errors.New("missing field")

	// ErrTypeMismatch is returned when a value does not have the declared kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidEnum is returned when a value is not one of the allowed values.
	ErrInvalidEnum = errors.New("invalid value")

	// ErrUnknownBlockType is returned when a block type has no schema.
	ErrUnknownBlockType = errors.New("unknown block type")
)

// ValidationError describes the first field that failed validation.
//
// Path addresses the field inside the block data using dots for object
// children and brackets for array elements, e.g. "items[1].checked". When
// produced by ValidateDocument the path is prefixed with the block index.
type ValidationError struct {
	Kind     error
	Path     string
	Expected Kind
	Actual   string
	Value    any
	Allowed  []any
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrMissingField:
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	case ErrTypeMismatch:
		return fmt.Sprintf("%s: %s: expected %s, got %s", e.Path, e.Kind, e.Expected, e.Actual)
	case ErrInvalidEnum:
		return fmt.Sprintf("%s: %s %s, allowed %s", e.Path, e.Kind, FormatValue(e.Value), formatAllowed(e.Allowed))
	case ErrUnknownBlockType:
		return fmt.Sprintf("%s: %s %s", e.Path, e.Kind, FormatValue(e.Value))
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Kind)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func formatAllowed(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Validate checks data against the schema's fields in declaration order and
// returns the first failure. Data is never modified.
//
// Keys present in data but not declared by the schema are ignored. String
// allow-lists are applied at render time, not here.
func Validate(schema BlockSchema, data map[string]any) error {
	for _, f := range schema.Fields {
		value, ok := data[f.Name]
		if err := validateField(f.Spec, f.Name, value, ok); err != nil {
			return err
		}
	}
	return nil
}

func validateField(spec FieldSpec, path string, value any, present bool) error {
	if !present || value == nil {
		if spec.Required() {
			return &ValidationError{Kind: ErrMissingField, Path: path, Expected: spec.Kind}
		}
		return nil
	}
	return validateValue(spec, path, value)
}

func validateValue(spec FieldSpec, path string, value any) error {
	if !matchesKind(spec.Kind, value) {
		return &ValidationError{
			Kind:     ErrTypeMismatch,
			Path:     path,
			Expected: spec.Kind,
			Actual:   KindOf(value),
			Value:    value,
		}
	}

	if len(spec.AllowedValues) > 0 && !valueIn(value, spec.AllowedValues) {
		return &ValidationError{
			Kind:     ErrInvalidEnum,
			Path:     path,
			Expected: spec.Kind,
			Value:    value,
			Allowed:  spec.AllowedValues,
		}
	}

	switch spec.Kind {
	case KindArray:
		if spec.Items == nil {
			return nil
		}
		for i, elem := range AsSlice(value) {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			if elem == nil {
				return &ValidationError{
					Kind:     ErrTypeMismatch,
					Path:     elemPath,
					Expected: spec.Items.Kind,
					Actual:   "null",
				}
			}
			if err := validateValue(*spec.Items, elemPath, elem); err != nil {
				return err
			}
		}
	case KindObject:
		obj := AsMap(value)
		for _, child := range spec.Children {
			v, ok := obj[child.Name]
			if err := validateField(child.Spec, path+"."+child.Name, v, ok); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateBlock validates a block against the schema registered for its type.
func ValidateBlock(reg *Registry, b Block) error {
	schema, ok := reg.Lookup(b.Type)
	if !ok {
		return &ValidationError{Kind: ErrUnknownBlockType, Path: "type", Value: b.Type}
	}
	return Validate(schema, b.Data)
}

// ValidateDocument validates every block in order and stops at the first
// failure. Error paths are prefixed with the failing block index, as in
// "blocks[2].items[1].checked".
func ValidateDocument(reg *Registry, doc *Document) error {
	if doc == nil {
		return nil
	}
	for i, b := range doc.Blocks {
		err := ValidateBlock(reg, b)
		if err == nil {
			continue
		}
		var verr *ValidationError
		if errors.As(err, &verr) {
			annotated := *verr
			annotated.Path = fmt.Sprintf("blocks[%d].%s", i, verr.Path)
			return &annotated
		}
		return fmt.Errorf("blocks[%d]: %w", i, err)
	}
	return nil
}
