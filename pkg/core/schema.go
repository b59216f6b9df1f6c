package core

import (
	"sort"
	"strings"
)

// Kind is the runtime shape a field value must have.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindInteger, KindBoolean, KindArray, KindObject:
		return true
	}
	return false
}

// TagRule allows one HTML element and, optionally, a set of its attributes.
type TagRule struct {
	Tag        string   `json:"tag" yaml:"tag"`
	Attributes []string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Tag is shorthand for building a TagRule.
func Tag(name string, attributes ...string) TagRule {
	return TagRule{Tag: name, Attributes: attributes}
}

// AllowedTags describes which markup survives rendering of a string field.
//
// A nil *AllowedTags strips all markup. Any passes content through untouched.
// Otherwise only the listed elements (and their listed attributes) are kept.
type AllowedTags struct {
	Any   bool
	Rules []TagRule
}

// AnyTags allows unrestricted HTML.
func AnyTags() *AllowedTags {
	return &AllowedTags{Any: true}
}

// Tags builds an explicit allow-list.
func Tags(rules ...TagRule) *AllowedTags {
	return &AllowedTags{Rules: rules}
}

// Key returns a canonical representation of the allow-list, stable across
// rule and attribute ordering. It is used to cache sanitizer policies.
func (a *AllowedTags) Key() string {
	if a == nil || (!a.Any && len(a.Rules) == 0) {
		return "none"
	}
	if a.Any {
		return "*"
	}

	merged := make(map[string]map[string]struct{})
	for _, r := range a.Rules {
		tag := strings.ToLower(strings.TrimSpace(r.Tag))
		if tag == "" {
			continue
		}
		if merged[tag] == nil {
			merged[tag] = make(map[string]struct{})
		}
		for _, attr := range r.Attributes {
			merged[tag][strings.ToLower(strings.TrimSpace(attr))] = struct{}{}
		}
	}

	tags := make([]string, 0, len(merged))
	for tag := range merged {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		attrs := make([]string, 0, len(merged[tag]))
		for attr := range merged[tag] {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)
		if len(attrs) == 0 {
			parts = append(parts, tag)
			continue
		}
		parts = append(parts, tag+"["+strings.Join(attrs, "|")+"]")
	}
	return strings.Join(parts, ",")
}

// FieldSpec is the validation rule for one field. It is recursive: arrays
// describe their elements with Items and objects list their Children.
//
// Fields are required unless Optional is set.
type FieldSpec struct {
	Kind          Kind
	Optional      bool
	AllowedValues []any
	AllowedTags   *AllowedTags
	Items         *FieldSpec
	Children      []Field
}

// Field is a named FieldSpec. Children and block fields are ordered slices so
// validation visits them in declaration order.
type Field struct {
	Name string
	Spec FieldSpec
}

// Required reports whether the field must be present.
func (f FieldSpec) Required() bool { return !f.Optional }

// Child returns the spec of the named child field.
func (f FieldSpec) Child(name string) (FieldSpec, bool) {
	for _, c := range f.Children {
		if c.Name == name {
			return c.Spec, true
		}
	}
	return FieldSpec{}, false
}

// String returns a required string field spec.
func String() FieldSpec { return FieldSpec{Kind: KindString} }

// Integer returns a required integer field spec.
func Integer() FieldSpec { return FieldSpec{Kind: KindInteger} }

// Boolean returns a required boolean field spec.
func Boolean() FieldSpec { return FieldSpec{Kind: KindBoolean} }

// ArrayOf returns a required array whose elements all satisfy item.
func ArrayOf(item FieldSpec) FieldSpec {
	return FieldSpec{Kind: KindArray, Items: &item}
}

// Object returns a required structured object with the given children.
func Object(children ...Field) FieldSpec {
	return FieldSpec{Kind: KindObject, Children: children}
}

// Named pairs a field name with its spec.
func Named(name string, spec FieldSpec) Field {
	return Field{Name: name, Spec: spec}
}

// AsOptional returns a copy of the spec that may be absent.
func (f FieldSpec) AsOptional() FieldSpec {
	f.Optional = true
	return f
}

// OneOf returns a copy of the spec restricted to the given values.
func (f FieldSpec) OneOf(values ...any) FieldSpec {
	f.AllowedValues = values
	return f
}

// WithTags returns a copy of the spec with the given markup allow-list.
func (f FieldSpec) WithTags(tags *AllowedTags) FieldSpec {
	f.AllowedTags = tags
	return f
}

// ToolSettings is editor tool metadata carried through to the client-side
// tools configuration. The server never interprets it.
type ToolSettings struct {
	Class         string         `json:"class,omitempty" yaml:"class"`
	Shortcut      string         `json:"shortcut,omitempty" yaml:"shortcut"`
	InlineToolbar bool           `json:"inlineToolbar,omitempty" yaml:"inlineToolbar"`
	Config        map[string]any `json:"config,omitempty" yaml:"config"`
}

// BlockSchema describes one block type: how its data is validated, which
// template renders it and which client assets the editor needs for it.
type BlockSchema struct {
	Type       string
	Fields     []Field
	TemplateID string
	Scripts    []string
	Settings   ToolSettings
}

// Inline reports whether the schema describes an inline tool (no data, no
// template) rather than a block.
func (s BlockSchema) Inline() bool {
	return s.TemplateID == "" && len(s.Fields) == 0
}
