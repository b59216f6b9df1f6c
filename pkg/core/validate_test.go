package core

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func lookup(t *testing.T, blockType string) BlockSchema {
	t.Helper()
	schema, ok := DefaultRegistry().Lookup(blockType)
	if !ok {
		t.Fatalf("%s not registered", blockType)
	}
	return schema
}

func asValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T: %v", err, err)
	}
	return verr
}

func TestValidateMissingRequiredField(t *testing.T) {
	err := Validate(lookup(t, "header"), map[string]any{"level": 2})

	verr := asValidationError(t, err)
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("Expected ErrMissingField, got %v", err)
	}
	if verr.Path != "text" {
		t.Errorf("Expected path text, got %q", verr.Path)
	}
}

func TestValidateNullIsAbsent(t *testing.T) {
	err := Validate(lookup(t, "header"), map[string]any{"text": nil, "level": 2})
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("Expected null required field to be missing, got %v", err)
	}

	embed := map[string]any{
		"service": "youtube", "source": "s", "embed": "e",
		"width": 580, "height": 320, "caption": nil,
	}
	if err := Validate(lookup(t, "embed"), embed); err != nil {
		t.Errorf("Null optional caption should be accepted, got %v", err)
	}
}

func TestValidateDeclarationOrder(t *testing.T) {
	// both fields are wrong; the first declared one is reported
	err := Validate(lookup(t, "header"), map[string]any{"text": 5, "level": "x"})
	verr := asValidationError(t, err)
	if verr.Path != "text" {
		t.Errorf("Expected first failure at text, got %q", verr.Path)
	}
	if verr.Expected != KindString || verr.Actual != "integer" {
		t.Errorf("Expected string/integer mismatch, got %s/%s", verr.Expected, verr.Actual)
	}
}

func TestValidateIntegerForms(t *testing.T) {
	schema := lookup(t, "header")
	for _, level := range []any{3, int64(3), 3.0, json.Number("3")} {
		if err := Validate(schema, map[string]any{"text": "t", "level": level}); err != nil {
			t.Errorf("level %#v should be accepted, got %v", level, err)
		}
	}

	err := Validate(schema, map[string]any{"text": "t", "level": 2.5})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Fractional level should be a type mismatch, got %v", err)
	}
	if verr := asValidationError(t, err); verr.Actual != "number" {
		t.Errorf("Expected actual kind number, got %q", verr.Actual)
	}

	err = Validate(schema, map[string]any{"text": "t", "level": json.Number("9")})
	if !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("Level 9 should be an invalid enum, got %v", err)
	}
}

func TestValidateInvalidEnum(t *testing.T) {
	err := Validate(lookup(t, "list"), map[string]any{
		"style": "diagonal",
		"items": []any{"a"},
	})

	verr := asValidationError(t, err)
	if !errors.Is(err, ErrInvalidEnum) {
		t.Fatalf("Expected ErrInvalidEnum, got %v", err)
	}
	if verr.Path != "style" {
		t.Errorf("Expected path style, got %q", verr.Path)
	}
	if verr.Value != "diagonal" {
		t.Errorf("Expected offending value diagonal, got %v", verr.Value)
	}
	if !reflect.DeepEqual(verr.Allowed, []any{"ordered", "unordered"}) {
		t.Errorf("Unexpected allowed values: %v", verr.Allowed)
	}
}

func TestValidateChecklistNested(t *testing.T) {
	schema := lookup(t, "checklist")

	ok := map[string]any{
		"items": []any{
			map[string]any{"text": "a", "checked": true},
			map[string]any{"text": "b", "checked": false},
		},
	}
	if err := Validate(schema, ok); err != nil {
		t.Errorf("Valid checklist rejected: %v", err)
	}

	bad := map[string]any{
		"items": []any{
			map[string]any{"text": "a", "checked": true},
			map[string]any{"text": "b", "checked": "yes"},
		},
	}
	err := Validate(schema, bad)
	verr := asValidationError(t, err)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Expected ErrTypeMismatch, got %v", err)
	}
	if verr.Path != "items[1].checked" {
		t.Errorf("Expected path items[1].checked, got %q", verr.Path)
	}

	// children are optional
	if err := Validate(schema, map[string]any{"items": []any{map[string]any{}}}); err != nil {
		t.Errorf("Empty checklist item should be valid, got %v", err)
	}
}

func TestValidateNestedTable(t *testing.T) {
	schema := lookup(t, "table")

	if err := Validate(schema, map[string]any{
		"content": [][]string{{"a", "b"}, {"c", "d"}},
	}); err != nil {
		t.Errorf("Typed nested slices should validate, got %v", err)
	}

	err := Validate(schema, map[string]any{
		"content": []any{[]any{"a", "b"}, []any{"c", 4}},
	})
	verr := asValidationError(t, err)
	if verr.Path != "content[1][1]" {
		t.Errorf("Expected path content[1][1], got %q", verr.Path)
	}

	err = Validate(schema, map[string]any{"content": []any{nil}})
	verr = asValidationError(t, err)
	if verr.Path != "content[0]" || verr.Actual != "null" {
		t.Errorf("Expected null element at content[0], got %q (%s)", verr.Path, verr.Actual)
	}
}

func TestValidateObjectChildren(t *testing.T) {
	schema := lookup(t, "linkTool")

	err := Validate(schema, map[string]any{
		"link": "https://example.com",
		"meta": map[string]any{
			"title":       "Example",
			"description": "An example",
			"image":       map[string]any{},
		},
	})
	verr := asValidationError(t, err)
	if verr.Path != "meta.image.url" {
		t.Errorf("Expected path meta.image.url, got %q", verr.Path)
	}

	err = Validate(schema, map[string]any{"link": "x", "meta": []any{"not", "an", "object"}})
	verr = asValidationError(t, err)
	if verr.Path != "meta" || verr.Expected != KindObject {
		t.Errorf("Expected object mismatch at meta, got %s at %q", verr.Expected, verr.Path)
	}
}

func TestValidateDoesNotMutate(t *testing.T) {
	data := map[string]any{
		"style": "ordered",
		"items": []any{"<b>a</b>", "b"},
	}
	before := map[string]any{
		"style": "ordered",
		"items": []any{"<b>a</b>", "b"},
	}
	if err := Validate(lookup(t, "list"), data); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(data, before) {
		t.Errorf("Validate modified data: %v", data)
	}
}

func TestValidateIgnoresUndeclaredKeys(t *testing.T) {
	err := Validate(lookup(t, "paragraph"), map[string]any{"text": "hi", "extra": 1})
	if err != nil {
		t.Errorf("Undeclared keys should be ignored, got %v", err)
	}
	if err := Validate(lookup(t, "delimiter"), nil); err != nil {
		t.Errorf("delimiter has no fields, got %v", err)
	}
}

func TestValidateDocument(t *testing.T) {
	reg := DefaultRegistry()

	doc := &Document{Blocks: []Block{
		{Type: "paragraph", Data: map[string]any{"text": "hi"}},
		{Type: "delimiter"},
		{Type: "checklist", Data: map[string]any{
			"items": []any{
				map[string]any{"text": "a", "checked": true},
				map[string]any{"text": "b", "checked": 1},
			},
		}},
	}}

	err := ValidateDocument(reg, doc)
	verr := asValidationError(t, err)
	if verr.Path != "blocks[2].items[1].checked" {
		t.Errorf("Expected path blocks[2].items[1].checked, got %q", verr.Path)
	}

	doc.Blocks[2] = Block{Type: "unknownType", Data: map[string]any{}}
	err = ValidateDocument(reg, doc)
	if !errors.Is(err, ErrUnknownBlockType) {
		t.Errorf("Expected ErrUnknownBlockType, got %v", err)
	}
	if verr := asValidationError(t, err); verr.Path != "blocks[2].type" {
		t.Errorf("Expected path blocks[2].type, got %q", verr.Path)
	}

	if err := ValidateDocument(reg, &Document{}); err != nil {
		t.Errorf("Empty document should validate, got %v", err)
	}
}

func TestValidationErrorMessages(t *testing.T) {
	tests := []struct {
		err      *ValidationError
		expected string
	}{
		{&ValidationError{Kind: ErrMissingField, Path: "text"}, "text: missing field"},
		{&ValidationError{Kind: ErrTypeMismatch, Path: "level", Expected: KindInteger, Actual: "string"}, "level: type mismatch: expected integer, got string"},
		{&ValidationError{Kind: ErrInvalidEnum, Path: "style", Value: "diagonal", Allowed: []any{"ordered", "unordered"}}, `style: invalid value "diagonal", allowed ["ordered", "unordered"]`},
		{&ValidationError{Kind: ErrUnknownBlockType, Path: "type", Value: "foo"}, `type: unknown block type "foo"`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}
