package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BlockSet is the result of loading a blocks file: extra schemas plus the
// template sources they declared inline, keyed by template id.
type BlockSet struct {
	Schemas   []BlockSchema
	Templates map[string]string
}

// The blocks file format:
//
//	blocks:
//	  - type: callout
//	    template: blocks.callout
//	    template_source: |
//	      {{define "blocks.callout"}}<aside>{{.Data.text}}</aside>{{end}}
//	    scripts: [/editorjs/assets/js/tools/callout.js]
//	    settings:
//	      class: Callout
//	      inlineToolbar: true
//	    fields:
//	      text:
//	        type: string
//	        allowed_tags: [b, i, {tag: a, attributes: [href]}]
//	      tone:
//	        type: string
//	        required: false
//	        can_be_only: [info, warning]
//
// Field order in the file is the validation order.
type blocksFile struct {
	Blocks []blockEntry `yaml:"blocks"`
}

type blockEntry struct {
	Type           string       `yaml:"type"`
	Template       string       `yaml:"template"`
	TemplateSource string       `yaml:"template_source"`
	Scripts        []string     `yaml:"scripts"`
	Settings       ToolSettings `yaml:"settings"`
	Fields         yaml.Node    `yaml:"fields"`
}

type fieldEntry struct {
	Type        string     `yaml:"type"`
	Required    *bool      `yaml:"required"`
	CanBeOnly   []any      `yaml:"can_be_only"`
	AllowedTags yaml.Node  `yaml:"allowed_tags"`
	Items       *yaml.Node `yaml:"items"`
	Children    yaml.Node  `yaml:"children"`
}

// LoadBlocksFile reads block schemas from a YAML file.
func LoadBlocksFile(path string) (*BlockSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blocks file: %w", err)
	}
	set, err := ParseBlocks(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// ParseBlocks decodes block schemas from YAML.
func ParseBlocks(data []byte) (*BlockSet, error) {
	var file blocksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing blocks: %w", err)
	}

	set := &BlockSet{Templates: make(map[string]string)}
	for i, entry := range file.Blocks {
		if entry.Type == "" {
			return nil, fmt.Errorf("blocks[%d]: missing type", i)
		}
		fields, err := parseFields(&entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", entry.Type, err)
		}

		templateID := entry.Template
		if templateID == "" && entry.TemplateSource != "" {
			templateID = "blocks." + entry.Type
		}
		if entry.TemplateSource != "" {
			set.Templates[templateID] = entry.TemplateSource
		}

		set.Schemas = append(set.Schemas, BlockSchema{
			Type:       entry.Type,
			Fields:     fields,
			TemplateID: templateID,
			Scripts:    entry.Scripts,
			Settings:   entry.Settings,
		})
	}
	return set, nil
}

func parseFields(node *yaml.Node) ([]Field, error) {
	if node == nil || node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}

	fields := make([]Field, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		spec, err := parseSpec(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, Named(name, spec))
	}
	return fields, nil
}

func parseSpec(node *yaml.Node) (FieldSpec, error) {
	var entry fieldEntry
	if node.Kind == yaml.ScalarNode {
		// "text: string" shorthand
		entry.Type = node.Value
	} else if err := node.Decode(&entry); err != nil {
		return FieldSpec{}, err
	}

	kind, err := parseKind(entry.Type)
	if err != nil {
		return FieldSpec{}, fmt.Errorf("line %d: %w", node.Line, err)
	}

	spec := FieldSpec{Kind: kind, AllowedValues: entry.CanBeOnly}
	if entry.Required != nil {
		spec.Optional = !*entry.Required
	}

	spec.AllowedTags, err = parseAllowedTags(&entry.AllowedTags)
	if err != nil {
		return FieldSpec{}, err
	}

	if entry.Items != nil {
		items, err := parseSpec(entry.Items)
		if err != nil {
			return FieldSpec{}, fmt.Errorf("items: %w", err)
		}
		spec.Items = &items
	}

	spec.Children, err = parseFields(&entry.Children)
	if err != nil {
		return FieldSpec{}, err
	}
	return spec, nil
}

func parseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return KindString, nil
	case "integer", "int":
		return KindInteger, nil
	case "boolean", "bool":
		return KindBoolean, nil
	case "array":
		return KindArray, nil
	case "object":
		return KindObject, nil
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// parseAllowedTags accepts "*", "none", a comma separated string in the
// "i,b,a[href]" form or a list of tag names and {tag, attributes} mappings.
func parseAllowedTags(node *yaml.Node) (*AllowedTags, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return ParseAllowedTags(node.Value), nil
	case yaml.SequenceNode:
		tags := &AllowedTags{}
		for _, item := range node.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				tags.Rules = append(tags.Rules, Tag(item.Value))
			case yaml.MappingNode:
				var rule TagRule
				if err := item.Decode(&rule); err != nil {
					return nil, err
				}
				tags.Rules = append(tags.Rules, rule)
			default:
				return nil, fmt.Errorf("line %d: invalid allowed_tags entry", item.Line)
			}
		}
		return tags, nil
	}
	return nil, fmt.Errorf("line %d: invalid allowed_tags", node.Line)
}

// ParseAllowedTags parses the compact allow-list notation used by editor tool
// definitions: "*" allows anything, "" or "none" strips all markup and
// "i,b,a[href|title]" lists elements with their permitted attributes.
func ParseAllowedTags(s string) *AllowedTags {
	s = strings.TrimSpace(s)
	switch s {
	case "", "none":
		return nil
	case "*":
		return AnyTags()
	}

	tags := &AllowedTags{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rest, hasAttrs := strings.Cut(part, "[")
		rule := TagRule{Tag: strings.TrimSpace(name)}
		if hasAttrs {
			rest = strings.TrimSuffix(rest, "]")
			for _, attr := range strings.Split(rest, "|") {
				if attr = strings.TrimSpace(attr); attr != "" {
					rule.Attributes = append(rule.Attributes, attr)
				}
			}
		}
		tags.Rules = append(tags.Rules, rule)
	}
	return tags
}
