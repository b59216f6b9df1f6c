package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/rubiojr/edjs/pkg/core"
	"github.com/rubiojr/edjs/pkg/log"
	"github.com/rubiojr/edjs/pkg/sanitize"
)

//go:embed templates/*.html
var templateFS embed.FS

// View is the value a block template executes against. Data holds only the
// fields declared by the block schema, already sanitized and defaulted:
// strings are template.HTML, integers int64, booleans bool, arrays []any and
// objects map[string]any.
type View struct {
	ID   string
	Type string
	Data map[string]any
}

// Renderer turns a single block into an HTML fragment using the template its
// schema names. It is safe for concurrent use.
type Renderer struct {
	registry  *core.Registry
	templates *template.Template
	sanitizer *sanitize.Sanitizer
	log       *log.Logger
}

// New builds a Renderer for the registry. extra maps template ids to
// template sources; a source may either {{define}} its id or be a bare body.
func New(reg *core.Registry, extra map[string]string) (*Renderer, error) {
	if reg == nil {
		reg = core.DefaultRegistry()
	}

	tmpl, err := template.New("blocks").Funcs(GetTemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing block templates: %w", err)
	}

	ids := make([]string, 0, len(extra))
	for id := range extra {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		src := extra[id]
		if strings.Contains(src, "{{define") {
			_, err = tmpl.Parse(src)
		} else {
			_, err = tmpl.New(id).Parse(src)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", id, err)
		}
	}

	return &Renderer{
		registry:  reg,
		templates: tmpl,
		sanitizer: sanitize.New(),
		log:       log.ForService("render"),
	}, nil
}

// Registry returns the registry the renderer resolves block types with.
func (r *Renderer) Registry() *core.Registry {
	return r.registry
}

// Render returns the HTML fragment for b. Blocks of unknown type, blocks
// without a template and template failures all render as "".
func (r *Renderer) Render(b core.Block) string {
	schema, ok := r.registry.Lookup(b.Type)
	if !ok || schema.TemplateID == "" {
		return ""
	}

	tmpl := r.templates.Lookup(schema.TemplateID)
	if tmpl == nil {
		r.log.Warnf("no template %s for block type %s", schema.TemplateID, b.Type)
		return ""
	}

	view := View{
		ID:   b.ID,
		Type: b.Type,
		Data: r.projectFields(schema.Fields, b.Data),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		r.log.Errorf("rendering %s block: %v", b.Type, err)
		return ""
	}
	return buf.String()
}

func (r *Renderer) projectFields(fields []core.Field, data map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Name] = r.project(f.Spec, data[f.Name])
	}
	return out
}

// project coerces v to the shape spec declares. Missing or malformed values
// become the zero value of the kind so templates never see raw input.
func (r *Renderer) project(spec core.FieldSpec, v any) any {
	switch spec.Kind {
	case core.KindString:
		s, _ := v.(string)
		return template.HTML(r.sanitizer.Sanitize(s, spec.AllowedTags))
	case core.KindInteger:
		n, _ := core.AsInt64(v)
		return n
	case core.KindBoolean:
		b, _ := v.(bool)
		return b
	case core.KindArray:
		items := core.AsSlice(v)
		out := make([]any, 0, len(items))
		if spec.Items == nil {
			return out
		}
		for _, item := range items {
			out = append(out, r.project(*spec.Items, item))
		}
		return out
	case core.KindObject:
		return r.projectFields(spec.Children, core.AsMap(v))
	}
	return nil
}
