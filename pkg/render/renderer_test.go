package render

import (
	"strings"
	"testing"

	"github.com/rubiojr/edjs/pkg/core"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(core.DefaultRegistry(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r
}

func TestRenderBlocks(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		name     string
		block    core.Block
		expected string
	}{
		{
			name:     "paragraph sanitized",
			block:    core.Block{Type: "paragraph", Data: map[string]any{"text": "Hello <b>world</b><script>x()</script>"}},
			expected: `<p class="editorjs-paragraph">Hello <b>world</b></p>`,
		},
		{
			name:     "header level",
			block:    core.Block{Type: "header", Data: map[string]any{"text": "<i>Title</i>", "level": 3}},
			expected: `<h3 class="editorjs-header">Title</h3>`,
		},
		{
			name:     "header default level",
			block:    core.Block{Type: "header", Data: map[string]any{"text": "Title"}},
			expected: `<h2 class="editorjs-header">Title</h2>`,
		},
		{
			name: "ordered list",
			block: core.Block{Type: "list", Data: map[string]any{
				"style": "ordered",
				"items": []any{"<b>a</b>", "<div>b</div>"},
			}},
			expected: `<ol class="editorjs-list"><li><b>a</b></li><li>b</li></ol>`,
		},
		{
			name:     "unordered list with missing items",
			block:    core.Block{Type: "list", Data: map[string]any{"style": "unordered"}},
			expected: `<ul class="editorjs-list"></ul>`,
		},
		{
			name: "checklist",
			block: core.Block{Type: "checklist", Data: map[string]any{
				"items": []any{
					map[string]any{"text": "a", "checked": true},
					map[string]any{"text": "b"},
				},
			}},
			expected: `<ul class="editorjs-checklist">` +
				`<li class="editorjs-checklist__item editorjs-checklist__item--checked"><input type="checkbox" disabled checked> a</li>` +
				`<li class="editorjs-checklist__item"><input type="checkbox" disabled> b</li>` +
				`</ul>`,
		},
		{
			name: "table",
			block: core.Block{Type: "table", Data: map[string]any{
				"content": []any{[]any{"a", "b"}, []any{"c", "<i>d</i>"}},
			}},
			expected: `<table class="editorjs-table"><tbody><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></tbody></table>`,
		},
		{
			name:     "delimiter",
			block:    core.Block{Type: "delimiter"},
			expected: `<hr class="editorjs-delimiter">`,
		},
		{
			name:     "raw passes through",
			block:    core.Block{Type: "raw", Data: map[string]any{"html": `<div onclick="x">hi</div>`}},
			expected: `<div onclick="x">hi</div>`,
		},
		{
			name:     "code escaped",
			block:    core.Block{Type: "code", Data: map[string]any{"code": "a < b && c"}},
			expected: `<pre class="editorjs-code"><code>a &lt; b &amp;&amp; c</code></pre>`,
		},
		{
			name:     "unknown type",
			block:    core.Block{Type: "unknownType", Data: map[string]any{"text": "x"}},
			expected: "",
		},
		{
			name:     "inline tool has no template",
			block:    core.Block{Type: "Marker"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Render(tt.block)
			if got != tt.expected {
				t.Errorf("Expected:\n%s\ngot:\n%s", tt.expected, got)
			}
		})
	}
}

func TestRenderAttributes(t *testing.T) {
	r := newTestRenderer(t)

	image := r.Render(core.Block{Type: "image", Data: map[string]any{
		"file":           map[string]any{"url": "https://cdn.example.com/a.png?x=1&y=2"},
		"caption":        "A <b>cat</b>",
		"withBorder":     true,
		"withBackground": false,
		"stretched":      true,
	}})
	for _, want := range []string{
		`class="editorjs-image editorjs-image--border editorjs-image--stretched"`,
		`src="https://cdn.example.com/a.png?x=1&amp;y=2"`,
		`alt="A cat"`,
		`<figcaption>A cat</figcaption>`,
	} {
		if !strings.Contains(image, want) {
			t.Errorf("image output missing %q:\n%s", want, image)
		}
	}

	attaches := r.Render(core.Block{Type: "attaches", Data: map[string]any{
		"file": map[string]any{
			"url":       "https://example.com/uploads/report.pdf",
			"size":      1536,
			"name":      "report.pdf",
			"extension": "pdf",
		},
		"title": "",
	}})
	for _, want := range []string{
		`href="https://example.com/uploads/report.pdf"`,
		`>report.pdf</a>`,
		`1.5 KiB`,
		`>PDF<`,
	} {
		if !strings.Contains(attaches, want) {
			t.Errorf("attaches output missing %q:\n%s", want, attaches)
		}
	}

	link := r.Render(core.Block{Type: "linkTool", Data: map[string]any{
		"link": "javascript:alert(1)",
		"meta": map[string]any{"title": "t"},
	}})
	if strings.Contains(link, "javascript:") {
		t.Errorf("unsafe URL survived rendering:\n%s", link)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := newTestRenderer(t)

	block := core.Block{Type: "linkTool", Data: map[string]any{
		"link": "https://www.example.com/post",
		"meta": map[string]any{
			"title":       "Example",
			"description": "Desc",
			"image":       map[string]any{"url": "https://example.com/i.png"},
		},
	}}
	first := r.Render(block)
	second := r.Render(block)
	if first == "" {
		t.Fatal("Expected non-empty output")
	}
	if first != second {
		t.Errorf("Render is not deterministic:\n%s\n%s", first, second)
	}
	if !strings.Contains(first, `<span class="editorjs-link__host">example.com</span>`) {
		t.Errorf("Expected host in output:\n%s", first)
	}
}

func TestRenderExtraTemplates(t *testing.T) {
	reg, err := core.DefaultRegistry().Merge(
		core.BlockSchema{
			Type:       "callout",
			Fields:     []core.Field{core.Named("text", core.String().WithTags(core.Tags(core.Tag("b"))))},
			TemplateID: "blocks.callout",
		},
		core.BlockSchema{Type: "ghost", TemplateID: "blocks.ghost"},
		core.BlockSchema{Type: "broken", TemplateID: "blocks.broken"},
	)
	if err != nil {
		t.Fatal(err)
	}

	r, err := New(reg, map[string]string{
		"blocks.callout": `<aside>{{.Data.text}}</aside>`,
		"blocks.broken":  `{{define "blocks.broken"}}{{index .Data 5}}{{end}}`,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := r.Render(core.Block{Type: "callout", Data: map[string]any{"text": "<b>hi</b><i>x</i>"}})
	if got != "<aside><b>hi</b>x</aside>" {
		t.Errorf("Unexpected callout output %q", got)
	}

	if got := r.Render(core.Block{Type: "ghost"}); got != "" {
		t.Errorf("Missing template should render empty, got %q", got)
	}
	if got := r.Render(core.Block{Type: "broken"}); got != "" {
		t.Errorf("Template error should render empty, got %q", got)
	}

	if _, err := New(reg, map[string]string{"blocks.bad": "{{.Data"}); err == nil {
		t.Error("Expected parse error for malformed template")
	}
}

func TestTemplateFuncs(t *testing.T) {
	if got := ConvertBytes(0); got != "0 B" {
		t.Errorf("ConvertBytes(0) = %q", got)
	}
	if got := ConvertBytes(int64(1048576)); got != "1.0 MiB" {
		t.Errorf("ConvertBytes(1MiB) = %q", got)
	}
	if got := HeadingLevel(9); got != 6 {
		t.Errorf("HeadingLevel(9) = %d", got)
	}
	if got := Alignment("CENTER"); got != "center" {
		t.Errorf("Alignment(CENTER) = %q", got)
	}
	if got := Alignment("justify"); got != "left" {
		t.Errorf("Alignment(justify) = %q", got)
	}
	if got := Host("https://www.example.com/a"); got != "example.com" {
		t.Errorf("Host = %q", got)
	}
}
