package core

// ToolScriptPrefix is where the editor tool scripts are served from.
const ToolScriptPrefix = "/editorjs/assets/js/tools/"

// Plugin endpoint paths referenced from tool settings. Values starting with
// "/" are resolved against the application URL when the tools configuration
// is served.
const (
	EndpointAttaches  = "/editorjs/plugins/attaches"
	EndpointImageFile = "/editorjs/plugins/image/uploadFile"
	EndpointImageURL  = "/editorjs/plugins/image/fetchUrl"
	EndpointLinkTool  = "/editorjs/plugins/linktool"
)

func script(name string) []string {
	return []string{ToolScriptPrefix + name + ".js"}
}

// BuiltinBlocks returns the schemas for the standard editor blocks and inline
// tools. Each call returns fresh values.
func BuiltinBlocks() []BlockSchema {
	inlineText := Tags(Tag("i"), Tag("b"), Tag("u"))

	return []BlockSchema{
		{
			Type: "paragraph",
			Fields: []Field{
				Named("text", String().WithTags(Tags(
					Tag("i"), Tag("b"), Tag("u"),
					Tag("a", "href"),
					Tag("span", "class"),
					Tag("code", "class"),
					Tag("mark", "class"),
				))),
			},
			TemplateID: "blocks.paragraph",
		},
		{
			Type: "header",
			Fields: []Field{
				Named("text", String()),
				Named("level", Integer().OneOf(1, 2, 3, 4, 5)),
			},
			TemplateID: "blocks.header",
			Scripts:    script("header"),
			Settings:   ToolSettings{Class: "Header", Shortcut: "CMD+SHIFT+H"},
		},
		{
			Type:     "Marker",
			Scripts:  script("marker"),
			Settings: ToolSettings{Class: "Marker", Shortcut: "CMD+SHIFT+M"},
		},
		{
			Type: "image",
			Fields: []Field{
				Named("file", Object(
					Named("url", String()),
					Named("thumbnails", ArrayOf(String()).AsOptional()),
				)),
				Named("caption", String()),
				Named("withBorder", Boolean()),
				Named("withBackground", Boolean()),
				Named("stretched", Boolean()),
			},
			TemplateID: "blocks.image",
			Scripts:    script("image"),
			Settings: ToolSettings{
				Class: "ImageTool",
				Config: map[string]any{
					"endpoints": map[string]any{
						"byFile": EndpointImageFile,
						"byUrl":  EndpointImageURL,
					},
				},
			},
		},
		{
			Type: "attaches",
			Fields: []Field{
				Named("file", Object(
					Named("url", String()),
					Named("size", Integer()),
					Named("name", String()),
					Named("extension", String()),
				)),
				Named("title", String()),
			},
			TemplateID: "blocks.attaches",
			Scripts:    script("attaches"),
			Settings: ToolSettings{
				Class:  "AttachesTool",
				Config: map[string]any{"endpoint": EndpointAttaches},
			},
		},
		{
			Type: "linkTool",
			Fields: []Field{
				Named("link", String()),
				Named("meta", Object(
					Named("title", String()),
					Named("description", String()),
					Named("image", Object(
						Named("url", String()),
					)),
				)),
			},
			TemplateID: "blocks.linkTool",
			Scripts:    script("link"),
			Settings: ToolSettings{
				Class:  "LinkTool",
				Config: map[string]any{"endpoint": EndpointLinkTool},
			},
		},
		{
			Type: "list",
			Fields: []Field{
				Named("style", String().OneOf("ordered", "unordered")),
				Named("items", ArrayOf(String().WithTags(inlineText))),
			},
			TemplateID: "blocks.list",
			Scripts:    script("list"),
			Settings:   ToolSettings{Class: "List", InlineToolbar: true},
		},
		{
			Type: "checklist",
			Fields: []Field{
				Named("items", ArrayOf(Object(
					Named("text", String().AsOptional()),
					Named("checked", Boolean().AsOptional()),
				))),
			},
			TemplateID: "blocks.checklist",
			Scripts:    script("checklist"),
			Settings:   ToolSettings{Class: "Checklist", InlineToolbar: true},
		},
		{
			Type: "table",
			Fields: []Field{
				Named("content", ArrayOf(ArrayOf(String()))),
			},
			TemplateID: "blocks.table",
			Scripts:    script("table"),
			Settings: ToolSettings{
				Class:         "Table",
				InlineToolbar: true,
				Config:        map[string]any{"rows": 2, "cols": 3},
			},
		},
		{
			Type: "quote",
			Fields: []Field{
				Named("text", String()),
				Named("alignment", String()),
				Named("caption", String()),
			},
			TemplateID: "blocks.quote",
			Scripts:    script("quote"),
			Settings: ToolSettings{
				Class:         "Quote",
				InlineToolbar: true,
				Shortcut:      "CMD+SHIFT+O",
				Config: map[string]any{
					"quotePlaceholder":   "Enter a quote",
					"captionPlaceholder": "Quote's author",
				},
			},
		},
		{
			Type: "code",
			Fields: []Field{
				Named("code", String()),
			},
			TemplateID: "blocks.code",
			Scripts:    script("code"),
			Settings:   ToolSettings{Class: "CodeTool"},
		},
		{
			Type: "embed",
			Fields: []Field{
				Named("service", String()),
				Named("source", String()),
				Named("embed", String()),
				Named("width", Integer()),
				Named("height", Integer()),
				Named("caption", String().AsOptional()),
			},
			TemplateID: "blocks.embed",
			Scripts:    script("embed"),
			Settings:   ToolSettings{Class: "Embed"},
		},
		{
			Type: "raw",
			Fields: []Field{
				Named("html", String().WithTags(AnyTags())),
			},
			TemplateID: "blocks.raw",
			Scripts:    script("raw"),
			Settings:   ToolSettings{Class: "RawTool"},
		},
		{
			Type:       "delimiter",
			TemplateID: "blocks.delimiter",
			Scripts:    script("delimiter"),
			Settings:   ToolSettings{Class: "Delimiter"},
		},
		{
			Type:     "underline",
			Scripts:  script("underline"),
			Settings: ToolSettings{Class: "Underline"},
		},
	}
}
