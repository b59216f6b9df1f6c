package render

import (
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rubiojr/edjs/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Plain turns a sanitized fragment back into text so html/template can escape
// it for attribute and URL contexts.
func Plain(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case template.HTML:
		return html.UnescapeString(string(x))
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// ConvertBytes formats a byte count for humans, e.g. 1536 -> "1.5 KiB".
func ConvertBytes(v any) string {
	n, ok := core.AsInt64(v)
	if !ok || n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// HeadingLevel clamps a header level to 1..6, defaulting to 2.
func HeadingLevel(v any) int {
	n, ok := core.AsInt64(v)
	if !ok || n < 1 {
		return 2
	}
	if n > 6 {
		return 6
	}
	return int(n)
}

// Alignment normalizes a text alignment to left or center.
func Alignment(v any) string {
	if strings.EqualFold(strings.TrimSpace(Plain(v)), "center") {
		return "center"
	}
	return "left"
}

// Host returns the host part of a URL without a leading "www.", or "" when
// there is none.
func Host(v any) string {
	u, err := url.Parse(Plain(v))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

var titleCaser = cases.Title(language.English)

// GetTemplateFuncs returns the functions available to block templates.
func GetTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"plain":        Plain,
		"convertBytes": ConvertBytes,
		"headingLevel": HeadingLevel,
		"alignment":    Alignment,
		"host":         Host,

		"title": func(v any) string { return titleCaser.String(Plain(v)) },
		"upper": func(v any) string { return strings.ToUpper(Plain(v)) },
		"lower": func(v any) string { return strings.ToLower(Plain(v)) },
		"join":  strings.Join,
	}
}
