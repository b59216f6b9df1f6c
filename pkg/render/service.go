package render

import (
	"strings"

	"github.com/rubiojr/edjs/pkg/core"
)

// BlockRenderer renders one block to an HTML fragment. Implementations must
// not fail; anything that cannot be rendered yields "".
type BlockRenderer interface {
	Render(block core.Block) string
}

// Ensure *Renderer satisfies BlockRenderer.
var _ BlockRenderer = (*Renderer)(nil)

// Converter turns whole documents into HTML by rendering each block in order
// and concatenating the fragments without separators.
type Converter struct {
	renderer BlockRenderer
}

// NewConverter creates a Converter on top of the given renderer.
func NewConverter(r BlockRenderer) *Converter {
	return &Converter{renderer: r}
}

// Convert renders doc. A nil or empty document converts to "".
func (c *Converter) Convert(doc *core.Document) string {
	if doc.Empty() {
		return ""
	}
	var b strings.Builder
	for _, block := range doc.Blocks {
		b.WriteString(c.renderer.Render(block))
	}
	return b.String()
}

// ConvertJSON decodes a saved editor document and converts it. Decoding is
// the only failure mode.
func (c *Converter) ConvertJSON(data []byte) (string, error) {
	doc, err := core.ParseDocument(data)
	if err != nil {
		return "", err
	}
	return c.Convert(doc), nil
}
