package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Block is one unit of editor content as produced by the client-side editor.
//
// Blocks are plain data: a type name selecting a BlockSchema in the Registry and
// an untyped Data payload that must conform to that schema's fields. Nothing
// about a Block is trusted until it has been validated.
//
// A block as sent by the editor looks like:
//
//	{
//		"id": "oUq2g_tl8y",
//		"type": "header",
//		"data": {"text": "Key features", "level": 3}
//	}
type Block struct {
	// ID is the editor-assigned identifier. Optional and never interpreted.
	ID string `json:"id,omitempty"`

	// Type selects the schema and template used for this block.
	Type string `json:"type"`

	// Data is the block payload. Numbers decoded through DecodeDocument are
	// json.Number values.
	Data map[string]any `json:"data"`

	// Tunes carries block tune settings (alignment, anchors) untouched.
	Tunes map[string]any `json:"tunes,omitempty"`
}

// Document is an ordered sequence of blocks as saved by the editor. Block
// order is significant and the same type may appear any number of times.
type Document struct {
	Time    int64   `json:"time,omitempty"`
	Version string  `json:"version,omitempty"`
	Blocks  []Block `json:"blocks"`
}

// Empty reports whether the document has no blocks.
func (d *Document) Empty() bool {
	return d == nil || len(d.Blocks) == 0
}

// DecodeDocument reads a single document from r. Numbers are kept as
// json.Number so integer fields survive without float rounding.
func DecodeDocument(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}

// ParseDocument decodes a document from raw JSON. Blank input yields an empty
// document.
func ParseDocument(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Document{}, nil
	}
	return DecodeDocument(bytes.NewReader(data))
}
