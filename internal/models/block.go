// Package models defines core data structures for blocks, document indices,
// intents, and patch plans.
package models

import (
	"fmt"
	"strings"
)

// BlockType is the semantic type of a block. Values are a wire contract:
// once an index has been cached, a type tag must never be renamed.
type BlockType string

const (
	BlockText    BlockType = "text"
	BlockTable   BlockType = "table"
	BlockImage   BlockType = "image"
	BlockFormula BlockType = "formula"
	BlockSlide   BlockType = "slide"
	BlockCell    BlockType = "cell"
)

// Rect is a page-relative bounding rectangle in document units.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 {
	if r.Y1 > r.Y0 {
		return r.Y1 - r.Y0
	}
	return r.Y0 - r.Y1
}

// BlockLocation is the precise position of a block inside its source document.
// It is a superset of the location fields of every supported format; only the
// fields relevant to the producing format are populated. A flat
// union-of-optionals keeps blocks comparable and serializable uniformly
// regardless of source format.
type BlockLocation struct {
	// Paged documents (PDF)
	Page *int `json:"page,omitempty"`

	// Presentations
	Slide *int `json:"slide,omitempty"`

	// Spreadsheets
	Sheet  *string `json:"sheet,omitempty"`
	Row    *int    `json:"row,omitempty"`
	Column *int    `json:"column,omitempty"`

	// Image regions and precise text anchoring
	BBox *Rect `json:"bbox,omitempty"`
}

// Clone returns an independent deep copy of the location.
func (l BlockLocation) Clone() BlockLocation {
	c := BlockLocation{}
	if l.Page != nil {
		p := *l.Page
		c.Page = &p
	}
	if l.Slide != nil {
		s := *l.Slide
		c.Slide = &s
	}
	if l.Sheet != nil {
		s := *l.Sheet
		c.Sheet = &s
	}
	if l.Row != nil {
		r := *l.Row
		c.Row = &r
	}
	if l.Column != nil {
		col := *l.Column
		c.Column = &col
	}
	if l.BBox != nil {
		b := *l.BBox
		c.BBox = &b
	}
	return c
}

// Block is the unit of reference, identity, and mutation. Blocks are created
// only during ingestion and are immutable afterwards; patches produce new
// documents, they never mutate cached blocks.
type Block struct {
	// ID is unique within a document and stable across re-ingestion of an
	// unchanged source. It is derived from positional coordinates, not
	// content, so identity survives content edits.
	ID       string         `json:"block_id"`
	Type     BlockType      `json:"type"`
	Location BlockLocation  `json:"location"`
	Content  any            `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	// ContentHash is the hex-encoded SHA-256 of the normalized content,
	// used to detect drift between ingestion and patch time.
	ContentHash string `json:"content_hash"`
}

// Validate checks the block invariants: non-empty id and content hash.
func (b *Block) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("block_id cannot be empty")
	}
	if strings.TrimSpace(b.ContentHash) == "" {
		return fmt.Errorf("content_hash cannot be empty for block %s", b.ID)
	}
	return nil
}

// Clone returns an independent deep copy of the block. Content is copied for
// the shapes builders produce (strings, maps, slices); metadata maps are
// copied shallowly per value since values are scalars.
func (b *Block) Clone() *Block {
	c := &Block{
		ID:          b.ID,
		Type:        b.Type,
		Location:    b.Location.Clone(),
		Content:     cloneValue(b.Content),
		ContentHash: b.ContentHash,
	}
	if b.Metadata != nil {
		c.Metadata = make(map[string]any, len(b.Metadata))
		for k, v := range b.Metadata {
			c.Metadata[k] = cloneValue(v)
		}
	}
	return c
}

// cloneValue deep-copies the JSON-shaped values blocks carry.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
