package models

import "fmt"

// DocumentIndex is the frozen, queryable view of one ingested document.
// Block order is document reading order and is never reordered. An index is
// created once per ingestion and replaced wholesale on re-ingestion.
type DocumentIndex struct {
	DocumentID string   `json:"document_id"`
	FileName   string   `json:"file_name"`
	FileType   string   `json:"file_type"`
	Blocks     []*Block `json:"blocks"`

	// lookup maps block id to position in Blocks. Built once by BuildLookup.
	lookup map[string]int
}

// Validate checks index invariants: non-empty document id and valid blocks.
// An empty block list is allowed only for formats whose builder is not yet
// implemented; callers with a populated list should also check len(Blocks).
func (d *DocumentIndex) Validate() error {
	if d.DocumentID == "" {
		return fmt.Errorf("document_id cannot be empty")
	}
	for _, b := range d.Blocks {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BuildLookup builds the block id lookup map. It must be called exactly once
// after ingestion; a duplicate block id is a fatal ingestion error, never a
// silently merged entry. Calling it again rebuilds the map from scratch.
func (d *DocumentIndex) BuildLookup() error {
	lookup := make(map[string]int, len(d.Blocks))
	for i, b := range d.Blocks {
		if _, dup := lookup[b.ID]; dup {
			return fmt.Errorf("duplicate block_id detected: %s", b.ID)
		}
		lookup[b.ID] = i
	}
	d.lookup = lookup
	return nil
}

// LookupSize reports how many block ids the lookup map holds.
func (d *DocumentIndex) LookupSize() int {
	return len(d.lookup)
}

// GetBlock resolves a block by id.
func (d *DocumentIndex) GetBlock(blockID string) (*Block, error) {
	i, ok := d.lookup[blockID]
	if !ok {
		return nil, fmt.Errorf("block %s: %w", blockID, ErrNotFound)
	}
	return d.Blocks[i], nil
}

// HasBlock reports whether the index contains the given block id.
func (d *DocumentIndex) HasBlock(blockID string) bool {
	_, ok := d.lookup[blockID]
	return ok
}

// Clone returns an independent deep copy of the index, including its lookup
// map. Mutating the copy never affects the original.
func (d *DocumentIndex) Clone() *DocumentIndex {
	c := &DocumentIndex{
		DocumentID: d.DocumentID,
		FileName:   d.FileName,
		FileType:   d.FileType,
		Blocks:     make([]*Block, len(d.Blocks)),
	}
	for i, b := range d.Blocks {
		c.Blocks[i] = b.Clone()
	}
	if d.lookup != nil {
		c.lookup = make(map[string]int, len(d.lookup))
		for k, v := range d.lookup {
			c.lookup[k] = v
		}
	}
	return c
}
