// Package search provides full-text search over the brick collection using Bleve.
// The index lives in memory and is rebuilt from the stored items on demand.
package search

import (
	"strings"

	"github.com/noobbricks/noob-bricks/internal/domain"
)

// BrickDocument is the indexed form of a brick.
type BrickDocument struct {
	ID     string
	Number string
	Title  string
	Tags   []string
}

// NewBrickDocument builds the index document for b.
// Number and tags are lowercased so keyword matching is case-insensitive.
func NewBrickDocument(b domain.Brick) *BrickDocument {
	tags := make([]string, len(b.Tags))
	for i, t := range b.Tags {
		tags[i] = strings.ToLower(t)
	}
	return &BrickDocument{
		ID:     b.ID,
		Number: strings.ToLower(b.Number),
		Title:  b.Title,
		Tags:   tags,
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *BrickDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":     d.ID,
		"number": d.Number,
	}
	if d.Title != "" {
		m["title"] = d.Title
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}
