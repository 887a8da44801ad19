// Package service implements the collection operations consumed by the CLI and HTTP API.
//
// Every mutation reloads the stored document, applies its change and saves the
// whole document back while holding the shared DocumentLock, so concurrent
// edits to items and external links never clobber each other.
package service

import (
	"context"
	"sync"

	"github.com/noobbricks/noob-bricks/internal/domain"
	"github.com/noobbricks/noob-bricks/internal/store"
)

// DocumentLock serializes read-modify-write cycles on the stored document.
type DocumentLock struct {
	sync.Mutex
}

// NewDocumentLock creates the lock shared by all services of one process.
func NewDocumentLock() *DocumentLock {
	return &DocumentLock{}
}

// State is the refreshed collection view returned after every mutation.
type State struct {
	Items []domain.Brick `json:"items"`
	Tags  []string       `json:"tags"`
}

func stateOf(doc *domain.Document) State {
	if doc == nil {
		return State{Items: []domain.Brick{}, Tags: []string{}}
	}
	return State{Items: doc.Items, Tags: domain.ExtractTags(doc.Items)}
}

// loadDocument returns the stored document or an empty one.
func loadDocument(ctx context.Context, records *store.Store) *domain.Document {
	if doc := records.Load(ctx); doc != nil {
		return doc
	}
	return domain.NewDocument(nil, nil)
}

// loadForWrite is loadDocument without default links, for documents that are saved back.
func loadForWrite(ctx context.Context, records *store.Store) *domain.Document {
	if doc := records.LoadStored(ctx); doc != nil {
		return doc
	}
	return domain.NewDocument(nil, nil)
}
