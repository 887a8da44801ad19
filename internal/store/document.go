package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

// storedDocument is the on-disk layout. Older versions wrote "bricks" instead of "items".
type storedDocument struct {
	Items         []domain.Brick        `json:"items"`
	Bricks        []domain.Brick        `json:"bricks"`
	Tags          []string              `json:"tags"`
	ExternalLinks []domain.ExternalLink `json:"externalLinks"`
}

func decodeDocument(data []byte) (*domain.Document, error) {
	var raw storedDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		Items:         raw.Items,
		Tags:          raw.Tags,
		ExternalLinks: raw.ExternalLinks,
	}
	if doc.Items == nil {
		doc.Items = raw.Bricks
	}
	if doc.Items == nil {
		doc.Items = []domain.Brick{}
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc, nil
}

// Save replaces the persisted document.
func (s *Store) Save(ctx context.Context, doc *domain.Document) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if doc == nil {
		return domainerrors.Persistence(errors.New("nil document"))
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return domainerrors.Persistence(fmt.Errorf("marshal document: %w", err))
	}

	if err := s.set(KeyDocument, data); err != nil {
		return domainerrors.Persistence(err)
	}

	s.logger.Debug("document saved", "items", len(doc.Items), "bytes", len(data))
	return nil
}

// Load returns the persisted document with default external links injected
// when none are stored. It returns nil when no document exists or it cannot be decoded.
func (s *Store) Load(ctx context.Context) *domain.Document {
	doc := s.LoadStored(ctx)
	if doc != nil && doc.ExternalLinks == nil {
		doc.ExternalLinks = domain.DefaultExternalLinks()
	}
	return doc
}

// LoadStored returns the persisted document as written, without default links.
// Read-modify-write callers use it so a rewrite never persists the defaults.
func (s *Store) LoadStored(ctx context.Context) *domain.Document {
	if err := ctxErr(ctx); err != nil {
		return nil
	}

	data, err := s.get(KeyDocument)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("failed to read document", "error", err)
		return nil
	}

	doc, err := decodeDocument(data)
	if err != nil {
		s.logger.Warn("stored document is corrupt, treating as empty", "error", err)
		return nil
	}
	return doc
}

// Clear removes the persisted document. Flags are left untouched.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if err := s.delete(KeyDocument); err != nil {
		return domainerrors.Persistence(err)
	}
	return nil
}

// ExternalLinks returns the stored links, or the default set when nothing is stored.
func (s *Store) ExternalLinks(ctx context.Context) []domain.ExternalLink {
	doc := s.Load(ctx)
	if doc == nil {
		return domain.DefaultExternalLinks()
	}
	return doc.ExternalLinks
}

// SaveExternalLinks replaces the links inside the document, creating an empty
// document if none exists. The read-modify-write happens in one transaction.
func (s *Store) SaveExternalLinks(ctx context.Context, links []domain.ExternalLink) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if links == nil {
		links = []domain.ExternalLink{}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		doc := domain.NewDocument(nil, nil)

		item, err := txn.Get([]byte(KeyDocument))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			err = item.Value(func(val []byte) error {
				existing, decodeErr := decodeDocument(val)
				if decodeErr != nil {
					s.logger.Warn("replacing corrupt document while saving links", "error", decodeErr)
					return nil
				}
				doc = existing
				return nil
			})
			if err != nil {
				return err
			}
		}

		doc.ExternalLinks = links
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}
		return txn.Set([]byte(KeyDocument), data)
	})
	if err != nil {
		return domainerrors.Persistence(err)
	}
	return nil
}
