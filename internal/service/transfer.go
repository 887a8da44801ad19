package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/noobbricks/noob-bricks/internal/codec"
	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
	"github.com/noobbricks/noob-bricks/internal/imageref"
	"github.com/noobbricks/noob-bricks/internal/store"
)

// Export is a serialized collection ready to be written or served.
type Export struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mimeType"`
	Count    int    `json:"count"`
	Content  string `json:"content"`
}

// TransferService exports and imports collection files.
type TransferService struct {
	records    *store.Store
	resolver   *imageref.Resolver
	collection *CollectionService
	logger     *slog.Logger
	now        func() time.Time
}

// NewTransferService creates a new transfer service.
func NewTransferService(records *store.Store, resolver *imageref.Resolver, collection *CollectionService, logger *slog.Logger) *TransferService {
	return &TransferService{
		records:    records,
		resolver:   resolver,
		collection: collection,
		logger:     logger,
		now:        time.Now,
	}
}

// ExportCollection serializes the collection and its links. With withImages,
// image references are resolved to inline payloads so the file is self-contained.
func (s *TransferService) ExportCollection(ctx context.Context, format codec.Format, withImages bool) (*Export, error) {
	doc := loadDocument(ctx, s.records)
	if len(doc.Items) == 0 {
		return nil, domainerrors.Validation("no bricks to export")
	}

	items := doc.Items
	if withImages {
		items = make([]domain.Brick, len(doc.Items))
		for i, b := range doc.Items {
			b.Image = s.resolver.Inline(ctx, b.Image)
			items[i] = b
		}
	}

	content, err := codec.Export(format, items, doc.ExternalLinks)
	if err != nil {
		return nil, err
	}

	s.logger.Info("collection exported", "format", string(format), "items", len(items), "with_images", withImages)
	return &Export{
		Filename: codec.Filename(format, s.now()),
		MIMEType: format.MIMEType(),
		Count:    len(items),
		Content:  content,
	}, nil
}

// ImportFromFile parses and validates content without applying it.
func (s *TransferService) ImportFromFile(_ context.Context, content string, format codec.Format) (*codec.ImportResult, error) {
	result, err := codec.Import(format, content)
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, domainerrors.Validation("no bricks found in the imported file")
	}
	return result, nil
}

// ImportFromFilename picks the format from the file extension, then parses content.
func (s *TransferService) ImportFromFilename(ctx context.Context, name, content string) (*codec.ImportResult, error) {
	format, err := codec.FormatFromFilename(name)
	if err != nil {
		return nil, err
	}
	return s.ImportFromFile(ctx, content, format)
}

// Import parses content and replaces the collection with it.
func (s *TransferService) Import(ctx context.Context, content string, format codec.Format) (State, *codec.ImportResult, error) {
	result, err := s.ImportFromFile(ctx, content, format)
	if err != nil {
		return State{}, nil, err
	}
	state, err := s.collection.ImportCollection(ctx, result)
	if err != nil {
		return State{}, nil, err
	}
	return state, result, nil
}
