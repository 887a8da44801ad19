// Package codec converts collection data to and from the JSON, CSV and XML
// interchange formats.
//
// Every decoder funnels its records through the same validation, so the
// three formats accept and reject the same content.
package codec

import (
	"time"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

// ImportResult is the validated content of an imported file.
// ExternalLinks is nil when the file carried no link section.
type ImportResult struct {
	Items         []domain.Brick        `json:"items"`
	ExternalLinks []domain.ExternalLink `json:"externalLinks,omitempty"`
}

// HasExternalLinks reports whether the file carried a link section.
func (r *ImportResult) HasExternalLinks() bool {
	return r.ExternalLinks != nil
}

// Export serializes items and links in format f.
func Export(f Format, items []domain.Brick, links []domain.ExternalLink) (string, error) {
	if items == nil {
		items = []domain.Brick{}
	}
	switch f {
	case FormatJSON:
		return encodeJSON(items, links)
	case FormatCSV:
		return encodeCSV(items, links)
	case FormatXML:
		return encodeXML(items, links), nil
	default:
		return "", domainerrors.UnsupportedFormat(string(f))
	}
}

// Import parses and validates content in format f.
// Missing ids and timestamps are filled in using the current time.
func Import(f Format, content string) (*ImportResult, error) {
	return ImportAt(f, content, domain.Now())
}

// ImportAt is Import with an explicit clock for defaulted timestamps.
func ImportAt(f Format, content string, now time.Time) (*ImportResult, error) {
	var (
		raw *rawResult
		err error
	)
	switch f {
	case FormatJSON:
		raw, err = decodeJSON(content)
	case FormatCSV:
		raw, err = decodeCSV(content)
	case FormatXML:
		raw, err = decodeXML(content)
	default:
		return nil, domainerrors.UnsupportedFormat(string(f))
	}
	if err != nil {
		return nil, err
	}
	return raw.validate(now)
}
