package domain

import (
	"net/url"
	"slices"
)

// Document is the single persisted record holding the whole collection.
// A nil ExternalLinks means the field was absent, as opposed to deliberately empty.
type Document struct {
	Items         []Brick        `json:"items"`
	Tags          []string       `json:"tags"`
	ExternalLinks []ExternalLink `json:"externalLinks,omitzero"`
}

// NewDocument builds a document whose tag list is derived from items.
func NewDocument(items []Brick, links []ExternalLink) *Document {
	if items == nil {
		items = []Brick{}
	}
	return &Document{
		Items:         items,
		Tags:          ExtractTags(items),
		ExternalLinks: links,
	}
}

// Clone returns a deep-enough copy for read-modify-write cycles.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Items: slices.Clone(d.Items),
		Tags:  slices.Clone(d.Tags),
	}
	if d.ExternalLinks != nil {
		out.ExternalLinks = slices.Clone(d.ExternalLinks)
	}
	return out
}

// ExternalLink is a catalog lookup template; the brick number is appended to URL.
type ExternalLink struct {
	ID      string `json:"id"`
	Name    string `json:"name" validate:"required,max=64"`
	URL     string `json:"url" validate:"required,url"`
	Enabled bool   `json:"enabled"`
}

// URLFor returns the lookup URL for a catalog number.
func (l ExternalLink) URLFor(number string) string {
	return l.URL + url.QueryEscape(number)
}

// DefaultExternalLinks returns the link set injected when none is stored.
func DefaultExternalLinks() []ExternalLink {
	return []ExternalLink{
		{
			ID:      "link-bricklink",
			Name:    "BrickLink",
			URL:     "https://www.bricklink.com/v2/search.page?q=",
			Enabled: true,
		},
	}
}

// EnabledLinks filters links down to the enabled ones.
func EnabledLinks(links []ExternalLink) []ExternalLink {
	out := make([]ExternalLink, 0, len(links))
	for _, l := range links {
		if l.Enabled {
			out = append(out, l)
		}
	}
	return out
}
