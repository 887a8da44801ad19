package codec

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

const (
	xmlHeader     = `<?xml version="1.0" encoding="UTF-8"?>`
	xmlRootLegacy = "bricks"
	xmlRoot       = "appData"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

type xmlWriter struct {
	b strings.Builder
}

func (w *xmlWriter) line(depth int, s string) {
	w.b.WriteString(strings.Repeat("  ", depth))
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *xmlWriter) element(depth int, name, text string) {
	w.line(depth, "<"+name+">"+xmlEscaper.Replace(text)+"</"+name+">")
}

func encodeXML(items []domain.Brick, links []domain.ExternalLink) string {
	w := &xmlWriter{}
	w.line(0, xmlHeader)
	w.line(0, "<"+xmlRoot+">")
	w.line(1, "<bricks>")
	for _, item := range items {
		w.line(2, "<brick>")
		w.element(3, "id", item.ID)
		w.element(3, "number", item.Number)
		if item.Title != "" {
			w.element(3, "title", item.Title)
		}
		w.line(3, "<tags>")
		for _, tag := range item.Tags {
			w.element(4, "tag", tag)
		}
		w.line(3, "</tags>")
		if !item.Image.IsZero() {
			w.element(3, "imageRef", item.Image.Value())
		}
		w.element(3, "createdAt", domain.FormatTime(item.CreatedAt))
		w.element(3, "updatedAt", domain.FormatTime(item.UpdatedAt))
		w.line(2, "</brick>")
	}
	w.line(1, "</bricks>")
	if len(links) > 0 {
		w.line(1, "<externalLinks>")
		for _, l := range links {
			w.line(2, "<externalLink>")
			w.element(3, "id", l.ID)
			w.element(3, "name", l.Name)
			w.element(3, "url", l.URL)
			w.element(3, "enabled", strconv.FormatBool(l.Enabled))
			w.line(2, "</externalLink>")
		}
		w.line(1, "</externalLinks>")
	}
	w.line(0, "</"+xmlRoot+">")
	return strings.TrimSuffix(w.b.String(), "\n")
}

// Pointer fields distinguish a missing element from an empty one.
type xmlBrick struct {
	ID        *string  `xml:"id"`
	Number    *string  `xml:"number"`
	Title     *string  `xml:"title"`
	Tags      *xmlTags `xml:"tags"`
	ImageRef  *string  `xml:"imageRef"`
	ImageURL  *string  `xml:"imageUrl"`
	CreatedAt *string  `xml:"createdAt"`
	UpdatedAt *string  `xml:"updatedAt"`
}

type xmlTags struct {
	Tags []string `xml:"tag"`
}

type xmlLink struct {
	ID      *string `xml:"id"`
	Name    *string `xml:"name"`
	URL     *string `xml:"url"`
	Enabled *string `xml:"enabled"`
}

type xmlAppData struct {
	XMLName xml.Name    `xml:"appData"`
	Bricks  []xmlBrick  `xml:"bricks>brick"`
	Links   *xmlLinkSet `xml:"externalLinks"`
}

type xmlLinkSet struct {
	Links []xmlLink `xml:"externalLink"`
}

type xmlLegacyBricks struct {
	XMLName xml.Name   `xml:"bricks"`
	Bricks  []xmlBrick `xml:"brick"`
}

func decodeXML(content string) (*rawResult, error) {
	root, err := xmlRootName(content)
	if err != nil {
		return nil, err
	}

	raw := &rawResult{}
	switch root {
	case xmlRoot:
		var doc xmlAppData
		if err := xml.Unmarshal([]byte(content), &doc); err != nil {
			return nil, domainerrors.Validationf("invalid XML: %v", err)
		}
		raw.items = xmlBrickRecords(doc.Bricks)
		if doc.Links != nil {
			raw.hasLinks = true
			raw.links = make([]record, 0, len(doc.Links.Links))
			for _, l := range doc.Links.Links {
				raw.links = append(raw.links, l.record())
			}
		}
	case xmlRootLegacy:
		var doc xmlLegacyBricks
		if err := xml.Unmarshal([]byte(content), &doc); err != nil {
			return nil, domainerrors.Validationf("invalid XML: %v", err)
		}
		raw.items = xmlBrickRecords(doc.Bricks)
	default:
		return nil, domainerrors.Validationf("invalid XML: unexpected root element <%s>", root)
	}
	return raw, nil
}

func xmlRootName(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", domainerrors.Validation("invalid XML: no root element")
		}
		if err != nil {
			return "", domainerrors.Validationf("invalid XML: %v", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

func xmlBrickRecords(bricks []xmlBrick) []record {
	out := make([]record, 0, len(bricks))
	for _, b := range bricks {
		out = append(out, b.record())
	}
	return out
}

func (b xmlBrick) record() record {
	rec := record{}
	setTrimmed(rec, "id", b.ID)
	setTrimmed(rec, "number", b.Number)
	if b.Title != nil && *b.Title != "" {
		rec["title"] = *b.Title
	}
	if b.Tags != nil {
		rec["tags"] = b.Tags.Tags
	}
	if b.ImageRef != nil {
		setTrimmed(rec, "imageRef", b.ImageRef)
	} else {
		setTrimmed(rec, "imageRef", b.ImageURL)
	}
	setTrimmed(rec, "createdAt", b.CreatedAt)
	setTrimmed(rec, "updatedAt", b.UpdatedAt)
	return rec
}

func (l xmlLink) record() record {
	rec := record{}
	setTrimmed(rec, "id", l.ID)
	setTrimmed(rec, "name", l.Name)
	setTrimmed(rec, "url", l.URL)
	if l.Enabled != nil {
		if enabled, err := strconv.ParseBool(strings.TrimSpace(*l.Enabled)); err == nil {
			rec["enabled"] = enabled
		}
	}
	return rec
}

func setTrimmed(rec record, key string, v *string) {
	if v != nil {
		rec[key] = strings.TrimSpace(*v)
	}
}
