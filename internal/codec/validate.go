package codec

import (
	"strconv"
	"strings"
	"time"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
	"github.com/noobbricks/noob-bricks/internal/id"
)

const (
	sectionItems = "items"
	sectionLinks = "externalLinks"
)

// record is one decoded but unvalidated entry. Keys follow the JSON field
// names; a missing key means the source did not carry the field.
type record map[string]any

// rawResult is decoder output awaiting validation. Table formats leave
// requireTags unset: their sparse rows may omit the tags column.
type rawResult struct {
	items       []record
	links       []record
	hasLinks    bool
	requireTags bool
}

func (r *rawResult) validate(now time.Time) (*ImportResult, error) {
	out := &ImportResult{Items: make([]domain.Brick, 0, len(r.items))}
	for i, rec := range r.items {
		b, err := validateBrick(rec, i, now, r.requireTags)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, b)
	}

	if !r.hasLinks {
		return out, nil
	}
	out.ExternalLinks = make([]domain.ExternalLink, 0, len(r.links))
	for i, rec := range r.links {
		l, err := validateLink(rec, i)
		if err != nil {
			return nil, err
		}
		out.ExternalLinks = append(out.ExternalLinks, l)
	}
	return out, nil
}

func validateBrick(rec record, index int, now time.Time, requireTags bool) (domain.Brick, error) {
	invalid := func(field, reason string) error {
		return domainerrors.InvalidField(sectionItems, index, field, reason)
	}

	number, ok := scalarString(rec["number"])
	if !ok || strings.TrimSpace(number) == "" {
		return domain.Brick{}, invalid("number", "missing required field")
	}

	b := domain.Brick{Number: number, Tags: []string{}}

	if v, present := rec["id"]; present {
		if s, ok := v.(string); ok && s != "" {
			b.ID = s
		}
	}
	if b.ID == "" {
		brickID, err := id.NewBrickID()
		if err != nil {
			return domain.Brick{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate brick id")
		}
		b.ID = brickID
	}

	if v, present := rec["title"]; present {
		if s, ok := scalarString(v); ok {
			b.Title = s
		}
	}

	if v, present := rec["tags"]; present {
		tags, ok := stringList(v)
		if !ok {
			return domain.Brick{}, invalid("tags", "invalid field")
		}
		b.Tags = tags
	} else if requireTags {
		return domain.Brick{}, invalid("tags", "missing required field")
	}

	raw, present := rec["imageRef"]
	if !present {
		raw, present = rec["imageUrl"]
	}
	if present && raw != nil {
		s, isString := raw.(string)
		if !isString {
			return domain.Brick{}, invalid("imageRef", "invalid field")
		}
		ref, ok := domain.ParseImageRef(s)
		if !ok {
			return domain.Brick{}, invalid("imageRef", "unrecognized image reference")
		}
		b.Image = ref
	}

	var err error
	if b.CreatedAt, err = timestamp(rec["createdAt"], now); err != nil {
		return domain.Brick{}, invalid("createdAt", "invalid timestamp")
	}
	if b.UpdatedAt, err = timestamp(rec["updatedAt"], now); err != nil {
		return domain.Brick{}, invalid("updatedAt", "invalid timestamp")
	}
	return b, nil
}

func validateLink(rec record, index int) (domain.ExternalLink, error) {
	invalid := func(field string) error {
		return domainerrors.InvalidField(sectionLinks, index, field, "missing required field")
	}

	name, _ := rec["name"].(string)
	if strings.TrimSpace(name) == "" {
		return domain.ExternalLink{}, invalid("name")
	}
	url, _ := rec["url"].(string)
	if strings.TrimSpace(url) == "" {
		return domain.ExternalLink{}, invalid("url")
	}

	l := domain.ExternalLink{Name: name, URL: url, Enabled: true}
	if s, ok := rec["id"].(string); ok && s != "" {
		l.ID = s
	} else {
		linkID, err := id.NewLinkID()
		if err != nil {
			return domain.ExternalLink{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate link id")
		}
		l.ID = linkID
	}
	if enabled, ok := rec["enabled"].(bool); ok {
		l.Enabled = enabled
	}
	return l, nil
}

// scalarString accepts strings and numbers, so a JSON number 3001 imports as "3001".
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// stringList stringifies every entry of an array value as is.
func stringList(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return append(make([]string, 0, len(x)), x...), true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := scalarString(e)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// timestamp parses a present string value and defaults anything else to now.
func timestamp(v any, now time.Time) (time.Time, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return now, nil
	}
	return domain.ParseTime(s)
}
