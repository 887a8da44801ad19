package codec

import (
	"encoding/json/jsontext"
	"encoding/json/v2"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

// jsonEnvelope is the current JSON export shape. Tags is always written empty;
// importers rebuild the tag index from items.
type jsonEnvelope struct {
	Items         []domain.Brick        `json:"items"`
	Tags          []string              `json:"tags"`
	ExternalLinks []domain.ExternalLink `json:"externalLinks,omitempty"`
}

func encodeJSON(items []domain.Brick, links []domain.ExternalLink) (string, error) {
	data, err := json.Marshal(
		jsonEnvelope{Items: items, Tags: []string{}, ExternalLinks: links},
		jsontext.WithIndent("  "),
		jsontext.SpaceAfterColon(true),
	)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "encode JSON export")
	}
	return string(data), nil
}

func decodeJSON(content string) (*rawResult, error) {
	// Numbers decode as float64 and are stringified during validation.
	var top any
	if err := json.Unmarshal([]byte(content), &top); err != nil {
		return nil, domainerrors.Validationf("invalid JSON: %v", err)
	}

	raw := &rawResult{requireTags: true}
	var items []any
	switch v := top.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["items"]
		if !ok {
			list, ok = v["bricks"]
		}
		if !ok {
			return nil, domainerrors.Validation("invalid JSON: expected an items array")
		}
		if items, ok = list.([]any); !ok {
			return nil, domainerrors.Validation("invalid JSON: items must be an array")
		}

		if links, ok := v["externalLinks"]; ok && links != nil {
			arr, ok := links.([]any)
			if !ok {
				return nil, domainerrors.Validation("invalid JSON: externalLinks must be an array")
			}
			recs, err := jsonRecords(sectionLinks, arr)
			if err != nil {
				return nil, err
			}
			raw.links = recs
			raw.hasLinks = true
		}
	default:
		return nil, domainerrors.Validation("invalid JSON: expected an array of bricks or an object with items")
	}

	recs, err := jsonRecords(sectionItems, items)
	if err != nil {
		return nil, err
	}
	raw.items = recs
	return raw, nil
}

func jsonRecords(section string, list []any) ([]record, error) {
	out := make([]record, 0, len(list))
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, domainerrors.InvalidField(section, i, "", "must be an object")
		}
		out = append(out, record(m))
	}
	return out, nil
}
