package codec

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

const (
	csvBricksSection = "BRICKS"
	csvLinksSection  = "EXTERNAL_LINKS"
	csvTagSeparator  = "; "
)

var (
	csvBrickHeader = []string{"Number", "Title", "Tags", "Image URL", "Created At", "Updated At"}
	csvLinkHeader  = []string{"ID", "Name", "URL", "Enabled"}
)

// Column names are matched after lowercasing and dropping spaces, dashes and underscores.
var (
	csvBrickColumns = map[string]string{
		"id":        "id",
		"number":    "number",
		"title":     "title",
		"tags":      "tags",
		"imageurl":  "imageRef",
		"imageref":  "imageRef",
		"image":     "imageRef",
		"createdat": "createdAt",
		"updatedat": "updatedAt",
	}
	csvLinkColumns = map[string]string{
		"id":      "id",
		"name":    "name",
		"url":     "url",
		"enabled": "enabled",
	}
)

func encodeCSV(items []domain.Brick, links []domain.ExternalLink) (string, error) {
	var b strings.Builder
	b.WriteString("[" + csvBricksSection + "]\n")

	w := csv.NewWriter(&b)
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, csvBrickHeader)
	for _, item := range items {
		rows = append(rows, []string{
			item.Number,
			item.Title,
			strings.Join(item.Tags, csvTagSeparator),
			item.Image.Value(),
			domain.FormatTime(item.CreatedAt),
			domain.FormatTime(item.UpdatedAt),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "encode CSV export")
	}

	if len(links) > 0 {
		b.WriteString("\n[" + csvLinksSection + "]\n")
		rows = rows[:0]
		rows = append(rows, csvLinkHeader)
		for _, l := range links {
			rows = append(rows, []string{l.ID, l.Name, l.URL, strconv.FormatBool(l.Enabled)})
		}
		if err := w.WriteAll(rows); err != nil {
			return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "encode CSV export")
		}
	}
	return b.String(), nil
}

func decodeCSV(content string) (*rawResult, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	sections, marked := splitSections(logicalLines(content))

	brickLines := sections[""]
	if marked {
		if lines, ok := sections[csvBricksSection]; ok {
			brickLines = lines
		}
	}

	raw := &rawResult{}
	items, err := parseCSVTable(brickLines, csvBrickColumns, func(line string) bool {
		return strings.Contains(strings.ToLower(line), "number")
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, domainerrors.Validation("invalid CSV: no header row with a Number column")
	}
	for _, rec := range items {
		if v, ok := rec["tags"].(string); ok {
			rec["tags"] = splitTags(v)
		}
	}
	raw.items = items

	if linkLines, ok := sections[csvLinksSection]; ok {
		links, err := parseCSVTable(linkLines, csvLinkColumns, func(line string) bool {
			l := strings.ToLower(line)
			return strings.Contains(l, "id") || strings.Contains(l, "name")
		})
		if err != nil {
			return nil, err
		}
		for _, rec := range links {
			if v, ok := rec["enabled"].(string); ok {
				if enabled, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
					rec["enabled"] = enabled
				}
			}
		}
		raw.links = links
		if raw.links == nil {
			raw.links = []record{}
		}
		raw.hasLinks = true
	}
	return raw, nil
}

// logicalLines splits content on newlines that are not inside a quoted field.
func logicalLines(content string) []string {
	var (
		lines    []string
		cur      strings.Builder
		inQuotes bool
	)
	for _, r := range content {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == '\n' && !inQuotes:
			lines = append(lines, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// splitSections groups lines under their [SECTION] marker. Lines before the
// first marker are filed under "".
func splitSections(lines []string) (map[string][]string, bool) {
	sections := map[string][]string{}
	current := ""
	marked := false
	for _, line := range lines {
		if name, ok := sectionMarker(line); ok {
			current = name
			marked = true
			if _, exists := sections[name]; !exists {
				sections[name] = []string{}
			}
			continue
		}
		sections[current] = append(sections[current], line)
	}
	return sections, marked
}

func sectionMarker(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 3 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	name := line[1 : len(line)-1]
	for _, r := range name {
		if !unicode.IsLetter(r) && r != '_' && r != ' ' {
			return "", false
		}
	}
	return strings.ToUpper(strings.TrimSpace(name)), true
}

// parseCSVTable locates the header row and maps each following row onto
// record keys by column name. It returns nil when no header is found.
func parseCSVTable(lines []string, columns map[string]string, isHeader func(string) bool) ([]record, error) {
	start := -1
	for i, line := range lines {
		if isHeader(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(strings.Join(lines[start:], "\n")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, domainerrors.Validationf("invalid CSV header: %v", err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = columns[columnKey(h)]
	}

	out := []record{}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domainerrors.Validationf("invalid CSV: %v", err)
		}
		if blankRow(row) {
			continue
		}
		rec := record{}
		for i, v := range row {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			key := keys[i]
			if v == "" && key != "number" && key != "tags" && key != "name" && key != "url" {
				continue
			}
			rec[key] = v
		}
		out = append(out, rec)
	}
	return out, nil
}

func columnKey(h string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(h)))
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
