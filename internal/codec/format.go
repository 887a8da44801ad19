package codec

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

// Format is an interchange file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatXML}
}

// ParseFormat accepts a format name or extension such as "csv" or ".CSV".
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch f {
	case FormatJSON, FormatCSV, FormatXML:
		return f, nil
	default:
		return "", domainerrors.UnsupportedFormat(s)
	}
}

// FormatFromFilename picks the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", domainerrors.UnsupportedFormat(name)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", domainerrors.UnsupportedFormat(name)
	}
	return f, nil
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// MIMEType returns the content type used when serving an export.
func (f Format) MIMEType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatXML:
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}

// Filename returns the default export file name, bricks-<unix millis>.<ext>.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("bricks-%d%s", now.UnixMilli(), f.Extension())
}
