package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": FormatJSON, ".CSV": FormatCSV, " xml ": FormatXML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("yaml")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnsupportedFormat))
}

func TestFormatFromFilename(t *testing.T) {
	f, err := FormatFromFilename("/tmp/bricks-1.XML")
	require.NoError(t, err)
	assert.Equal(t, FormatXML, f)

	for _, name := range []string{"bricks.txt", "bricks"} {
		_, err := FormatFromFilename(name)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrUnsupportedFormat), name)
		assert.Contains(t, err.Error(), name)
	}
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "application/json", FormatJSON.MIMEType())
	assert.Equal(t, "text/csv", FormatCSV.MIMEType())
	assert.Equal(t, "application/xml", FormatXML.MIMEType())
	assert.Equal(t, ".csv", FormatCSV.Extension())
	assert.Equal(t, "bricks-1700000000123.json", Filename(FormatJSON, time.UnixMilli(1700000000123)))
}

func TestLogicalLines(t *testing.T) {
	got := logicalLines("a,\"b\nc\"\nd\n")
	assert.Equal(t, []string{"a,\"b\nc\"", "d"}, got)
}

func TestSectionMarker(t *testing.T) {
	name, ok := sectionMarker(" [external_links] ")
	assert.True(t, ok)
	assert.Equal(t, "EXTERNAL_LINKS", name)

	_, ok = sectionMarker("[1,2]")
	assert.False(t, ok)
}
