package codec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobbricks/noob-bricks/internal/codec"
	"github.com/noobbricks/noob-bricks/internal/domain"
)

func TestExportCSV(t *testing.T) {
	items := []domain.Brick{{
		ID: "brick-1", Number: "3001", Title: "Cool, brick", Tags: []string{"red", "blue"},
		CreatedAt: created, UpdatedAt: created,
	}}
	links := []domain.ExternalLink{{ID: "link-1", Name: "Shop", URL: "https://example.com/?q=", Enabled: true}}

	out, err := codec.Export(codec.FormatCSV, items, links)
	require.NoError(t, err)

	want := "[BRICKS]\n" +
		"Number,Title,Tags,Image URL,Created At,Updated At\n" +
		"3001,\"Cool, brick\",red; blue,,2023-06-01T12:00:00.000Z,2023-06-01T12:00:00.000Z\n" +
		"\n" +
		"[EXTERNAL_LINKS]\n" +
		"ID,Name,URL,Enabled\n" +
		"link-1,Shop,https://example.com/?q=,true\n"
	assert.Equal(t, want, out)
}

func TestImportCSV_CommaInTitle(t *testing.T) {
	items := []domain.Brick{{
		ID: "brick-1", Number: "3001", Title: "Cool, brick", Tags: []string{},
		CreatedAt: created, UpdatedAt: created,
	}}
	out, err := codec.Export(codec.FormatCSV, items, nil)
	require.NoError(t, err)

	got, err := codec.ImportAt(codec.FormatCSV, out, now)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Cool, brick", got.Items[0].Title)
}

func TestImportCSV_LegacyHeader(t *testing.T) {
	content := "Number,Title,Tags,Created At,Updated At\r\n" +
		"3001,Brick 2x4,red; blue,2023-01-01T00:00:00.000Z,2023-01-02T00:00:00.000Z\r\n" +
		"\r\n" +
		"3003,,,,\r\n"

	got, err := codec.ImportAt(codec.FormatCSV, content, now)
	require.NoError(t, err)

	require.Len(t, got.Items, 2)
	first := got.Items[0]
	assert.Equal(t, "3001", first.Number)
	assert.Equal(t, "Brick 2x4", first.Title)
	assert.Equal(t, []string{"red", "blue"}, first.Tags)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), first.CreatedAt)
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), first.UpdatedAt)
	assert.True(t, first.Image.IsZero())

	second := got.Items[1]
	assert.Equal(t, "3003", second.Number)
	assert.Equal(t, []string{}, second.Tags)
	assert.Equal(t, now, second.CreatedAt)
	assert.False(t, got.HasExternalLinks())
}

func TestImportCSV_ColumnsByName(t *testing.T) {
	content := "[BRICKS]\n" +
		"Title,Number,Image URL\n" +
		"\"Plate\n2x4\",3020,img-plate\n"

	got, err := codec.ImportAt(codec.FormatCSV, content, now)
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.Equal(t, "3020", got.Items[0].Number)
	assert.Equal(t, "Plate\n2x4", got.Items[0].Title)
	assert.Equal(t, domain.ReferenceImage("img-plate"), got.Items[0].Image)
}

func TestImportCSV_Links(t *testing.T) {
	content := "[BRICKS]\n" +
		"Number,Title\n" +
		"1,One\n" +
		"\n" +
		"[EXTERNAL_LINKS]\n" +
		"ID,Name,URL,Enabled\n" +
		",Shop,https://example.com/?q=,FALSE\n" +
		"link-2,Other,https://other.example/?q=,maybe\n"

	got, err := codec.ImportAt(codec.FormatCSV, content, now)
	require.NoError(t, err)

	require.Len(t, got.ExternalLinks, 2)
	assert.NotEmpty(t, got.ExternalLinks[0].ID)
	assert.False(t, got.ExternalLinks[0].Enabled)
	assert.Equal(t, "link-2", got.ExternalLinks[1].ID)
	assert.True(t, got.ExternalLinks[1].Enabled)
}

func TestImportCSV_EmptyLinkSection(t *testing.T) {
	content := "[BRICKS]\nNumber\n1\n\n[EXTERNAL_LINKS]\nID,Name,URL,Enabled\n"

	got, err := codec.ImportAt(codec.FormatCSV, content, now)
	require.NoError(t, err)
	assert.True(t, got.HasExternalLinks())
	assert.Empty(t, got.ExternalLinks)
}

func TestImportCSV_MissingNumber(t *testing.T) {
	content := "Number,Title\n1,One\n,Two\n"

	_, err := codec.ImportAt(codec.FormatCSV, content, now)
	detail := fieldDetail(t, err)
	assert.Equal(t, 1, detail.Index)
	assert.Equal(t, "number", detail.Field)
}
