package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinks(t *testing.T) {
	t.Parallel()

	c := newTestCLI(t)
	assert.Contains(t, c.mustRun("links", "ls"), "BrickLink")

	linkID := c.mustRun("links", "add", "Rebrickable", "https://rebrickable.com/search/?q=")
	assert.True(t, strings.HasPrefix(linkID, "link-"), "got %q", linkID)

	brickID := c.mustRun("add", "3001")
	assert.Contains(t, c.mustRun("show", brickID), "link:    Rebrickable https://rebrickable.com/search/?q=3001")

	assert.Equal(t, "Disabled "+linkID, c.mustRun("links", "toggle", linkID))
	assert.NotContains(t, c.mustRun("show", brickID), "Rebrickable")
	assert.Contains(t, c.mustRun("links"), "disabled")

	assert.Equal(t, "Enabled "+linkID, c.mustRun("links", "toggle", linkID))

	c.mustRun("links", "rm", linkID)
	assert.NotContains(t, c.mustRun("links"), linkID)
}

func TestLinks_AddDisabled(t *testing.T) {
	t.Parallel()

	c := newTestCLI(t)
	linkID := c.mustRun("links", "add", "--disabled", "Peeron", "https://www.peeron.com/inv/parts/")

	for _, line := range strings.Split(c.mustRun("links"), "\n") {
		if strings.HasPrefix(line, linkID) {
			assert.Contains(t, line, "disabled")
		}
	}
}

func TestLinks_Errors(t *testing.T) {
	t.Parallel()

	c := newTestCLI(t)

	tests := []struct {
		name       string
		args       []string
		wantStderr string
	}{
		{name: "unknown action", args: []string{"links", "rename"}, wantStderr: "links action must be one of"},
		{name: "add missing url", args: []string{"links", "add", "Broken"}, wantStderr: "usage: links add"},
		{name: "add invalid url", args: []string{"links", "add", "Broken", "not a url"}, wantStderr: "url"},
		{name: "rm missing id", args: []string{"links", "rm"}, wantStderr: "link ID is required"},
		{name: "toggle unknown", args: []string{"links", "toggle", "link-missing"}, wantStderr: "link-missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stderr := c.mustFail(tt.args...)
			assert.Contains(t, stderr, tt.wantStderr)
		})
	}
}
