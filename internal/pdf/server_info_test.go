package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerInfo_GetServerInfo(t *testing.T) {
	s, dir := newTestService(t, nil)
	writeFile(t, dir, "solicitud.pdf", scenarioForm())

	info := NewServerInfo(s)
	res, err := info.GetServerInfo(context.Background(), "mcp-pdf-forms", "1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "mcp-pdf-forms", res.ServerName)
	assert.Equal(t, "1.2.3", res.Version)
	assert.Equal(t, dir, res.DefaultDirectory)
	assert.Equal(t, "keyword", res.LabelStrategy)
	assert.NotEmpty(t, res.KeywordTable)
	assert.Contains(t, res.UsageGuidance, "pdf_form_template")
	require.Len(t, res.DirectoryContents, 1)
	assert.Equal(t, FileKindForm, res.DirectoryContents[0].Kind)

	var names []string
	for _, tool := range res.AvailableTools {
		names = append(names, tool.Name)
		assert.NotEqual(t, "Tool description not available", tool.Description)
	}
	assert.Equal(t, []string{"pdf_form_fields", "pdf_form_template", "pdf_form_fill", "pdf_server_info"}, names)

	// listing is cached until cleared
	writeFile(t, dir, "otro.pdf", scenarioForm())
	res, err = info.GetServerInfo(context.Background(), "mcp-pdf-forms", "1.2.3")
	require.NoError(t, err)
	assert.Len(t, res.DirectoryContents, 1)

	info.ClearCache()
	res, err = info.GetServerInfo(context.Background(), "mcp-pdf-forms", "1.2.3")
	require.NoError(t, err)
	assert.Len(t, res.DirectoryContents, 2)
}

func TestDirectoryCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewDirectoryCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("/forms", []FileInfo{{Name: "a.pdf"}})
	files, ok := c.Get("/forms")
	require.True(t, ok)
	assert.Len(t, files, 1)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("/forms")
	assert.False(t, ok)

	_, ok = c.Get("/other")
	assert.False(t, ok)
}
