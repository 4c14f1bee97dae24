package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
)

func TestRenderMappingText_RoundTrip(t *testing.T) {
	m, err := NewMapping([]Entry{
		{Label: "Nombre", TechnicalName: "name"},
		{Label: "Accept Terms (Sí/No)", TechnicalName: "accept_terms"},
		{Label: "# not a comment", TechnicalName: "hash"},
		{Label: "A → B", TechnicalName: "arrow_in_label"},
	})
	require.NoError(t, err)

	text := RenderMappingText(m)
	assert.Contains(t, string(text), "Nombre\n→ name\n\n")

	parsed, err := ParseMappingText(text)
	require.NoError(t, err)
	assert.Equal(t, m.Entries(), parsed.Entries())
}

func TestParseMappingText_Grammars(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Entry
	}{
		{
			name: "block form",
			text: "Nombre\n→ name\n\nPaís\n→ country\n",
			want: []Entry{{Label: "Nombre", TechnicalName: "name"}, {Label: "País", TechnicalName: "country"}},
		},
		{
			name: "legacy single line form with header",
			text: "=== MAPEO DE CAMPOS ===\nMapeo automático de etiquetas a nombres técnicos del PDF\n\nNombre → name\nPaís → country\n",
			want: []Entry{{Label: "Nombre", TechnicalName: "name"}, {Label: "País", TechnicalName: "country"}},
		},
		{
			name: "mixed forms with CRLF and BOM",
			text: "\xef\xbb\xbfNombre\r\n→ name\r\n\r\nPaís → country\r\n",
			want: []Entry{{Label: "Nombre", TechnicalName: "name"}, {Label: "País", TechnicalName: "country"}},
		},
		{
			name: "extra whitespace",
			text: "  Nombre  \n→    name   \n",
			want: []Entry{{Label: "Nombre", TechnicalName: "name"}},
		},
		{
			name: "repeated identical record",
			text: "Nombre → name\nNombre → name\n",
			want: []Entry{{Label: "Nombre", TechnicalName: "name"}},
		},
		{
			name: "legacy line splits on the last arrow",
			text: "A → B → tech\n",
			want: []Entry{{Label: "A → B", TechnicalName: "tech"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMappingText([]byte(tt.text))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Entries())
		})
	}
}

func TestParseMappingText_Errors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine string
	}{
		{name: "empty", text: ""},
		{name: "only comments", text: "# nothing\n=== here ===\n"},
		{name: "arrow without label", text: "Nombre\n→ name\n\n→ orphan\n", wantLine: "line 4"},
		{name: "empty technical name", text: "Nombre\n→\n", wantLine: "line 1"},
		{name: "leading arrow", text: "→ name → x\n", wantLine: "line 1"},
		{name: "dangling label", text: "Nombre\n→ name\n\nPaís\n", wantLine: "line 4"},
		{name: "conflicting label", text: "Nombre → name\nNombre → first_name\n", wantLine: "line 2"},
		{name: "invalid utf8", text: "Nombre\xff → name\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMappingText([]byte(tt.text))
			require.Error(t, err)
			assert.True(t, formerrors.IsType(err, formerrors.ErrorTypeMappingParse))
			assert.Equal(t, formerrors.StageMapping, formerrors.StageOf(err))
			if tt.wantLine != "" {
				assert.Contains(t, err.Error(), tt.wantLine)
			}
		})
	}
}
