package template

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

func TestRender_Scenario(t *testing.T) {
	cat := scenarioCatalog(t)
	m := BuildMapping(cat, nil)

	tpl := Render(cat, m, HeaderLabels)
	assert.Equal(t, []string{"Nombre", "Correo electrónico", "Accept Terms (Sí/No)", "País"}, tpl.Headers)
	assert.Equal(t, []string{"", "", "__YES__", "España"}, tpl.Row)

	technical := Render(cat, m, HeaderTechnical)
	assert.Equal(t, []string{"name", "email_address", "accept_terms", "country"}, technical.Headers)
}

func TestEncodeCSV_BOM(t *testing.T) {
	data, err := EncodeCSV(&Template{Headers: []string{"Nombre", "Sí, claro"}, Row: []string{"", "__YES__"}})
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(data, []byte("\xef\xbb\xbf")))
	assert.Equal(t, "\xef\xbb\xbfNombre,\"Sí, claro\"\n,__YES__\n", string(data))
}

func TestRoundTrip(t *testing.T) {
	cat := scenarioCatalog(t)
	m := BuildMapping(cat, nil)

	data, err := EncodeCSV(Render(cat, m, HeaderLabels))
	require.NoError(t, err)

	req, err := Read(data, RenderMappingText(m))
	require.NoError(t, err)

	got := map[string]string{}
	for _, e := range req.Entries {
		got[e.Field] = e.Value
	}
	assert.Equal(t, map[string]string{
		"name":          "",
		"email_address": "",
		"accept_terms":  "__YES__",
		"country":       "España",
	}, got)
}

func TestRead(t *testing.T) {
	mapping := []byte("Nombre\n→ name\n\nPaís\n→ country\n")

	tests := []struct {
		name        string
		tabular     string
		mapping     []byte
		want        []RequestEntry
		wantIgnored []string
	}{
		{
			name:    "labels through mapping, unknown header passes through",
			tabular: "\xef\xbb\xbfNombre,País,email\nJuan,Francia,j@x.com\n",
			mapping: mapping,
			want: []RequestEntry{
				{Header: "Nombre", Field: "name", Value: "Juan"},
				{Header: "País", Field: "country", Value: "Francia"},
				{Header: "email", Field: "email", Value: "j@x.com"},
			},
		},
		{
			name:    "no mapping treats headers as technical names",
			tabular: "name,country\nJuan,Francia\n",
			want: []RequestEntry{
				{Header: "name", Field: "name", Value: "Juan"},
				{Header: "country", Field: "country", Value: "Francia"},
			},
		},
		{
			name:    "only the first data row is read",
			tabular: "name\nJuan\nPedro\n",
			want:    []RequestEntry{{Header: "name", Field: "name", Value: "Juan"}},
		},
		{
			name:    "missing cells and NaN become empty",
			tabular: "a,b,c,d\nnan,<NA>,x\n",
			want: []RequestEntry{
				{Header: "a", Field: "a", Value: ""},
				{Header: "b", Field: "b", Value: ""},
				{Header: "c", Field: "c", Value: "x"},
				{Header: "d", Field: "d", Value: ""},
			},
		},
		{
			name:    "header only",
			tabular: "name,country\n",
			want: []RequestEntry{
				{Header: "name", Field: "name", Value: ""},
				{Header: "country", Field: "country", Value: ""},
			},
		},
		{
			name:        "duplicate columns keep the first",
			tabular:     "Nombre,name\nJuan,Pedro\n",
			mapping:     mapping,
			want:        []RequestEntry{{Header: "Nombre", Field: "name", Value: "Juan"}},
			wantIgnored: []string{"name"},
		},
		{
			name:    "semicolon separated export",
			tabular: "name;country\nJuan;Francia\n",
			want: []RequestEntry{
				{Header: "name", Field: "name", Value: "Juan"},
				{Header: "country", Field: "country", Value: "Francia"},
			},
		},
		{
			name:    "values are not trimmed",
			tabular: "name\n\" Juan \"\n",
			want:    []RequestEntry{{Header: "name", Field: "name", Value: " Juan "}},
		},
		{
			name:    "empty input",
			tabular: "",
			want:    []RequestEntry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Read([]byte(tt.tabular), tt.mapping)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Entries)
			assert.Equal(t, tt.wantIgnored, req.Ignored)
		})
	}
}

func TestRead_MappingErrorsPropagate(t *testing.T) {
	_, err := Read([]byte("a\n1\n"), []byte("→ orphan\n"))
	require.Error(t, err)
	assert.True(t, formerrors.IsType(err, formerrors.ErrorTypeMappingParse))
}

func TestRead_MalformedCSV(t *testing.T) {
	_, err := Read([]byte("a,b\n\"unterminated,1\n"), nil)
	if err != nil {
		assert.True(t, formerrors.IsType(err, formerrors.ErrorTypeTemplateParse))
	}
}

func TestFillRequest_Value(t *testing.T) {
	req, err := Read([]byte("name\nJuan\n"), nil)
	require.NoError(t, err)

	v, ok := req.Value("name")
	assert.True(t, ok)
	assert.Equal(t, "Juan", v)

	_, ok = req.Value("missing")
	assert.False(t, ok)
}

func TestRenderInfo(t *testing.T) {
	cat, err := extraction.NewCatalog([]extraction.FormField{
		{Name: "accept_terms", Kind: extraction.KindCheckbox, Required: true},
		{Name: "country", Kind: extraction.KindDropdown, Options: []string{"España", "Francia"},
			Location: &extraction.Location{PageIndex: 1}},
	}, 2, nil)
	require.NoError(t, err)

	info := string(RenderInfo(cat, BuildMapping(cat, nil)))

	assert.Contains(t, info, "Accept Terms (Sí/No)\n   Nombre técnico: accept_terms\n   Tipo: casilla\n   Obligatorio: sí\n")
	assert.Contains(t, info, "Valores: __YES__ o __NO__")
	assert.Contains(t, info, "País\n   Nombre técnico: country")
	assert.Contains(t, info, "Opciones: España, Francia")
	assert.Contains(t, info, "Página: 2")
}

func TestValidate(t *testing.T) {
	cat := scenarioCatalog(t)
	m := BuildMapping(cat, nil)

	report := Validate([]string{"Nombre", "country", "extra"}, cat, m)
	assert.False(t, report.Valid)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, []string{"email_address", "accept_terms"}, report.Missing)
	assert.Equal(t, []string{"extra"}, report.Extra)

	full := Validate([]string{"name", "email_address", "accept_terms", "country"}, cat, nil)
	assert.True(t, full.Valid)
	assert.Empty(t, full.Extra)
}

func TestParseHeaderMode(t *testing.T) {
	mode, err := ParseHeaderMode("")
	require.NoError(t, err)
	assert.Equal(t, HeaderLabels, mode)

	mode, err = ParseHeaderMode("technical")
	require.NoError(t, err)
	assert.Equal(t, HeaderTechnical, mode)

	_, err = ParseHeaderMode("both")
	assert.Error(t, err)
}
