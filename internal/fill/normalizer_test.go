package fill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
	"github.com/mcmespana/mcmAutoPDF/internal/template"
)

func scenarioCatalog(t *testing.T) *extraction.Catalog {
	t.Helper()
	cat, err := extraction.NewCatalog([]extraction.FormField{
		{Name: "name", Kind: extraction.KindText},
		{Name: "email_address", Kind: extraction.KindText},
		{Name: "accept_terms", Kind: extraction.KindCheckbox},
		{Name: "country", Kind: extraction.KindDropdown, Options: []string{"España", "Francia"}},
	}, 1, nil)
	require.NoError(t, err)
	return cat
}

func request(entries ...template.RequestEntry) *template.FillRequest {
	return &template.FillRequest{Entries: entries}
}

func entry(field, value string) template.RequestEntry {
	return template.RequestEntry{Header: field, Field: field, Value: value}
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		raw  string
		want Sentinel
	}{
		{"__YES__", SentinelChecked},
		{"yes", SentinelChecked},
		{"Yes", SentinelChecked},
		{"SI", SentinelChecked},
		{"sí", SentinelChecked},
		{"Sí", SentinelChecked},
		{"sí", SentinelChecked},
		{"true", SentinelChecked},
		{"1", SentinelChecked},
		{"x", SentinelChecked},
		{"X", SentinelChecked},
		{"__NO__", SentinelUnchecked},
		{"no", SentinelUnchecked},
		{"False", SentinelUnchecked},
		{"0", SentinelUnchecked},
		{"Juan", SentinelText},
		{"unchecked", SentinelText},
		{" yes", SentinelText},
		{"", SentinelText},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := NormalizeToken(tt.raw)
			assert.Equal(t, tt.want, got.Sentinel)
			assert.Equal(t, tt.raw, got.Raw)
		})
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "checked", NormalizeToken("sí").String())
	assert.Equal(t, "unchecked", NormalizeToken("NO").String())
	assert.Equal(t, "Francia", NormalizeToken("Francia").String())
}

func TestNormalize_Scenario(t *testing.T) {
	cat := scenarioCatalog(t)

	res, err := Normalize(request(
		entry("name", "Juan"),
		entry("email_address", "juan@x.com"),
		entry("accept_terms", "__NO__"),
		entry("country", "Francia"),
	), cat)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Used)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, map[string]string{
		"name":          "Juan",
		"email_address": "juan@x.com",
		"accept_terms":  "unchecked",
		"country":       "Francia",
	}, res.Map())
}

func TestNormalize_DropsUnknownColumns(t *testing.T) {
	cat := scenarioCatalog(t)

	res, err := NewNormalizer(2, nil).Normalize(request(
		entry("name", "Juan"),
		entry("Extra", "ignored"),
		entry("phone", "600"),
	), cat)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Used)
	assert.Equal(t, []string{"Extra", "phone"}, res.Dropped)

	_, warnings := res.Warnings.Count()
	assert.Equal(t, 2, warnings)
	assert.Contains(t, res.Warnings.Summary(5), "dropped columns: Extra, phone")

	v, ok := res.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "Juan", v.Raw)

	_, ok = res.Lookup("Extra")
	assert.False(t, ok)
}

func TestNormalize_SkipsEmptyValues(t *testing.T) {
	cat := scenarioCatalog(t)

	res, err := Normalize(request(entry("name", ""), entry("country", "España")), cat)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Used)
	_, ok := res.Lookup("name")
	assert.False(t, ok)
}

func TestNormalize_NoMatchingFields(t *testing.T) {
	cat := scenarioCatalog(t)

	tests := []struct {
		name    string
		req     *template.FillRequest
		message string
	}{
		{
			name:    "no column matches",
			req:     request(entry("foo", "1"), entry("bar", "2")),
			message: "no column matched a form field",
		},
		{
			name:    "matching columns are empty",
			req:     request(entry("name", ""), entry("foo", "1")),
			message: "every column matching a form field is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.req, cat)
			require.Error(t, err)
			assert.True(t, formerrors.IsType(err, formerrors.ErrorTypeNoMatchingFields))
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, formerrors.StageFill, formerrors.StageOf(err))
		})
	}
}

func TestNormalize_EmptyRequest(t *testing.T) {
	res, err := Normalize(request(), scenarioCatalog(t))
	require.NoError(t, err)
	assert.Zero(t, res.Used)
	assert.Empty(t, res.Values)
}

func TestNormalize_RoundTripKeepsSpacedNames(t *testing.T) {
	cat, err := extraction.NewCatalog([]extraction.FormField{
		{Name: "Text1 ", Kind: extraction.KindText},
		{Name: "Check Box2", Kind: extraction.KindCheckbox},
	}, 1, nil)
	require.NoError(t, err)

	mapping := template.MappingFromLabels(cat, []string{"Texto", "Casilla (Sí/No)"})

	for _, mode := range []template.HeaderMode{template.HeaderLabels, template.HeaderTechnical} {
		t.Run(string(mode), func(t *testing.T) {
			tpl := template.Render(cat, mapping, mode)
			tpl.Row[0] = "hola"
			data, err := template.EncodeCSV(tpl)
			require.NoError(t, err)

			req, err := template.Read(data, template.RenderMappingText(mapping))
			require.NoError(t, err)

			res, err := Normalize(req, cat)
			require.NoError(t, err)
			assert.Empty(t, res.Dropped)
			assert.Equal(t, map[string]string{"Text1 ": "hola", "Check Box2": "checked"}, res.Map())
		})
	}
}
