package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcmespana/mcmAutoPDF/internal/labels"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

// fixedStrategy returns preset labels, for collision tests
type fixedStrategy []string

func (f fixedStrategy) Name() string { return "fixed" }

func (f fixedStrategy) Labels(*extraction.Catalog) []string { return f }

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

func TestBuildMapping_Scenario(t *testing.T) {
	m := BuildMapping(scenarioCatalog(t), nil)

	assert.Equal(t, []Entry{
		{Label: "Nombre", TechnicalName: "name"},
		{Label: "Correo electrónico", TechnicalName: "email_address"},
		{Label: "Accept Terms (Sí/No)", TechnicalName: "accept_terms"},
		{Label: "País", TechnicalName: "country"},
	}, m.Entries())
}

func TestBuildMapping_Idempotent(t *testing.T) {
	cat := scenarioCatalog(t)
	strategy := labels.NewKeywordHeuristic(nil)

	first := BuildMapping(cat, strategy)
	second := BuildMapping(cat, strategy)

	assert.Equal(t, first.Entries(), second.Entries())
	assert.Equal(t, RenderMappingText(first), RenderMappingText(second))
}

func TestBuildMapping_Collisions(t *testing.T) {
	cat, err := extraction.NewCatalog([]extraction.FormField{
		{Name: "name", Kind: extraction.KindText},
		{Name: "nombre", Kind: extraction.KindText},
		{Name: "first_name", Kind: extraction.KindText},
	}, 1, nil)
	require.NoError(t, err)

	m := BuildMapping(cat, nil)
	assert.Equal(t, []Entry{
		{Label: "Nombre", TechnicalName: "name"},
		{Label: "Nombre (nombre)", TechnicalName: "nombre"},
		{Label: "Nombre (first_name)", TechnicalName: "first_name"},
	}, m.Entries())

	for _, e := range m.Entries() {
		technical, ok := m.Technical(e.Label)
		require.True(t, ok)
		assert.Equal(t, e.TechnicalName, technical)
	}
}

func TestBuildMapping_QualifiedLabelTaken(t *testing.T) {
	cat, err := extraction.NewCatalog([]extraction.FormField{
		{Name: "a", Kind: extraction.KindText},
		{Name: "b", Kind: extraction.KindText},
		{Name: "c", Kind: extraction.KindText},
	}, 1, nil)
	require.NoError(t, err)

	m := BuildMapping(cat, fixedStrategy{"X", "X (c)", "X"})
	assert.Equal(t, []Entry{
		{Label: "X", TechnicalName: "a"},
		{Label: "X (c)", TechnicalName: "b"},
		{Label: "X (c) 2", TechnicalName: "c"},
	}, m.Entries())
}

func TestUniqueLabel(t *testing.T) {
	used := map[string]int{"Nombre": 0, "Nombre (x)": 1, "Nombre (x) 2": 2}

	assert.Equal(t, "Ciudad", UniqueLabel(used, "Ciudad", "city"))
	assert.Equal(t, "Nombre (y)", UniqueLabel(used, "Nombre", "y"))
	assert.Equal(t, "Nombre (x) 3", UniqueLabel(used, "Nombre", "x"))
	assert.Equal(t, "tech", UniqueLabel(used, "", "tech"))
	assert.Len(t, used, 3, "the accumulator is not modified")
}

func TestNewMapping(t *testing.T) {
	_, err := NewMapping([]Entry{{Label: "A", TechnicalName: "a"}, {Label: "A", TechnicalName: "b"}})
	assert.Error(t, err)

	_, err = NewMapping([]Entry{{Label: "A"}})
	assert.Error(t, err)

	m, err := NewMapping([]Entry{{Label: "A", TechnicalName: "a"}, {Label: "B", TechnicalName: "a"}})
	require.NoError(t, err)
	label, ok := m.Label("a")
	require.True(t, ok)
	assert.Equal(t, "A", label)
}
