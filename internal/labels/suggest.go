// Package labels derives human-readable labels for technical field names.
package labels

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

var (
	trailingNumber = regexp.MustCompile(`(\d+)$`)
	camelBoundary  = regexp.MustCompile(`([a-z])([A-Z])`)
	separators     = regexp.MustCompile(`[_\-]`)
)

// Type hints appended to prettified labels of non-text fields
const (
	HintCheckbox = " (Sí/No)"
	HintDropdown = " (Seleccionar)"
	HintRadio    = " (Opción)"
)

// Suggester turns technical names into labels using a keyword table
type Suggester struct {
	table *KeywordTable
}

// NewSuggester creates a suggester; a nil table selects the built-in one
func NewSuggester(table *KeywordTable) *Suggester {
	if table == nil {
		table = DefaultKeywordTable()
	}
	return &Suggester{table: table}
}

// Suggest returns the label for a technical name. It never fails.
func (s *Suggester) Suggest(name string, kind extraction.Kind) string {
	if label, ok := s.table.Match(strings.ToLower(name)); ok {
		if m := trailingNumber.FindStringSubmatch(name); m != nil {
			return label + " " + m[1]
		}
		return label
	}

	return Prettify(name) + typeHint(kind)
}

// Prettify splits camel case, turns separators into spaces and title-cases the result
func Prettify(name string) string {
	readable := camelBoundary.ReplaceAllString(name, "$1 $2")
	readable = separators.ReplaceAllString(readable, " ")
	readable = strings.TrimSpace(readable)

	// cases.Caser is stateful, so each call gets its own
	return cases.Title(language.Und).String(readable)
}

func typeHint(kind extraction.Kind) string {
	switch kind {
	case extraction.KindCheckbox:
		return HintCheckbox
	case extraction.KindDropdown:
		return HintDropdown
	case extraction.KindRadio:
		return HintRadio
	default:
		return ""
	}
}
