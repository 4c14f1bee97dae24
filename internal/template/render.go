package template

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

// CheckedExample is the example value written for checkbox columns
const CheckedExample = "__YES__"

// HeaderMode selects what the template header row contains
type HeaderMode string

const (
	HeaderLabels    HeaderMode = "labels"
	HeaderTechnical HeaderMode = "technical"
)

// ParseHeaderMode validates a header mode name
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch HeaderMode(s) {
	case "", HeaderLabels:
		return HeaderLabels, nil
	case HeaderTechnical:
		return HeaderTechnical, nil
	default:
		return "", fmt.Errorf("invalid header mode %q (want %s or %s)", s, HeaderLabels, HeaderTechnical)
	}
}

// Template is a header row plus exactly one example row
type Template struct {
	Headers []string `json:"headers"`
	Row     []string `json:"row"`
}

// Render builds the one-row template of a catalog
func Render(cat *extraction.Catalog, mapping *Mapping, mode HeaderMode) *Template {
	fields := cat.Fields()
	t := &Template{
		Headers: make([]string, len(fields)),
		Row:     make([]string, len(fields)),
	}

	for i, f := range fields {
		header := f.Name
		if mode != HeaderTechnical && mapping != nil {
			if label, ok := mapping.Label(f.Name); ok {
				header = label
			}
		}
		t.Headers[i] = header
		t.Row[i] = ExampleValue(f)
	}

	return t
}

// ExampleValue returns the value shown for a field in a fresh template
func ExampleValue(f extraction.FormField) string {
	switch {
	case f.Kind == extraction.KindCheckbox:
		return CheckedExample
	case f.Kind == extraction.KindDropdown && len(f.Options) > 0:
		return f.Options[0]
	default:
		return ""
	}
}

// EncodeCSV writes the template as UTF-8 CSV with a byte-order mark
func EncodeCSV(t *Template) ([]byte, error) {
	var buf bytes.Buffer

	bomWriter := transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(bomWriter)

	if err := w.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("failed to write template header: %w", err)
	}
	if err := w.Write(t.Row); err != nil {
		return nil, fmt.Errorf("failed to write template row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush template: %w", err)
	}
	if err := bomWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}

	return buf.Bytes(), nil
}
