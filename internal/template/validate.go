package template

import (
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

// ValidationReport compares template columns with the fields of a form
type ValidationReport struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing_fields,omitempty"`
	Extra   []string `json:"extra_columns,omitempty"`
	Matched int      `json:"matched"`
}

// Validate checks headers against a catalog. Headers are resolved through
// mapping when given. Missing lists fields without a column in catalog order;
// Extra lists columns that match no field in header order.
func Validate(headers []string, cat *extraction.Catalog, mapping *Mapping) *ValidationReport {
	report := &ValidationReport{}
	present := make(map[string]bool, len(headers))

	for _, h := range headers {
		field := h
		if mapping != nil {
			if technical, ok := mapping.Technical(h); ok {
				field = technical
			}
		}

		f, ok := cat.Resolve(field)
		if !ok {
			report.Extra = append(report.Extra, h)
			continue
		}
		if !present[f.Name] {
			present[f.Name] = true
			report.Matched++
		}
	}

	for _, name := range cat.Names() {
		if !present[name] {
			report.Missing = append(report.Missing, name)
		}
	}

	report.Valid = len(report.Missing) == 0
	return report
}
