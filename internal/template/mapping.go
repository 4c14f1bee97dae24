// Package template converts between form catalogs and spreadsheet templates.
package template

import (
	"fmt"
	"strconv"

	"github.com/mcmespana/mcmAutoPDF/internal/labels"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

// Entry pairs a template label with a technical field name
type Entry struct {
	Label         string `json:"label"`
	TechnicalName string `json:"technical_name"`
}

// Mapping is an ordered, label-unique table of entries
type Mapping struct {
	entries []Entry
	byLabel map[string]int
	byField map[string]int
}

// NewMapping validates entries and builds a mapping.
// Labels must be unique; a technical name may appear under several labels.
func NewMapping(entries []Entry) (*Mapping, error) {
	m := &Mapping{
		entries: make([]Entry, 0, len(entries)),
		byLabel: make(map[string]int, len(entries)),
		byField: make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		if e.Label == "" || e.TechnicalName == "" {
			return nil, fmt.Errorf("mapping entry %q → %q is incomplete", e.Label, e.TechnicalName)
		}
		if _, dup := m.byLabel[e.Label]; dup {
			return nil, fmt.Errorf("duplicate label %q", e.Label)
		}
		m.add(e)
	}

	return m, nil
}

func (m *Mapping) add(e Entry) {
	m.byLabel[e.Label] = len(m.entries)
	if _, seen := m.byField[e.TechnicalName]; !seen {
		m.byField[e.TechnicalName] = len(m.entries)
	}
	m.entries = append(m.entries, e)
}

// Entries returns a copy of the entries in order
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries
func (m *Mapping) Len() int {
	return len(m.entries)
}

// Technical resolves a label to its technical name
func (m *Mapping) Technical(label string) (string, bool) {
	i, ok := m.byLabel[label]
	if !ok {
		return "", false
	}
	return m.entries[i].TechnicalName, true
}

// Label returns the first label registered for a technical name
func (m *Mapping) Label(technical string) (string, bool) {
	i, ok := m.byField[technical]
	if !ok {
		return "", false
	}
	return m.entries[i].Label, true
}

// BuildMapping labels every catalog field with strategy and makes the labels unique.
// Identical catalogs always yield identical mappings.
func BuildMapping(cat *extraction.Catalog, strategy labels.Strategy) *Mapping {
	if strategy == nil {
		strategy = labels.NewKeywordHeuristic(nil)
	}

	return MappingFromLabels(cat, strategy.Labels(cat))
}

// MappingFromLabels folds precomputed labels, one per field in catalog order,
// into a unique mapping
func MappingFromLabels(cat *extraction.Catalog, suggested []string) *Mapping {
	fields := cat.Fields()

	m := &Mapping{
		entries: make([]Entry, 0, len(fields)),
		byLabel: make(map[string]int, len(fields)),
		byField: make(map[string]int, len(fields)),
	}

	for i, f := range fields {
		var label string
		if i < len(suggested) {
			label = suggested[i]
		}
		m.add(Entry{Label: UniqueLabel(m.byLabel, label, f.Name), TechnicalName: f.Name})
	}

	return m
}

// UniqueLabel returns label when unused, else "label (technical)", else that
// form followed by the lowest free counter starting at 2. It does not modify used.
func UniqueLabel(used map[string]int, label, technical string) string {
	if label == "" {
		label = technical
	}
	if _, taken := used[label]; !taken {
		return label
	}

	qualified := label + " (" + technical + ")"
	if _, taken := used[qualified]; !taken {
		return qualified
	}

	for n := 2; ; n++ {
		candidate := qualified + " " + strconv.Itoa(n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}
