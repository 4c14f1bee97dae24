// Package fill normalizes spreadsheet values and writes them into PDF forms.
package fill

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
	"github.com/mcmespana/mcmAutoPDF/internal/template"
)

// Sentinel classifies a normalized value
type Sentinel int

const (
	SentinelText Sentinel = iota
	SentinelChecked
	SentinelUnchecked
)

// String returns the sentinel name
func (s Sentinel) String() string {
	switch s {
	case SentinelChecked:
		return "checked"
	case SentinelUnchecked:
		return "unchecked"
	default:
		return "text"
	}
}

var (
	truthy = tokenSet("__YES__", "YES", "SI", "SÍ", "TRUE", "1", "X")
	falsy  = tokenSet("__NO__", "NO", "FALSE", "0")
)

func tokenSet(tokens ...string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[norm.NFC.String(t)] = true
	}
	return set
}

// Value is a writer-safe value: a checkbox sentinel or pass-through text
type Value struct {
	Sentinel Sentinel `json:"sentinel"`
	Raw      string   `json:"raw"`
}

// String returns "checked", "unchecked" or the raw text
func (v Value) String() string {
	if v.Sentinel == SentinelText {
		return v.Raw
	}
	return v.Sentinel.String()
}

// NormalizeToken maps a raw cell to a sentinel when it is a yes/no token.
// Matching ignores case but not surrounding whitespace.
func NormalizeToken(raw string) Value {
	key := norm.NFC.String(strings.ToUpper(raw))
	switch {
	case truthy[key]:
		return Value{Sentinel: SentinelChecked, Raw: raw}
	case falsy[key]:
		return Value{Sentinel: SentinelUnchecked, Raw: raw}
	default:
		return Value{Sentinel: SentinelText, Raw: raw}
	}
}

// FieldValue is a normalized value for one technical name
type FieldValue struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Result is the outcome of normalizing a fill request
type Result struct {
	Values []FieldValue `json:"values"`
	// Dropped lists request headers whose field is not in the form
	Dropped  []string                   `json:"dropped,omitempty"`
	Used     int                        `json:"used"`
	Warnings *formerrors.ErrorCollection `json:"warnings"`
}

// Lookup returns the value normalized for a field
func (r *Result) Lookup(field string) (Value, bool) {
	for _, fv := range r.Values {
		if fv.Field == field {
			return fv.Value, true
		}
	}
	return Value{}, false
}

// Map returns the values as technical name -> string form
func (r *Result) Map() map[string]string {
	out := make(map[string]string, len(r.Values))
	for _, fv := range r.Values {
		out[fv.Field] = fv.Value.String()
	}
	return out
}

// Normalizer filters fill requests against a catalog
type Normalizer struct {
	previewLimit int
	logger       *zap.Logger
}

// NewNormalizer creates a normalizer; previewLimit bounds column lists in errors
func NewNormalizer(previewLimit int, logger *zap.Logger) *Normalizer {
	if previewLimit <= 0 {
		previewLimit = formerrors.DefaultPreviewLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{previewLimit: previewLimit, logger: logger}
}

// Normalize uses a silent normalizer with the default preview limit
func Normalize(req *template.FillRequest, cat *extraction.Catalog) (*Result, error) {
	return NewNormalizer(0, nil).Normalize(req, cat)
}

// Normalize converts raw request values into writer-safe values. Columns
// unknown to the catalog are dropped and reported; empty values are skipped.
// Values are keyed by the catalog's own spelling of the field name.
// It fails when the request had columns but nothing could be used.
func (n *Normalizer) Normalize(req *template.FillRequest, cat *extraction.Catalog) (*Result, error) {
	res := &Result{Warnings: formerrors.NewErrorCollection()}
	if req == nil || req.Len() == 0 {
		return res, nil
	}

	matched := 0
	for _, e := range req.Entries {
		field, ok := cat.Resolve(e.Field)
		if !ok {
			res.Dropped = append(res.Dropped, e.Header)
			res.Warnings.Add(formerrors.UnknownField(e.Header))
			continue
		}
		matched++

		if e.Value == "" {
			continue
		}

		res.Values = append(res.Values, FieldValue{Field: field.Name, Value: NormalizeToken(e.Value)})
	}
	res.Used = len(res.Values)

	if len(res.Dropped) > 0 {
		n.logger.Warn("dropping columns that match no form field",
			zap.Int("count", len(res.Dropped)),
			zap.String("columns", formerrors.Preview(res.Dropped, n.previewLimit)))
	}

	if res.Used == 0 {
		reason := "no column matched a form field"
		if matched > 0 {
			reason = "every column matching a form field is empty"
		}
		return nil, formerrors.NoMatchingFields(reason, res.Dropped, n.previewLimit)
	}

	n.logger.Debug("normalized fill request",
		zap.Int("columns", req.Len()),
		zap.Int("used", res.Used))

	return res, nil
}
