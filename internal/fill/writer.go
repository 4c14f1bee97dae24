package fill

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

// RadioOff is the value that clears a radio group
const RadioOff = "Off"

// ErrRecoverable marks whole-document failures that a page-by-page fill may avoid
var ErrRecoverable = errors.New("recoverable fill error")

// FieldFill is a value resolved against its field's kind
type FieldFill struct {
	Field   extraction.FormField
	Text    string // text, dropdown and radio fields
	Checked bool   // checkbox fields
}

// Engine applies field fills to PDF bytes
type Engine interface {
	// FillDocument fills every field in one pass
	FillDocument(src []byte, fills []FieldFill) ([]byte, error)
	// FillPage fills the fields of one 0-based page
	FillPage(src []byte, page int, fills []FieldFill) ([]byte, error)
	// Flatten turns widgets into static page content
	Flatten(src []byte) ([]byte, error)
}

// WriteResult is a filled document and how it was produced
type WriteResult struct {
	PDF     []byte   `json:"-"`
	Filled  []string `json:"filled"`
	Skipped []string `json:"skipped,omitempty"`
	// PagesFilled counts pages accepted by the page-by-page fallback
	PagesFilled int  `json:"pages_filled,omitempty"`
	Fallback    bool `json:"fallback"`
	Flattened   bool `json:"flattened"`
	// FlattenError is set when flattening was requested and failed
	FlattenError string `json:"flatten_error,omitempty"`
}

// Writer runs the fill state machine over an Engine
type Writer struct {
	engine Engine
	logger *zap.Logger
}

// NewWriter creates a writer; a nil engine selects the pdfcpu engine
func NewWriter(engine Engine, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = NewPDFCPUEngine(logger)
	}
	return &Writer{engine: engine, logger: logger}
}

// Fill writes values into a copy of the catalog's source document
func (w *Writer) Fill(cat *extraction.Catalog, values []FieldValue, flatten bool) (*WriteResult, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, formerrors.WriteIO("form has no known fields", nil)
	}

	src := cat.Source()
	if len(src) == 0 {
		return nil, formerrors.WriteIO("form source is empty", nil)
	}

	fills, skipped := w.Plan(cat, values)
	if len(fills) == 0 {
		return nil, formerrors.WriteIO("no value targets a writable field", nil)
	}

	res := &WriteResult{Skipped: skipped}
	for _, f := range fills {
		res.Filled = append(res.Filled, f.Field.Name)
	}

	out, err := w.engine.FillDocument(src, fills)
	switch {
	case err == nil:
	case errors.Is(err, ErrRecoverable):
		w.logger.Warn("whole-document fill failed, retrying page by page", zap.Error(err))
		out, res.PagesFilled, err = w.fillByPage(src, cat.PageCount(), fills)
		if err != nil {
			return nil, err
		}
		res.Fallback = true
	default:
		return nil, formerrors.WriteIO("failed to fill form", err)
	}

	if flatten {
		flat, err := w.engine.Flatten(out)
		if err != nil {
			w.logger.Warn("flatten failed, returning editable document", zap.Error(err))
			res.FlattenError = err.Error()
		} else {
			out = flat
			res.Flattened = true
		}
	}

	res.PDF = out
	return res, nil
}

// Plan resolves sentinels against field kinds without writing anything.
// Values for unknown or unsupported fields, and choices the field does not
// offer, are returned as skipped.
func (w *Writer) Plan(cat *extraction.Catalog, values []FieldValue) ([]FieldFill, []string) {
	var fills []FieldFill
	var skipped []string

	for _, fv := range values {
		field, ok := cat.Lookup(fv.Field)
		if !ok {
			skipped = append(skipped, fv.Field)
			continue
		}

		fill := FieldFill{Field: field}
		switch field.Kind {
		case extraction.KindCheckbox:
			if fv.Value.Sentinel == SentinelText {
				w.logger.Warn("checkbox value is not a yes/no token, leaving it untouched",
					zap.String("field", field.Name), zap.String("value", fv.Value.Raw))
				skipped = append(skipped, fv.Field)
				continue
			}
			fill.Checked = fv.Value.Sentinel == SentinelChecked
		case extraction.KindRadio:
			fill.Text = radioValue(field, fv.Value)
			if fill.Text != RadioOff && !acceptsChoice(field, fill.Text) {
				w.rejectChoice(field, fill.Text)
				skipped = append(skipped, fv.Field)
				continue
			}
		case extraction.KindDropdown:
			fill.Text = fv.Value.Raw
			if !acceptsChoice(field, fill.Text) {
				w.rejectChoice(field, fill.Text)
				skipped = append(skipped, fv.Field)
				continue
			}
		case extraction.KindText:
			fill.Text = fv.Value.Raw
		default:
			w.logger.Warn("skipping unsupported field", zap.String("field", field.Name), zap.String("kind", string(field.Kind)))
			skipped = append(skipped, fv.Field)
			continue
		}

		fills = append(fills, fill)
	}

	return fills, skipped
}

// acceptsChoice reports whether a choice field can take value. Editable combo
// boxes take any text; fields without known options are left to the engine.
func acceptsChoice(field extraction.FormField, value string) bool {
	if field.IsEditable() || len(field.Options) == 0 {
		return true
	}
	for _, o := range field.Options {
		if o == value {
			return true
		}
	}
	return false
}

func (w *Writer) rejectChoice(field extraction.FormField, value string) {
	w.logger.Warn("value is not one of the field's options, leaving it untouched",
		zap.String("field", field.Name), zap.String("value", value), zap.Strings("options", field.Options))
}

func radioValue(field extraction.FormField, v Value) string {
	switch v.Sentinel {
	case SentinelChecked:
		if len(field.Options) > 0 {
			return field.Options[0]
		}
		return v.Raw
	case SentinelUnchecked:
		return RadioOff
	default:
		return v.Raw
	}
}

// fillByPage applies each page's fields in turn; fields without a page are
// offered to every page. At least one page must accept its values.
func (w *Writer) fillByPage(src []byte, pageCount int, fills []FieldFill) ([]byte, int, error) {
	groups := groupByPage(fills, pageCount)

	pages := make([]int, 0, len(groups))
	for p := range groups {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	doc := src
	succeeded := 0
	for _, page := range pages {
		out, err := w.engine.FillPage(doc, page, groups[page])
		if err != nil {
			w.logger.Warn("page fill failed", zap.Int("page", page+1), zap.Error(err))
			continue
		}
		doc = out
		succeeded++
	}

	if succeeded == 0 {
		return nil, 0, formerrors.WriteIO("no page accepted the values", nil)
	}

	w.logger.Info("page-by-page fill finished", zap.Int("pages", succeeded), zap.Int("attempted", len(pages)))
	return doc, succeeded, nil
}

func groupByPage(fills []FieldFill, pageCount int) map[int][]FieldFill {
	groups := make(map[int][]FieldFill)
	var floating []FieldFill

	for _, f := range fills {
		if page, ok := f.Field.PageIndex(); ok && page < pageCount {
			groups[page] = append(groups[page], f)
		} else {
			floating = append(floating, f)
		}
	}

	if len(floating) > 0 {
		for p := 0; p < pageCount; p++ {
			groups[p] = append(groups[p], floating...)
		}
	}

	return groups
}
