package fill

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

// The form group types below follow the JSON accepted by pdfcpu's form filling

type formGroup struct {
	Header formHeader `json:"header"`
	Forms  []formData `json:"forms"`
}

type formHeader struct {
	Source   string `json:"source"`
	Version  string `json:"version"`
	Creation string `json:"creation"`
}

type formData struct {
	TextFields  []textField  `json:"textfield,omitempty"`
	CheckBoxes  []checkBox   `json:"checkbox,omitempty"`
	RadioGroups []radioGroup `json:"radiobuttongroup,omitempty"`
	ComboBoxes  []comboBox   `json:"combobox,omitempty"`
	ListBoxes   []listBox    `json:"listbox,omitempty"`
}

type fieldRef struct {
	Pages  []int  `json:"pages,omitempty"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Locked bool   `json:"locked"`
}

type textField struct {
	fieldRef
	Value string `json:"value"`
}

type checkBox struct {
	fieldRef
	Value bool `json:"value"`
}

type radioGroup struct {
	fieldRef
	Value string `json:"value"`
}

type comboBox struct {
	fieldRef
	Value string `json:"value"`
}

type listBox struct {
	fieldRef
	Values []string `json:"values"`
}

// PDFCPUEngine fills and flattens forms with pdfcpu
type PDFCPUEngine struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewPDFCPUEngine creates the pdfcpu-backed engine
func NewPDFCPUEngine(logger *zap.Logger) *PDFCPUEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PDFCPUEngine{logger: logger, now: time.Now}
}

// FillDocument fills all fields. An unreadable source is fatal; a failure of
// pdfcpu's form filler is reported as recoverable.
func (e *PDFCPUEngine) FillDocument(src []byte, fills []FieldFill) ([]byte, error) {
	if _, err := extraction.ReadContext(src); err != nil {
		return nil, err
	}

	out, err := e.fillForm(src, fills)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecoverable, err)
	}
	return out, nil
}

// FillPage fills the given fields. page only labels errors: pdfcpu scopes each
// field through the pages of its own reference, so a field with no known page
// is matched wherever it appears and is rewritten on every page pass.
func (e *PDFCPUEngine) FillPage(src []byte, page int, fills []FieldFill) ([]byte, error) {
	out, err := e.fillForm(src, fills)
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page+1, err)
	}
	return out, nil
}

func (e *PDFCPUEngine) fillForm(src []byte, fills []FieldFill) ([]byte, error) {
	payload, err := json.Marshal(e.formGroup(fills))
	if err != nil {
		return nil, fmt.Errorf("failed to encode form values: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	err = api.FillForm(bytes.NewReader(src), bytes.NewReader(payload), &out, conf)
	switch {
	case errors.Is(err, api.ErrNoFormFieldsAffected):
		// the form already holds every requested value
		e.logger.Debug("pdfcpu form fill changed nothing", zap.Int("fields", len(fills)))
		return src, nil
	case err != nil:
		return nil, fmt.Errorf("pdfcpu fill failed: %w", err)
	}

	e.logger.Debug("pdfcpu form fill applied", zap.Int("fields", len(fills)), zap.Int("bytes", out.Len()))
	return out.Bytes(), nil
}

// formGroup converts fills to pdfcpu's JSON form group
func (e *PDFCPUEngine) formGroup(fills []FieldFill) formGroup {
	var form formData

	for _, f := range fills {
		ref := fieldRef{Name: f.Field.Name}
		if f.Field.ObjectNumber > 0 {
			ref.ID = strconv.Itoa(f.Field.ObjectNumber)
		}
		if page, ok := f.Field.PageIndex(); ok {
			ref.Pages = []int{page + 1}
		}

		switch f.Field.Kind {
		case extraction.KindText:
			form.TextFields = append(form.TextFields, textField{fieldRef: ref, Value: f.Text})
		case extraction.KindCheckbox:
			form.CheckBoxes = append(form.CheckBoxes, checkBox{fieldRef: ref, Value: f.Checked})
		case extraction.KindRadio:
			value := f.Text
			if value == RadioOff {
				value = ""
			}
			form.RadioGroups = append(form.RadioGroups, radioGroup{fieldRef: ref, Value: value})
		case extraction.KindDropdown:
			if f.Field.IsCombo() {
				form.ComboBoxes = append(form.ComboBoxes, comboBox{fieldRef: ref, Value: f.Text})
			} else {
				form.ListBoxes = append(form.ListBoxes, listBox{fieldRef: ref, Values: []string{f.Text}})
			}
		}
	}

	return formGroup{
		Header: formHeader{
			Source:   "mcmAutoPDF",
			Version:  "pdfcpu",
			Creation: e.now().UTC().Format(time.RFC3339),
		},
		Forms: []formData{form},
	}
}
