package testutil

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// FieldState is what a filled document stores for one top-level field
type FieldState struct {
	Value  string   // /V as text or name, empty when absent
	States []string // /AS of each widget that has one
}

// ReadFieldStates returns the state of each top-level AcroForm field by /T
func ReadFieldStates(pdf []byte) (map[string]FieldState, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, err
	}

	root, err := ctx.Catalog()
	if err != nil {
		return nil, err
	}
	acroFormObj, found := root.Find("AcroForm")
	if !found {
		return nil, fmt.Errorf("no AcroForm")
	}
	acroForm, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, err
	}
	fieldsObj, found := acroForm.Find("Fields")
	if !found {
		return nil, fmt.Errorf("no Fields")
	}
	fields, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, err
	}

	out := make(map[string]FieldState, len(fields))
	for _, ref := range fields {
		d, err := ctx.DereferenceDict(ref)
		if err != nil {
			return nil, err
		}
		nameObj, found := d.Find("T")
		if !found {
			continue
		}
		name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
		if err != nil {
			return nil, err
		}

		var state FieldState
		if v, found := d.Find("V"); found {
			if state.Value, err = textOf(ctx, v); err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
		}

		widgets := []types.Dict{d}
		if kidsObj, found := d.Find("Kids"); found {
			kids, err := ctx.DereferenceArray(kidsObj)
			if err != nil {
				return nil, err
			}
			widgets = widgets[:0]
			for _, k := range kids {
				kd, err := ctx.DereferenceDict(k)
				if err != nil {
					return nil, err
				}
				widgets = append(widgets, kd)
			}
		}
		for _, w := range widgets {
			if as := w.NameEntry("AS"); as != nil {
				state.States = append(state.States, *as)
			}
		}

		out[name] = state
	}

	return out, nil
}

func textOf(ctx *model.Context, obj types.Object) (string, error) {
	o, err := ctx.Dereference(obj)
	if err != nil {
		return "", err
	}
	switch v := o.(type) {
	case types.Name:
		return string(v), nil
	case types.StringLiteral:
		return types.StringLiteralToString(v)
	case types.HexLiteral:
		return types.HexLiteralToString(v)
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unexpected /V of type %T", o)
	}
}
