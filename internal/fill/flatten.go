package fill

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

// Flatten draws every widget's normal appearance into its page, removes the
// widgets from /Annots and drops /AcroForm from the catalog
func (e *PDFCPUEngine) Flatten(src []byte) ([]byte, error) {
	ctx, err := extraction.ReadContext(src)
	if err != nil {
		return nil, err
	}

	flattened := 0
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		n, err := flattenPage(ctx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		flattened += n
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	rootDict.Delete("AcroForm")

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to write flattened PDF: %w", err)
	}

	e.logger.Debug("form flattened", zap.Int("widgets", flattened))
	return out.Bytes(), nil
}

// flattenPage moves the widgets of one page into its content and returns how many it drew
func flattenPage(ctx *model.Context, pageNr int) (int, error) {
	pageDict, _, _, err := ctx.PageDict(pageNr, true)
	if err != nil {
		return 0, err
	}

	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return 0, nil
	}
	annots, err := ctx.DereferenceArray(annotsObj)
	if err != nil {
		return 0, err
	}

	var kept types.Array
	var content bytes.Buffer
	xobjects := types.Dict{}
	drawn := 0

	for _, annot := range annots {
		d, err := ctx.DereferenceDict(annot)
		if err != nil || d == nil {
			kept = append(kept, annot)
			continue
		}
		if subtype := d.NameEntry("Subtype"); subtype == nil || *subtype != "Widget" {
			kept = append(kept, annot)
			continue
		}

		// widgets without an appearance are dropped, there is nothing to draw
		ap, ok := normalAppearance(ctx, d)
		if !ok {
			continue
		}
		x, y, ok := rectOrigin(ctx, d)
		if !ok {
			continue
		}

		name := "FlatW" + strconv.Itoa(drawn)
		xobjects[name] = ap
		fmt.Fprintf(&content, "q 1 0 0 1 %.4f %.4f cm /%s Do Q\n", x, y, name)
		drawn++
	}

	if len(kept) > 0 {
		pageDict.Update("Annots", kept)
	} else {
		pageDict.Delete("Annots")
	}

	if drawn == 0 {
		return 0, nil
	}

	if err := addXObjects(ctx, pageDict, xobjects); err != nil {
		return 0, err
	}
	if err := wrapContents(ctx, pageDict, content.Bytes()); err != nil {
		return 0, err
	}

	return drawn, nil
}

// normalAppearance returns the /AP /N stream reference, choosing /AS among states
func normalAppearance(ctx *model.Context, widget types.Dict) (types.IndirectRef, bool) {
	apObj, found := widget.Find("AP")
	if !found {
		return types.IndirectRef{}, false
	}
	apDict, err := ctx.DereferenceDict(apObj)
	if err != nil || apDict == nil {
		return types.IndirectRef{}, false
	}

	n, found := apDict.Find("N")
	if !found {
		return types.IndirectRef{}, false
	}

	if ref, ok := n.(types.IndirectRef); ok {
		if obj, err := ctx.Dereference(ref); err == nil {
			if _, isStream := obj.(types.StreamDict); isStream {
				return ref, true
			}
		}
	}

	states, err := ctx.DereferenceDict(n)
	if err != nil || states == nil {
		return types.IndirectRef{}, false
	}

	as := widget.NameEntry("AS")
	if as == nil {
		return types.IndirectRef{}, false
	}
	stateRef, ok := states[*as].(types.IndirectRef)
	return stateRef, ok
}

func rectOrigin(ctx *model.Context, widget types.Dict) (float64, float64, bool) {
	rectObj, found := widget.Find("Rect")
	if !found {
		return 0, 0, false
	}
	rect, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rect) != 4 {
		return 0, 0, false
	}

	coords := make([]float64, 4)
	for i, c := range rect {
		f, err := ctx.DereferenceNumber(c)
		if err != nil {
			return 0, 0, false
		}
		coords[i] = f
	}

	return min(coords[0], coords[2]), min(coords[1], coords[3]), true
}

func addXObjects(ctx *model.Context, pageDict types.Dict, xobjects types.Dict) error {
	var resources types.Dict
	if obj, found := pageDict.Find("Resources"); found {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return fmt.Errorf("failed to dereference resources: %w", err)
		}
		resources = d
	}
	if resources == nil {
		resources = types.Dict{}
		pageDict.Update("Resources", resources)
	}

	var xobjDict types.Dict
	if obj, found := resources.Find("XObject"); found {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return fmt.Errorf("failed to dereference XObject resources: %w", err)
		}
		xobjDict = d
	}
	if xobjDict == nil {
		xobjDict = types.Dict{}
		resources.Update("XObject", xobjDict)
	}

	for name, ref := range xobjects {
		xobjDict.Update(name, ref)
	}
	return nil
}

// wrapContents brackets the existing page content in q/Q and appends the widget drawing
func wrapContents(ctx *model.Context, pageDict types.Dict, drawing []byte) error {
	open, err := newContentStream(ctx, []byte("q\n"))
	if err != nil {
		return err
	}
	closeAndDraw, err := newContentStream(ctx, append([]byte("Q\n"), drawing...))
	if err != nil {
		return err
	}

	contents := types.Array{*open}
	if obj, found := pageDict.Find("Contents"); found {
		if arr, err := ctx.DereferenceArray(obj); err == nil && arr != nil {
			contents = append(contents, arr...)
		} else {
			contents = append(contents, obj)
		}
	}
	contents = append(contents, *closeAndDraw)

	pageDict.Update("Contents", contents)
	return nil
}

func newContentStream(ctx *model.Context, data []byte) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode content stream: %w", err)
	}
	return ctx.IndRefForNewObject(*sd)
}
