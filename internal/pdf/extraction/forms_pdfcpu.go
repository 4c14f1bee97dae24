package extraction

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
)

// maxFieldDepth guards against cyclic or absurdly deep field trees
const maxFieldDepth = 32

// ReadContext creates a pdfcpu context from in-memory PDF bytes with relaxed validation
func ReadContext(src []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(src), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return ctx, nil
}

// inherited carries the inheritable field attributes down the field tree
type inherited struct {
	fieldType string
	flags     int
}

// walker collects terminal fields from the AcroForm field tree
type walker struct {
	ctx    *model.Context
	logger *zap.Logger

	pageByObj  map[int]int // page object number -> 0-based page index
	pageByAnno map[int]int // widget object number -> 0-based page index

	visited map[int]bool
	names   map[string]bool
	fields  []FormField
}

func newWalker(ctx *model.Context, logger *zap.Logger) *walker {
	return &walker{
		ctx:        ctx,
		logger:     logger,
		pageByObj:  make(map[int]int),
		pageByAnno: make(map[int]int),
		visited:    make(map[int]bool),
		names:      make(map[string]bool),
	}
}

// collect walks /AcroForm /Fields and returns the terminal fields in document order
func (w *walker) collect() ([]FormField, error) {
	rootDict, err := w.ctx.Catalog()
	if err != nil {
		return nil, formerrors.Wrap(formerrors.ErrorTypeInvalidPDF, formerrors.StageExtraction,
			"failed to get catalog", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, formerrors.NotAForm("no AcroForm dictionary in document catalog")
	}

	acroFormDict, err := w.ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, formerrors.Wrap(formerrors.ErrorTypeInvalidPDF, formerrors.StageExtraction,
			"failed to dereference AcroForm", err)
	}
	if acroFormDict == nil {
		return nil, formerrors.NotAForm("AcroForm entry is null")
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, formerrors.NotAForm("AcroForm has no Fields array")
	}

	fieldsArray, err := w.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, formerrors.Wrap(formerrors.ErrorTypeInvalidPDF, formerrors.StageExtraction,
			"failed to dereference Fields array", err)
	}

	w.indexPages()

	for i, fieldRef := range fieldsArray {
		if err := w.visit(fieldRef, inherited{}, "", 0); err != nil {
			w.logger.Warn("skipping unreadable field", zap.Int("index", i), zap.Error(err))
		}
	}

	if len(w.fields) == 0 {
		return nil, formerrors.NotAForm("AcroForm declares no fillable fields")
	}

	return w.fields, nil
}

// indexPages maps page objects and their widget annotations to page indexes
func (w *walker) indexPages() {
	for pageNr := 1; pageNr <= w.ctx.PageCount; pageNr++ {
		pageDict, pageRef, _, err := w.ctx.PageDict(pageNr, false)
		if err != nil {
			w.logger.Debug("cannot resolve page", zap.Int("page", pageNr), zap.Error(err))
			continue
		}
		if pageRef != nil {
			w.pageByObj[pageRef.ObjectNumber.Value()] = pageNr - 1
		}

		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := w.ctx.DereferenceArray(annotsObj)
		if err != nil {
			w.logger.Debug("cannot resolve page annotations", zap.Int("page", pageNr), zap.Error(err))
			continue
		}
		for _, a := range annots {
			if nr, ok := objectNumber(a); ok {
				w.pageByAnno[nr] = pageNr - 1
			}
		}
	}
}

// visit descends into one node of the field tree
func (w *walker) visit(obj types.Object, parent inherited, parentName string, depth int) error {
	if depth > maxFieldDepth {
		return fmt.Errorf("field tree deeper than %d levels", maxFieldDepth)
	}

	objNr, isRef := objectNumber(obj)
	if isRef {
		if w.visited[objNr] {
			return fmt.Errorf("field object %d visited twice", objNr)
		}
		w.visited[objNr] = true
	}

	fieldDict, err := w.ctx.DereferenceDict(obj)
	if err != nil {
		return fmt.Errorf("failed to dereference field: %w", err)
	}
	if fieldDict == nil {
		return nil
	}

	attrs := parent
	if ftObj, found := fieldDict.Find("FT"); found {
		if ft, err := w.ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			attrs.fieldType = string(ft)
		}
	}
	if ffObj, found := fieldDict.Find("Ff"); found {
		if ff, err := w.ctx.DereferenceInteger(ffObj); err == nil && ff != nil {
			attrs.flags = ff.Value()
		}
	}

	name := qualifiedName(parentName, w.partialName(fieldDict))

	kids := w.fieldKids(fieldDict)
	if len(kids) > 0 {
		for _, kid := range kids {
			if err := w.visit(kid, attrs, name, depth+1); err != nil {
				w.logger.Warn("skipping unreadable child field", zap.String("parent", name), zap.Error(err))
			}
		}
		return nil
	}

	if name == "" {
		name = fmt.Sprintf("field_%d", objNr)
	}
	if w.names[name] {
		w.logger.Warn("duplicate field name, keeping first occurrence", zap.String("field", name))
		return nil
	}
	w.names[name] = true

	w.fields = append(w.fields, w.terminalField(fieldDict, objNr, name, attrs))
	return nil
}

// partialName extracts the T entry of a field dictionary
func (w *walker) partialName(fieldDict types.Dict) string {
	nameObj, found := fieldDict.Find("T")
	if !found {
		return ""
	}
	name, err := w.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name
}

// fieldKids returns the kids that are fields themselves, not bare widgets
func (w *walker) fieldKids(fieldDict types.Dict) types.Array {
	kidsObj, found := fieldDict.Find("Kids")
	if !found {
		return nil
	}
	kids, err := w.ctx.DereferenceArray(kidsObj)
	if err != nil || len(kids) == 0 {
		return nil
	}

	var fieldKids types.Array
	for _, kid := range kids {
		kidDict, err := w.ctx.DereferenceDict(kid)
		if err != nil || kidDict == nil {
			continue
		}
		if _, hasName := kidDict.Find("T"); hasName {
			fieldKids = append(fieldKids, kid)
		}
	}
	return fieldKids
}

// widgets returns the widget annotations of a terminal field with their object numbers
func (w *walker) widgets(fieldDict types.Dict, fieldObjNr int) ([]types.Dict, []int) {
	kidsObj, found := fieldDict.Find("Kids")
	if !found {
		return []types.Dict{fieldDict}, []int{fieldObjNr}
	}

	kids, err := w.ctx.DereferenceArray(kidsObj)
	if err != nil || len(kids) == 0 {
		return []types.Dict{fieldDict}, []int{fieldObjNr}
	}

	var dicts []types.Dict
	var nrs []int
	for _, kid := range kids {
		kidDict, err := w.ctx.DereferenceDict(kid)
		if err != nil || kidDict == nil {
			continue
		}
		nr, _ := objectNumber(kid)
		dicts = append(dicts, kidDict)
		nrs = append(nrs, nr)
	}
	return dicts, nrs
}

// terminalField builds the catalog entry of a field without field kids
func (w *walker) terminalField(fieldDict types.Dict, objNr int, name string, attrs inherited) FormField {
	field := FormField{
		Name:         name,
		Kind:         classify(attrs.fieldType, attrs.flags),
		Flags:        attrs.flags,
		Required:     attrs.flags&FlagRequired != 0,
		ReadOnly:     attrs.flags&FlagReadOnly != 0,
		ObjectNumber: objNr,
	}

	widgets, widgetNrs := w.widgets(fieldDict, objNr)

	if field.Kind.HasChoices() {
		field.Options = w.extractFieldOptions(fieldDict)
		if len(field.Options) == 0 && field.Kind == KindRadio {
			field.Options = w.onStates(widgets)
		}
	}

	loc, status, err := w.resolveLocation(widgets, widgetNrs)
	if err != nil {
		w.logger.Debug("field location lookup failed", zap.String("field", name), zap.Error(err))
	}
	field.Location = loc
	field.LocationStatus = status

	w.logger.Debug("extracted field",
		zap.String("field", field.Name),
		zap.String("kind", string(field.Kind)),
		zap.String("location", string(status)))

	return field
}

// classify maps the FT entry and the flag bitmask to a field kind
func classify(fieldType string, flags int) Kind {
	switch fieldType {
	case "Tx":
		return KindText
	case "Btn":
		if flags&FlagRadio != 0 {
			return KindRadio
		}
		return KindCheckbox
	case "Ch":
		return KindDropdown
	default:
		return KindUnknown
	}
}

// extractFieldOptions extracts options for choice fields, keeping display values
func (w *walker) extractFieldOptions(fieldDict types.Dict) []string {
	var options []string

	optObj, found := fieldDict.Find("Opt")
	if !found {
		return options
	}

	optArray, err := w.ctx.DereferenceArray(optObj)
	if err != nil {
		return options
	}

	for _, opt := range optArray {
		// Options can be strings or arrays of [export_value, display_value]
		if str, err := w.ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, str)
		} else if arr, err := w.ctx.DereferenceArray(opt); err == nil && len(arr) >= 2 {
			if displayVal, err := w.ctx.DereferenceStringOrHexLiteral(arr[1], model.V10, nil); err == nil {
				options = append(options, displayVal)
			}
		}
	}

	return options
}

// onStates lists the non-Off appearance states of radio widgets in widget order
func (w *walker) onStates(widgets []types.Dict) []string {
	var states []string
	seen := make(map[string]bool)

	for _, widget := range widgets {
		apDict := w.dictEntry(widget, "AP")
		if apDict == nil {
			continue
		}
		normal := w.dictEntry(apDict, "N")
		if normal == nil {
			continue
		}

		keys := make([]string, 0, len(normal))
		for k := range normal {
			if k != "Off" {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				states = append(states, k)
			}
		}
	}

	return states
}

// resolveLocation finds the first positioned widget and its page
func (w *walker) resolveLocation(widgets []types.Dict, widgetNrs []int) (*Location, LocationStatus, error) {
	for i, widget := range widgets {
		rectObj, found := widget.Find("Rect")
		if !found {
			continue
		}

		bounds, err := w.parseRect(rectObj)
		if err != nil {
			return nil, LocationFailed, err
		}

		page, ok := w.widgetPage(widget, widgetNrs[i])
		if !ok {
			return nil, LocationAbsent, nil
		}

		return &Location{PageIndex: page, Bounds: bounds}, LocationResolved, nil
	}

	return nil, LocationAbsent, nil
}

// widgetPage resolves the page of a widget from /P or from the page annotation lists
func (w *walker) widgetPage(widget types.Dict, widgetNr int) (int, bool) {
	if pObj, found := widget.Find("P"); found {
		if nr, ok := objectNumber(pObj); ok {
			if page, ok := w.pageByObj[nr]; ok {
				return page, true
			}
		}
	}

	if widgetNr > 0 {
		if page, ok := w.pageByAnno[widgetNr]; ok {
			return page, true
		}
	}

	if w.ctx.PageCount == 1 {
		return 0, true
	}

	return 0, false
}

// parseRect parses a widget rectangle
func (w *walker) parseRect(rectObj types.Object) (BoundingBox, error) {
	rectArray, err := w.ctx.DereferenceArray(rectObj)
	if err != nil {
		return BoundingBox{}, fmt.Errorf("failed to dereference Rect: %w", err)
	}
	if len(rectArray) != 4 {
		return BoundingBox{}, fmt.Errorf("rect has %d entries, want 4", len(rectArray))
	}

	coords := make([]float64, 4)
	for i, coord := range rectArray {
		f, err := w.ctx.DereferenceNumber(coord)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("rect coordinate %d: %w", i, err)
		}
		coords[i] = f
	}

	llx, urx := minMax(coords[0], coords[2])
	lly, ury := minMax(coords[1], coords[3])

	return BoundingBox{
		LowerLeft:  Coordinate{X: llx, Y: lly},
		UpperRight: Coordinate{X: urx, Y: ury},
		Width:      urx - llx,
		Height:     ury - lly,
	}, nil
}

// dictEntry dereferences a dictionary-valued entry, nil when absent or not a dict
func (w *walker) dictEntry(d types.Dict, key string) types.Dict {
	obj, found := d.Find(key)
	if !found {
		return nil
	}
	sub, err := w.ctx.DereferenceDict(obj)
	if err != nil {
		return nil
	}
	return sub
}

// objectNumber returns the object number of an indirect reference
func objectNumber(obj types.Object) (int, bool) {
	switch ref := obj.(type) {
	case types.IndirectRef:
		return ref.ObjectNumber.Value(), true
	case *types.IndirectRef:
		if ref == nil {
			return 0, false
		}
		return ref.ObjectNumber.Value(), true
	}
	return 0, false
}

func qualifiedName(parent, partial string) string {
	switch {
	case parent == "":
		return partial
	case partial == "":
		return parent
	default:
		return parent + "." + partial
	}
}

func minMax(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
