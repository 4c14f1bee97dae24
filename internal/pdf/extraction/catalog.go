package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"go.uber.org/zap"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
)

// Catalog is the read-only set of fields of one form instance
type Catalog struct {
	fields    []FormField
	index     map[string]int
	trimmed   map[string]int // space-trimmed name -> index, -1 when ambiguous
	pageCount int
	source    []byte
}

// NewCatalog creates a catalog from already classified fields.
// It fails with a NotAForm error when fields is empty and rejects duplicate names.
func NewCatalog(fields []FormField, pageCount int, source []byte) (*Catalog, error) {
	if len(fields) == 0 {
		return nil, formerrors.NotAForm("no interactive fields found")
	}

	c := &Catalog{
		fields:    make([]FormField, len(fields)),
		index:     make(map[string]int, len(fields)),
		trimmed:   make(map[string]int, len(fields)),
		pageCount: pageCount,
		source:    source,
	}

	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d has no technical name", i)
		}
		if _, dup := c.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate technical name %q", f.Name)
		}
		if f.LocationStatus == "" {
			f.LocationStatus = LocationAbsent
			if f.Location != nil {
				f.LocationStatus = LocationResolved
			}
		}
		f.Options = append([]string(nil), f.Options...)
		c.fields[i] = f
		c.index[f.Name] = i

		key := strings.TrimSpace(f.Name)
		if _, taken := c.trimmed[key]; taken {
			c.trimmed[key] = -1
		} else {
			c.trimmed[key] = i
		}
	}

	return c, nil
}

// Len returns the number of fields
func (c *Catalog) Len() int {
	return len(c.fields)
}

// Fields returns a copy of the fields in catalog order
func (c *Catalog) Fields() []FormField {
	out := make([]FormField, len(c.fields))
	copy(out, c.fields)
	return out
}

// Names returns the technical names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// Lookup finds a field by technical name
func (c *Catalog) Lookup(name string) (FormField, bool) {
	i, ok := c.index[name]
	if !ok {
		return FormField{}, false
	}
	return c.fields[i], true
}

// Resolve finds a field by technical name, falling back to a unique match
// that ignores surrounding spaces. Form authors often leave trailing spaces in
// names that spreadsheets and mapping files do not keep.
func (c *Catalog) Resolve(name string) (FormField, bool) {
	if f, ok := c.Lookup(name); ok {
		return f, true
	}
	i, ok := c.trimmed[strings.TrimSpace(name)]
	if !ok || i < 0 {
		return FormField{}, false
	}
	return c.fields[i], true
}

// PageCount returns the number of pages of the source document
func (c *Catalog) PageCount() int {
	return c.pageCount
}

// Source returns a copy of the PDF bytes the catalog was built from
func (c *Catalog) Source() []byte {
	return bytes.Clone(c.source)
}

// CountByKind returns how many fields of each kind the catalog holds
func (c *Catalog) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, f := range c.fields {
		counts[f.Kind]++
	}
	return counts
}

// WithSuggestedLabels returns a copy of the catalog with SuggestedLabel set by label
func (c *Catalog) WithSuggestedLabels(label func(FormField) string) *Catalog {
	out := &Catalog{
		fields:    c.Fields(),
		index:     c.index,
		trimmed:   c.trimmed,
		pageCount: c.pageCount,
		source:    c.source,
	}
	for i := range out.fields {
		out.fields[i].SuggestedLabel = label(out.fields[i])
	}
	return out
}

// Build catalogs the form fields of a PDF with a silent logger
func Build(src []byte) (*Catalog, error) {
	return NewBuilder(nil).Build(src)
}

// Builder parses form sources into catalogs
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a catalog builder; a nil logger discards output
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// Build reads src and returns its field catalog
func (b *Builder) Build(src []byte) (*Catalog, error) {
	if len(src) == 0 {
		return nil, formerrors.New(formerrors.ErrorTypeInvalidPDF, formerrors.StageExtraction, "empty PDF input")
	}

	ctx, err := ReadContext(src)
	if err != nil {
		return nil, formerrors.Wrap(formerrors.ErrorTypeInvalidPDF, formerrors.StageExtraction,
			"failed to read PDF", err)
	}

	fields, err := newWalker(ctx, b.logger).collect()
	if err != nil {
		return nil, err
	}

	b.logger.Debug("form catalog built",
		zap.Int("fields", len(fields)),
		zap.Int("pages", ctx.PageCount))

	return NewCatalog(fields, ctx.PageCount, bytes.Clone(src))
}
