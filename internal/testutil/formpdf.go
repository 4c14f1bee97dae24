// Package testutil builds small AcroForm documents in memory for tests.
package testutil

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field types understood by the builder
const (
	Text      = "Tx"
	Button    = "Btn"
	Choice    = "Ch"
	Signature = "Sig"
)

// Common field flags
const (
	FlagRequired = 1 << 1
	FlagRadio    = 1 << 15
	FlagCombo    = 1 << 17
)

// FieldSpec describes one field of a generated form
type FieldSpec struct {
	Name  string
	Type  string // empty for a pure container or to inherit from the parent
	Flags int
	// Options is written as /Opt; Pairs writes [export display] entries instead
	Options []string
	Pairs   [][2]string
	// OnStates lists the on-appearance names, one widget each for radios
	OnStates []string
	Page     int // 0-based
	Rect     [4]float64
	// NoPageRef omits /P so the page must be found through /Annots
	NoPageRef bool
	// NoRect omits /Rect
	NoRect bool
	Kids   []FieldSpec
}

// TextSpec places a string on a page
type TextSpec struct {
	Page int
	X, Y float64
	Size float64
	Text string
}

// FormSpec describes a generated document
type FormSpec struct {
	Pages  int
	Fields []FieldSpec
	Text   []TextSpec
	// NoAcroForm leaves the catalog without an /AcroForm entry
	NoAcroForm bool
}

type docBuilder struct {
	next    int
	objects map[int]string
	pages   []int
	annots  map[int][]int
	apRef   int
}

func (b *docBuilder) alloc() int {
	b.next++
	return b.next
}

// BuildForm renders spec as a classic xref-table PDF
func BuildForm(spec FormSpec) []byte {
	if spec.Pages < 1 {
		spec.Pages = 1
	}

	b := &docBuilder{objects: make(map[int]string), annots: make(map[int][]int)}
	catalog := b.alloc()
	pagesNr := b.alloc()
	font := b.alloc()
	b.apRef = b.alloc()

	contents := make([]int, spec.Pages)
	for i := 0; i < spec.Pages; i++ {
		b.pages = append(b.pages, b.alloc())
		contents[i] = b.alloc()
	}

	var acroForm int
	var roots []int
	if !spec.NoAcroForm {
		acroForm = b.alloc()
		for _, f := range spec.Fields {
			roots = append(roots, b.field(f, 0))
		}
	}

	b.objects[font] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	b.objects[b.apRef] = stream("<< /Type /XObject /Subtype /Form /BBox [0 0 20 20] /Resources << >>", "0 g 2 2 16 16 re f")

	for i, pageNr := range b.pages {
		var content strings.Builder
		for _, t := range spec.Text {
			if t.Page != i {
				continue
			}
			size := t.Size
			if size == 0 {
				size = 10
			}
			fmt.Fprintf(&content, "BT /Helv %s Tf %s %s Td (%s) Tj ET\n", num(size), num(t.X), num(t.Y), escape(t.Text))
		}
		b.objects[contents[i]] = stream("<<", content.String())

		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /Helv %d 0 R >> >> /Contents %d 0 R",
			pagesNr, font, contents[i])
		if refs := b.annots[i]; len(refs) > 0 {
			page += " /Annots " + refArray(refs)
		}
		b.objects[pageNr] = page + " >>"
	}

	b.objects[pagesNr] = fmt.Sprintf("<< /Type /Pages /Kids %s /Count %d >>", refArray(b.pages), len(b.pages))

	if spec.NoAcroForm {
		b.objects[catalog] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesNr)
	} else {
		b.objects[catalog] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R /AcroForm %d 0 R >>", pagesNr, acroForm)
		b.objects[acroForm] = fmt.Sprintf("<< /Fields %s /DR << /Font << /Helv %d 0 R >> >> /DA (/Helv 0 Tf 0 g) >>",
			refArray(roots), font)
	}

	return b.serialize(catalog)
}

// BuildPlain renders a document with pages and no form
func BuildPlain(pages int) []byte {
	return BuildForm(FormSpec{Pages: pages, NoAcroForm: true})
}

// field allocates a field and its widgets, returning the field object number
func (b *docBuilder) field(f FieldSpec, parent int) int {
	nr := b.alloc()

	var d strings.Builder
	d.WriteString("<<")
	if f.Name != "" {
		fmt.Fprintf(&d, " /T (%s)", escape(f.Name))
	}
	if f.Type != "" {
		fmt.Fprintf(&d, " /FT /%s", f.Type)
	}
	if f.Flags != 0 {
		fmt.Fprintf(&d, " /Ff %d", f.Flags)
	}
	if parent != 0 {
		fmt.Fprintf(&d, " /Parent %d 0 R", parent)
	}
	if opt := optArray(f); opt != "" {
		d.WriteString(" /Opt " + opt)
	}

	switch {
	case len(f.Kids) > 0:
		kids := make([]int, 0, len(f.Kids))
		for _, k := range f.Kids {
			kids = append(kids, b.field(k, nr))
		}
		d.WriteString(" /Kids " + refArray(kids))

	case f.Flags&FlagRadio != 0 && len(f.OnStates) > 0:
		widgets := make([]int, 0, len(f.OnStates))
		for i, state := range f.OnStates {
			w := b.alloc()
			rect := f.Rect
			rect[1] -= float64(i) * 20
			rect[3] -= float64(i) * 20
			wf := f
			wf.Rect = rect
			b.objects[w] = "<< /Type /Annot /Subtype /Widget" + fmt.Sprintf(" /Parent %d 0 R", nr) +
				b.widgetEntries(wf, w, []string{state}) + " /AS /Off >>"
			widgets = append(widgets, w)
		}
		d.WriteString(" /Kids " + refArray(widgets) + " /V /Off")

	default:
		d.WriteString(" /Type /Annot /Subtype /Widget")
		d.WriteString(b.widgetEntries(f, nr, f.OnStates))
		if f.Type == Text || f.Type == Choice {
			d.WriteString(" /DA (/Helv 0 Tf 0 g)")
		}
		if len(f.OnStates) > 0 {
			d.WriteString(" /V /Off /AS /Off")
		}
	}

	d.WriteString(" >>")
	b.objects[nr] = d.String()
	return nr
}

// widgetEntries renders the annotation part of a widget and registers it on its page
func (b *docBuilder) widgetEntries(f FieldSpec, nr int, onStates []string) string {
	var d strings.Builder
	if !f.NoRect {
		fmt.Fprintf(&d, " /Rect [%s %s %s %s]", num(f.Rect[0]), num(f.Rect[1]), num(f.Rect[2]), num(f.Rect[3]))
	}
	page := f.Page
	if page < 0 || page >= len(b.pages) {
		page = 0
	}
	if !f.NoPageRef {
		fmt.Fprintf(&d, " /P %d 0 R", b.pages[page])
	}
	b.annots[page] = append(b.annots[page], nr)

	if len(onStates) > 0 {
		var states []string
		for _, s := range onStates {
			states = append(states, fmt.Sprintf("/%s %d 0 R", s, b.apRef))
		}
		sort.Strings(states)
		fmt.Fprintf(&d, " /AP << /N << %s /Off %d 0 R >> >>", strings.Join(states, " "), b.apRef)
	} else if f.Type == Text {
		fmt.Fprintf(&d, " /AP << /N %d 0 R >>", b.apRef)
	}
	return d.String()
}

func (b *docBuilder) serialize(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, b.next+1)
	for nr := 1; nr <= b.next; nr++ {
		offsets[nr] = buf.Len()
		body, ok := b.objects[nr]
		if !ok {
			body = "null"
		}
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", nr, body)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", b.next+1)
	buf.WriteString("0000000000 65535 f \n")
	for nr := 1; nr <= b.next; nr++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[nr])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\n", b.next+1, root)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes()
}

func optArray(f FieldSpec) string {
	switch {
	case len(f.Pairs) > 0:
		parts := make([]string, len(f.Pairs))
		for i, p := range f.Pairs {
			parts[i] = fmt.Sprintf("[(%s) (%s)]", escape(p[0]), escape(p[1]))
		}
		return "[" + strings.Join(parts, " ") + "]"
	case len(f.Options) > 0:
		parts := make([]string, len(f.Options))
		for i, o := range f.Options {
			parts[i] = "(" + escape(o) + ")"
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return ""
}

func stream(dictPrefix, data string) string {
	return fmt.Sprintf("%s /Length %d >>\nstream\n%s\nendstream", dictPrefix, len(data), data)
}

func refArray(nrs []int) string {
	parts := make([]string, len(nrs))
	for i, nr := range nrs {
		parts[i] = fmt.Sprintf("%d 0 R", nr)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
