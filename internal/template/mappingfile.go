package template

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
)

// Arrow separates labels from technical names in mapping files
const Arrow = "→"

const mappingPreamble = `# MAPEO DE CAMPOS
# Cada bloque: etiqueta de la plantilla, "→ nombre técnico" y una línea en blanco.
# Las columnas que no aparecen aquí se usan tal cual como nombres técnicos.

`

// RenderMappingText serializes a mapping as label / arrow-line blocks
func RenderMappingText(m *Mapping) []byte {
	var buf bytes.Buffer
	buf.WriteString(mappingPreamble)

	for _, e := range m.entries {
		buf.WriteString(e.Label)
		buf.WriteString("\n")
		buf.WriteString(Arrow + " " + e.TechnicalName)
		buf.WriteString("\n\n")
	}

	return buf.Bytes()
}

type mappingLine struct {
	number int
	text   string
}

// ParseMappingText reads block records ("label" then "→ technical") and
// single-line records ("label → technical"). Comment lines start with # or ===;
// free text before the first record is ignored.
func ParseMappingText(data []byte) (*Mapping, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, formerrors.MappingParse(0, "mapping file is not valid UTF-8")
	}

	var lines []mappingLine
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		lines = append(lines, mappingLine{number: n, text: strings.TrimSpace(scanner.Text())})
	}
	if err := scanner.Err(); err != nil {
		return nil, formerrors.MappingParse(0, err.Error())
	}

	p := &mappingParser{
		mapping: &Mapping{byLabel: make(map[string]int), byField: make(map[string]int)},
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case line.text == "":
			continue

		case strings.HasPrefix(line.text, Arrow):
			return nil, formerrors.MappingParse(line.number, "arrow line without a preceding label")

		case i+1 < len(lines) && strings.HasPrefix(lines[i+1].text, Arrow):
			technical := strings.TrimSpace(strings.TrimPrefix(lines[i+1].text, Arrow))
			if err := p.record(line.number, line.text, technical); err != nil {
				return nil, err
			}
			i++

		case isComment(line.text):
			continue

		case strings.Contains(line.text, Arrow):
			cut := strings.LastIndex(line.text, Arrow)
			label := strings.TrimSpace(line.text[:cut])
			technical := strings.TrimSpace(line.text[cut+len(Arrow):])
			if err := p.record(line.number, label, technical); err != nil {
				return nil, err
			}

		case p.mapping.Len() > 0:
			return nil, formerrors.MappingParse(line.number, fmt.Sprintf("label %q has no \"%s\" line", line.text, Arrow))
		}
	}

	if p.mapping.Len() == 0 {
		return nil, formerrors.MappingParse(0, "no label → technical name records found")
	}

	return p.mapping, nil
}

type mappingParser struct {
	mapping *Mapping
}

func (p *mappingParser) record(line int, label, technical string) error {
	if label == "" {
		return formerrors.MappingParse(line, "empty label")
	}
	if technical == "" {
		return formerrors.MappingParse(line, fmt.Sprintf("label %q has an empty technical name", label))
	}

	if existing, ok := p.mapping.Technical(label); ok {
		if existing == technical {
			return nil
		}
		return formerrors.MappingParse(line,
			fmt.Sprintf("label %q maps to both %q and %q", label, existing, technical))
	}

	p.mapping.add(Entry{Label: label, TechnicalName: technical})
	return nil
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "#") || strings.HasPrefix(line, "===")
}
