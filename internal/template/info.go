package template

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

var kindNames = map[extraction.Kind]string{
	extraction.KindText:     "texto",
	extraction.KindCheckbox: "casilla",
	extraction.KindRadio:    "opción única",
	extraction.KindDropdown: "desplegable",
	extraction.KindUnknown:  "no soportado",
}

// RenderInfo writes a human-readable report with one block per field
func RenderInfo(cat *extraction.Catalog, mapping *Mapping) []byte {
	var buf bytes.Buffer
	buf.WriteString("=== INFORMACIÓN DE CAMPOS ===\n\n")

	for _, f := range cat.Fields() {
		label := f.Name
		if mapping != nil {
			if l, ok := mapping.Label(f.Name); ok {
				label = l
			}
		}

		fmt.Fprintf(&buf, "%s\n", label)
		fmt.Fprintf(&buf, "   Nombre técnico: %s\n", f.Name)
		fmt.Fprintf(&buf, "   Tipo: %s\n", kindNames[f.Kind])

		if f.Required {
			buf.WriteString("   Obligatorio: sí\n")
		} else {
			buf.WriteString("   Obligatorio: no\n")
		}

		switch f.Kind {
		case extraction.KindCheckbox:
			buf.WriteString("   Valores: __YES__ o __NO__\n")
		case extraction.KindRadio, extraction.KindDropdown:
			if len(f.Options) > 0 {
				fmt.Fprintf(&buf, "   Opciones: %s\n", strings.Join(f.Options, ", "))
			}
		case extraction.KindUnknown:
			buf.WriteString("   Este campo no se rellena\n")
		}

		if page, ok := f.PageIndex(); ok {
			fmt.Fprintf(&buf, "   Página: %d\n", page+1)
		}

		buf.WriteString("\n")
	}

	return buf.Bytes()
}
