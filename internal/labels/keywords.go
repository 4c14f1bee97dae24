package labels

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DefaultTableVersion identifies the built-in keyword table
const DefaultTableVersion = "1.0"

// Keyword maps a lower-case substring of a technical name to a label
type Keyword struct {
	Keyword string `mapstructure:"keyword" json:"keyword" yaml:"keyword"`
	Label   string `mapstructure:"label" json:"label" yaml:"label"`
}

// KeywordTable is an ordered, immutable keyword table. Order matters:
// the first entry whose keyword occurs in a name wins.
type KeywordTable struct {
	version string
	entries []Keyword
}

// NewKeywordTable validates entries and returns an immutable table
func NewKeywordTable(version string, entries []Keyword) (*KeywordTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("keyword table %q has no entries", version)
	}

	table := &KeywordTable{
		version: version,
		entries: make([]Keyword, 0, len(entries)),
	}

	for i, e := range entries {
		kw := strings.ToLower(strings.TrimSpace(e.Keyword))
		label := strings.TrimSpace(e.Label)
		if kw == "" {
			return nil, fmt.Errorf("keyword table entry %d: empty keyword", i)
		}
		if label == "" {
			return nil, fmt.Errorf("keyword table entry %d (%s): empty label", i, kw)
		}
		table.entries = append(table.entries, Keyword{Keyword: kw, Label: label})
	}

	return table, nil
}

// Version returns the table version
func (t *KeywordTable) Version() string {
	return t.version
}

// Entries returns a copy of the table in match order
func (t *KeywordTable) Entries() []Keyword {
	out := make([]Keyword, len(t.entries))
	copy(out, t.entries)
	return out
}

// Match returns the label of the first keyword contained in lowerName
func (t *KeywordTable) Match(lowerName string) (string, bool) {
	for _, e := range t.entries {
		if strings.Contains(lowerName, e.Keyword) {
			return e.Label, true
		}
	}
	return "", false
}

// Keywords that contain a more generic one ("lastname" holds "name",
// "fecha_nacimiento" holds "fecha") are listed before it.
var defaultTable = mustTable(DefaultTableVersion, []Keyword{
	// personal data
	{"first_name", "Nombre"},
	{"firstname", "Nombre"},
	{"given_name", "Nombre"},
	{"last_name", "Apellido"},
	{"lastname", "Apellido"},
	{"surname", "Apellido"},
	{"apellido", "Apellido"},
	{"full_name", "Nombre completo"},
	{"fullname", "Nombre completo"},
	{"company", "Empresa"},
	{"empresa", "Empresa"},
	{"organization", "Empresa"},
	{"birth", "Fecha de nacimiento"},
	{"nacimiento", "Fecha de nacimiento"},
	{"name", "Nombre"},
	{"nombre", "Nombre"},
	{"gender", "Sexo"},
	{"sexo", "Sexo"},
	{"nationality", "Nacionalidad"},
	{"nacionalidad", "Nacionalidad"},

	// contact
	{"email", "Correo electrónico"},
	{"e_mail", "Correo electrónico"},
	{"correo", "Correo electrónico"},
	{"mail", "Correo"},
	{"mobile", "Móvil"},
	{"movil", "Móvil"},
	{"cell", "Móvil"},
	{"phone", "Teléfono"},
	{"telefono", "Teléfono"},
	{"tel", "Teléfono"},
	{"fax", "Fax"},

	// address
	{"zip", "Código postal"},
	{"postal", "Código postal"},
	{"postcode", "Código postal"},
	{"city", "Ciudad"},
	{"ciudad", "Ciudad"},
	{"town", "Ciudad"},
	{"localidad", "Localidad"},
	{"province", "Provincia"},
	{"provincia", "Provincia"},
	{"country", "País"},
	{"pais", "País"},
	{"street", "Calle"},
	{"calle", "Calle"},
	{"address", "Dirección"},
	{"direccion", "Dirección"},
	{"domicilio", "Dirección"},

	// document ids
	{"dni", "DNI"},
	{"nif", "NIF"},
	{"passport", "Pasaporte"},
	{"pasaporte", "Pasaporte"},
	{"iban", "IBAN"},
	{"social_security", "Seguridad Social"},
	{"seguridad_social", "Seguridad Social"},

	// date parts
	{"day", "Día"},
	{"dia", "Día"},
	{"month", "Mes"},
	{"year", "Año"},
	{"anio", "Año"},
	{"date", "Fecha"},
	{"fecha", "Fecha"},

	// business
	{"signature", "Firma"},
	{"firma", "Firma"},
	{"amount", "Importe"},
	{"importe", "Importe"},
	{"price", "Precio"},
	{"precio", "Precio"},
	{"total", "Total"},
	{"quantity", "Cantidad"},
	{"cantidad", "Cantidad"},
	{"comment", "Observaciones"},
	{"observaciones", "Observaciones"},
	{"description", "Descripción"},
	{"descripcion", "Descripción"},
	{"invoice", "Factura"},
	{"factura", "Factura"},
	{"reference", "Referencia"},
	{"referencia", "Referencia"},
})

// DefaultKeywordTable returns the built-in table
func DefaultKeywordTable() *KeywordTable {
	return defaultTable
}

func mustTable(version string, entries []Keyword) *KeywordTable {
	t, err := NewKeywordTable(version, entries)
	if err != nil {
		panic(err)
	}
	return t
}

// keywordFile is the on-disk shape of a keyword table
type keywordFile struct {
	Version  string    `mapstructure:"version"`
	Keywords []Keyword `mapstructure:"keywords"`
}

// LoadKeywordTable reads a keyword table from a YAML, JSON or TOML file:
//
//	version: "2024-05"
//	keywords:
//	  - keyword: first_name
//	    label: Nombre
func LoadKeywordTable(path string) (*KeywordTable, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read keyword table %s: %w", path, err)
	}

	var file keywordFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to decode keyword table %s: %w", path, err)
	}

	if file.Version == "" {
		file.Version = path
	}

	return NewKeywordTable(file.Version, file.Keywords)
}
