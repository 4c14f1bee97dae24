package descriptions

// Tool descriptions with practical examples and use cases

const (
	PDFFormFieldsDescription = `List the interactive fields of a PDF form with a suggested human-readable label for each.

**When to use:** Before generating a template, to see what a form asks for and how its fields will be labeled.

**Why it's useful:** Technical field names such as "txtNombre_1" or "applicant.address.zip" become readable labels ("Nombre", "Código postal"), with the field type, options, required flag and page of every field.

**Examples:**
• Inspect a form: "What fields does solicitud.pdf have?"
• Check options: "Which countries can be selected in the country field of inscripcion.pdf?"

**Common workflows:**
1. Discovery: pdf_server_info → pdf_form_fields → pdf_form_template
2. Review labels: pdf_form_fields → adjust the keyword table → pdf_form_fields again

**Best practices:** Field kinds are text, checkbox, radio, dropdown or unknown; unknown fields (signatures, buttons) are listed but never filled.`

	PDFFormTemplateDescription = `Generate a one-row CSV template for a PDF form, plus the label mapping and an optional field report.

**When to use:** To hand a form to someone as a spreadsheet: they fill one row, and pdf_form_fill writes it back into the PDF.

**Why it's useful:** The template header uses readable labels; the mapping file (<template>_mapeo.txt) records which technical field each label stands for, so the round trip is exact even when two fields share a label.

**Examples:**
• "Create a template for solicitud.pdf" → solicitud_plantilla.csv, solicitud_plantilla_mapeo.txt, solicitud_plantilla_info.txt
• "Create a template with technical headers" → header_mode=technical

**Output details:**
• The CSV is UTF-8 with a byte order mark so spreadsheet tools detect the encoding
• Checkbox columns carry the example value __YES__; dropdowns show their first option
• Keep the mapping file next to the CSV; pdf_form_fill finds it automatically

**Best practices:** Do not rename header cells; columns that match no field are dropped with a warning.`

	PDFFormFillDescription = `Fill a PDF form from the first data row of a filled-in template.

**When to use:** After a template has been completed in a spreadsheet, to produce the filled PDF (<form>_rellenado.pdf).

**Why it's useful:** Headers are resolved through the mapping file, yes/no answers are normalized for checkboxes (__YES__, sí, yes, true, 1, x / __NO__, no, false, 0), unknown columns are dropped with a warning, and a page-by-page retry rescues forms that fail to fill in one pass.

**Examples:**
• "Fill solicitud.pdf with datos.csv"
• "Fill and flatten contrato.pdf with firmado.csv" → flatten=true
• "Show what would be written without creating a PDF" → dry_run=true

**Common workflows:**
1. Round trip: pdf_form_template → fill the CSV → pdf_form_fill
2. Verification: pdf_form_fill with dry_run → review planned values → pdf_form_fill

**Best practices:** Empty cells leave fields untouched. Flattening makes the result read-only; when it fails the editable PDF is still written and the error is reported.`

	PDFServerInfoDescription = `Get server configuration, available tools and the forms, templates and mappings in the working directory.

**When to use:** At the start of a session, to see which forms are available and how the server is configured.

**Why it's useful:** Shows the label strategy, keyword table version and file size limit alongside a listing of the directory.

**Best practices:** Use the listed paths directly in the other tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_form_fields":   PDFFormFieldsDescription,
	"pdf_form_template": PDFFormTemplateDescription,
	"pdf_form_fill":     PDFFormFillDescription,
	"pdf_server_info":   PDFServerInfoDescription,
}

// GetToolDescription returns the description for a given tool name
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the tool names in registration order
func GetAllToolNames() []string {
	return []string{"pdf_form_fields", "pdf_form_template", "pdf_form_fill", "pdf_server_info"}
}
