package pdf

import (
	"github.com/mcmespana/mcmAutoPDF/internal/fill"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
	"github.com/mcmespana/mcmAutoPDF/internal/template"
)

// FileInfo represents information about a file in the forms directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
	Kind         string `json:"kind"` // "form", "template", "mapping"
}

// TemplateBundle holds the rendered artifacts of one form
type TemplateBundle struct {
	Template    *template.Template `json:"template"`
	CSV         []byte             `json:"-"`
	MappingText []byte             `json:"-"`
	Info        []byte             `json:"-"` // nil unless requested
}

// FillResult is the outcome of NormalizeAndFill
type FillResult struct {
	PDF        []byte                     `json:"-"`
	Normalized *fill.Result               `json:"normalized"`
	Write      *fill.WriteResult          `json:"write"`
	Ignored    []string                   `json:"ignored,omitempty"`
	Validation *template.ValidationReport `json:"validation"`
	Plan       []fill.FieldFill           `json:"-"`
	Catalog    *extraction.Catalog        `json:"-"`
}

// Request Types

// FormFieldsRequest asks for the field catalog of a form
type FormFieldsRequest struct {
	Path string `json:"path"`
}

// FormTemplateRequest asks for a template, mapping and info report
type FormTemplateRequest struct {
	Path string `json:"path"`
	// OutputDir defaults to the form's directory
	OutputDir string `json:"output_dir,omitempty"`
	// HeaderMode overrides the configured header mode when set
	HeaderMode  string `json:"header_mode,omitempty"`
	IncludeInfo *bool  `json:"include_info,omitempty"`
}

// FormFillRequest asks to fill a form from a filled-in template
type FormFillRequest struct {
	Path     string `json:"path"`
	DataPath string `json:"data_path"`
	// MappingPath defaults to the mapping written next to DataPath, if any
	MappingPath string `json:"mapping_path,omitempty"`
	// OutputPath defaults to <form stem>_rellenado.pdf next to the form
	OutputPath string `json:"output_path,omitempty"`
	Flatten    *bool  `json:"flatten,omitempty"`
	// DryRun resolves values without writing a PDF
	DryRun bool `json:"dry_run,omitempty"`
}

// ServerInfoRequest represents a request for server information
type ServerInfoRequest struct {
	// No parameters needed for server info
}

// Response Types

// FieldInfo is one catalog field with its suggested label
type FieldInfo struct {
	Name     string                  `json:"name"`
	Label    string                  `json:"label"`
	Kind     string                  `json:"kind"`
	Options  []string                `json:"options,omitempty"`
	Required bool                    `json:"required"`
	ReadOnly bool                    `json:"read_only"`
	Page     int                     `json:"page,omitempty"` // 1-based, 0 when unknown
	Example  string                  `json:"example"`
	Bounds   *extraction.BoundingBox `json:"bounds,omitempty"`
}

// FormFieldsResult lists the fields of a form
type FormFieldsResult struct {
	Path        string         `json:"path"`
	PageCount   int            `json:"page_count"`
	FieldCount  int            `json:"field_count"`
	CountByKind map[string]int `json:"count_by_kind"`
	Strategy    string         `json:"label_strategy"`
	Fields      []FieldInfo    `json:"fields"`
}

// FormTemplateResult lists the files written for a form
type FormTemplateResult struct {
	Path         string   `json:"path"`
	TemplatePath string   `json:"template_path"`
	MappingPath  string   `json:"mapping_path"`
	InfoPath     string   `json:"info_path,omitempty"`
	Headers      []string `json:"headers"`
	FieldCount   int      `json:"field_count"`
}

// PlannedValue is a value the writer would apply
type PlannedValue struct {
	Field string `json:"field"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// FormFillResult reports a fill
type FormFillResult struct {
	Path         string         `json:"path"`
	OutputPath   string         `json:"output_path,omitempty"`
	DryRun       bool           `json:"dry_run"`
	Filled       []string       `json:"filled"`
	Skipped      []string       `json:"skipped,omitempty"`
	Dropped      []string       `json:"dropped,omitempty"`
	Ignored      []string       `json:"ignored,omitempty"`
	// Missing lists form fields with no column in the data, in form order
	Missing      []string       `json:"missing_fields,omitempty"`
	Planned      []PlannedValue `json:"planned,omitempty"`
	Fallback     bool           `json:"fallback"`
	PagesFilled  int            `json:"pages_filled,omitempty"`
	Flattened    bool           `json:"flattened"`
	FlattenError string         `json:"flatten_error,omitempty"`
	Warnings     string         `json:"warnings,omitempty"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	LabelStrategy     string     `json:"label_strategy"`
	KeywordTable      string     `json:"keyword_table_version"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
