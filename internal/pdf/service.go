// Package pdf exposes the form pipeline to the MCP server and the CLI: catalog
// a form, derive its template and mapping, and fill it from a template row.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mcmespana/mcmAutoPDF/internal/config"
	"github.com/mcmespana/mcmAutoPDF/internal/fill"
	"github.com/mcmespana/mcmAutoPDF/internal/labels"
	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf/security"
	"github.com/mcmespana/mcmAutoPDF/internal/template"
)

// Output file naming, relative to the form or template stem
const (
	templateSuffix = "_plantilla.csv"
	mappingSuffix  = "_mapeo.txt"
	infoSuffix     = "_info.txt"
	filledSuffix   = "_rellenado.pdf"

	outputFilePerm = 0o600
	outputDirPerm  = 0o750
)

// Service runs the form pipeline. It holds only immutable configuration and is
// safe for concurrent use.
type Service struct {
	maxFileSize   int64
	previewLimit  int
	headerMode    template.HeaderMode
	includeInfo   bool
	flatten       bool
	builder       *extraction.Builder
	strategy      labels.Strategy
	keywordTable  *labels.KeywordTable
	normalizer    *fill.Normalizer
	writer        *fill.Writer
	validator     *Validator
	pathValidator *security.PathValidator
	logger        *zap.Logger
}

// NewService creates a service from configuration
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	pathValidator, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	table := labels.DefaultKeywordTable()
	if cfg.KeywordsFile != "" {
		table, err = labels.LoadKeywordTable(cfg.KeywordsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load keyword table: %w", err)
		}
	}

	strategy, err := labels.NewStrategy(cfg.LabelStrategy, labels.NewSuggester(table), logger)
	if err != nil {
		return nil, err
	}

	mode, err := template.ParseHeaderMode(cfg.HeaderMode)
	if err != nil {
		return nil, err
	}

	return &Service{
		maxFileSize:   cfg.MaxFileSize,
		previewLimit:  cfg.PreviewLimit,
		headerMode:    mode,
		includeInfo:   cfg.IncludeInfo,
		flatten:       cfg.Flatten,
		builder:       extraction.NewBuilder(logger),
		strategy:      strategy,
		keywordTable:  table,
		normalizer:    fill.NewNormalizer(cfg.PreviewLimit, logger),
		writer:        fill.NewWriter(nil, logger),
		validator:     NewValidator(cfg.MaxFileSize),
		pathValidator: pathValidator,
		logger:        logger,
	}, nil
}

// Catalog lists the fields of a form
func (s *Service) Catalog(formBytes []byte) (*extraction.Catalog, error) {
	return s.builder.Build(formBytes)
}

// SuggestAndMap labels every field and folds the labels into a unique mapping.
// The returned catalog is a labeled copy; cat is not modified.
func (s *Service) SuggestAndMap(cat *extraction.Catalog) (*extraction.Catalog, *template.Mapping) {
	suggested := s.strategy.Labels(cat)

	byName := make(map[string]string, len(suggested))
	for i, f := range cat.Fields() {
		if i < len(suggested) {
			byName[f.Name] = suggested[i]
		}
	}

	labeled := cat.WithSuggestedLabels(func(f extraction.FormField) string { return byName[f.Name] })
	return labeled, template.MappingFromLabels(cat, suggested)
}

// RenderTemplate renders the template CSV, the mapping text and optionally the info report
func (s *Service) RenderTemplate(cat *extraction.Catalog, mapping *template.Mapping, includeInfo bool) (*TemplateBundle, error) {
	return s.renderTemplate(cat, mapping, s.headerMode, includeInfo)
}

func (s *Service) renderTemplate(cat *extraction.Catalog, mapping *template.Mapping, mode template.HeaderMode,
	includeInfo bool,
) (*TemplateBundle, error) {
	tpl := template.Render(cat, mapping, mode)

	csvBytes, err := template.EncodeCSV(tpl)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}

	bundle := &TemplateBundle{
		Template:    tpl,
		CSV:         csvBytes,
		MappingText: template.RenderMappingText(mapping),
	}
	if includeInfo {
		bundle.Info = template.RenderInfo(cat, mapping)
	}

	return bundle, nil
}

// NormalizeAndFill reads the first row of tabular, resolves its headers through
// mappingText, normalizes the values and writes them into the form. When cat
// is nil it is built from formBytes.
func (s *Service) NormalizeAndFill(formBytes []byte, cat *extraction.Catalog, tabular, mappingText []byte,
	flatten bool,
) (*FillResult, error) {
	res, err := s.prepareFill(formBytes, cat, tabular, mappingText)
	if err != nil {
		return nil, err
	}

	wr, err := s.writer.Fill(res.Catalog, res.Normalized.Values, flatten)
	if err != nil {
		return nil, err
	}

	res.Write = wr
	addSkipped(res.Normalized, wr.Skipped)
	res.PDF = wr.PDF

	s.logger.Info("form filled",
		zap.Int("filled", len(wr.Filled)),
		zap.Int("dropped", len(res.Normalized.Dropped)),
		zap.Bool("fallback", wr.Fallback),
		zap.Bool("flattened", wr.Flattened))

	return res, nil
}

// PlanFill runs NormalizeAndFill up to the writer and returns the values it would apply
func (s *Service) PlanFill(formBytes []byte, cat *extraction.Catalog, tabular, mappingText []byte) (*FillResult, error) {
	res, err := s.prepareFill(formBytes, cat, tabular, mappingText)
	if err != nil {
		return nil, err
	}

	fills, skipped := s.writer.Plan(res.Catalog, res.Normalized.Values)
	res.Plan = fills
	res.Write = &fill.WriteResult{Skipped: skipped}
	addSkipped(res.Normalized, skipped)
	for _, f := range fills {
		res.Write.Filled = append(res.Write.Filled, f.Field.Name)
	}

	return res, nil
}

func (s *Service) prepareFill(formBytes []byte, cat *extraction.Catalog, tabular, mappingText []byte) (*FillResult, error) {
	if cat == nil {
		var err error
		if cat, err = s.Catalog(formBytes); err != nil {
			return nil, err
		}
	}

	req, err := template.Read(tabular, mappingText)
	if err != nil {
		return nil, err
	}

	normalized, err := s.normalizer.Normalize(req, cat)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, req.Len())
	for _, e := range req.Entries {
		columns = append(columns, e.Field)
	}

	return &FillResult{
		Normalized: normalized,
		Ignored:    req.Ignored,
		Validation: template.Validate(columns, cat, nil),
		Catalog:    cat,
	}, nil
}

// addSkipped records values the writer left out as warnings
func addSkipped(res *fill.Result, skipped []string) {
	for _, name := range skipped {
		res.Warnings.Add(formerrors.SkippedValue(name))
	}
}

// FormFieldsFile lists the fields of a form file with their suggested labels
func (s *Service) FormFieldsFile(req FormFieldsRequest) (*FormFieldsResult, error) {
	path, src, err := s.readForm(req.Path)
	if err != nil {
		return nil, err
	}

	cat, err := s.Catalog(src)
	if err != nil {
		return nil, err
	}
	_, mapping := s.SuggestAndMap(cat)

	result := &FormFieldsResult{
		Path:        path,
		PageCount:   cat.PageCount(),
		FieldCount:  cat.Len(),
		CountByKind: make(map[string]int),
		Strategy:    s.strategy.Name(),
		Fields:      make([]FieldInfo, 0, cat.Len()),
	}

	for kind, n := range cat.CountByKind() {
		result.CountByKind[string(kind)] = n
	}

	for _, f := range cat.Fields() {
		label, _ := mapping.Label(f.Name)
		info := FieldInfo{
			Name:     f.Name,
			Label:    label,
			Kind:     string(f.Kind),
			Options:  f.Options,
			Required: f.Required,
			ReadOnly: f.ReadOnly,
			Example:  template.ExampleValue(f),
		}
		if f.Location != nil {
			info.Page = f.Location.PageIndex + 1
			bounds := f.Location.Bounds
			info.Bounds = &bounds
		}
		result.Fields = append(result.Fields, info)
	}

	return result, nil
}

// FormTemplateFile writes <stem>_plantilla.csv and its mapping (and info report)
// for a form file
func (s *Service) FormTemplateFile(req FormTemplateRequest) (*FormTemplateResult, error) {
	path, src, err := s.readForm(req.Path)
	if err != nil {
		return nil, err
	}

	mode := s.headerMode
	if req.HeaderMode != "" {
		if mode, err = template.ParseHeaderMode(req.HeaderMode); err != nil {
			return nil, err
		}
	}
	includeInfo := s.includeInfo
	if req.IncludeInfo != nil {
		includeInfo = *req.IncludeInfo
	}

	outDir := filepath.Dir(path)
	if req.OutputDir != "" {
		if outDir, err = s.pathValidator.Resolve(req.OutputDir); err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
	}
	if err := s.pathValidator.ValidateDirectory(outDir); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if err := os.MkdirAll(outDir, outputDirPerm); err != nil {
		return nil, fmt.Errorf("cannot create output directory %s: %w", outDir, err)
	}

	cat, err := s.Catalog(src)
	if err != nil {
		return nil, err
	}
	_, mapping := s.SuggestAndMap(cat)

	bundle, err := s.renderTemplate(cat, mapping, mode, includeInfo)
	if err != nil {
		return nil, err
	}

	templatePath := filepath.Join(outDir, stem(path)+templateSuffix)
	result := &FormTemplateResult{
		Path:         path,
		TemplatePath: templatePath,
		MappingPath:  siblingPath(templatePath, mappingSuffix),
		Headers:      bundle.Template.Headers,
		FieldCount:   cat.Len(),
	}

	if err := s.writeOutput(result.TemplatePath, bundle.CSV); err != nil {
		return nil, err
	}
	if err := s.writeOutput(result.MappingPath, bundle.MappingText); err != nil {
		return nil, err
	}
	if bundle.Info != nil {
		result.InfoPath = siblingPath(templatePath, infoSuffix)
		if err := s.writeOutput(result.InfoPath, bundle.Info); err != nil {
			return nil, err
		}
	}

	s.logger.Info("template written",
		zap.String("template", result.TemplatePath),
		zap.Int("fields", result.FieldCount))

	return result, nil
}

// FormFillFile fills a form file from a filled-in template and writes
// <stem>_rellenado.pdf, unless the request is a dry run
func (s *Service) FormFillFile(req FormFillRequest) (*FormFillResult, error) {
	path, src, err := s.readForm(req.Path)
	if err != nil {
		return nil, err
	}

	dataPath, err := s.pathValidator.Resolve(req.DataPath)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	tabular, err := s.validator.ReadTabular(dataPath)
	if err != nil {
		return nil, err
	}

	mappingText, err := s.readMapping(req.MappingPath, dataPath)
	if err != nil {
		return nil, err
	}

	flatten := s.flatten
	if req.Flatten != nil {
		flatten = *req.Flatten
	}

	if req.DryRun {
		res, err := s.PlanFill(src, nil, tabular, mappingText)
		if err != nil {
			return nil, err
		}
		out := s.fillResult(path, res)
		out.DryRun = true
		for _, f := range res.Plan {
			out.Planned = append(out.Planned, PlannedValue{Field: f.Field.Name, Kind: string(f.Field.Kind), Value: plannedValue(f)})
		}
		return out, nil
	}

	outputPath := filepath.Join(filepath.Dir(path), stem(path)+filledSuffix)
	if req.OutputPath != "" {
		if outputPath, err = s.pathValidator.Resolve(req.OutputPath); err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
	}

	res, err := s.NormalizeAndFill(src, nil, tabular, mappingText, flatten)
	if err != nil {
		return nil, err
	}

	if err := s.writeOutput(outputPath, res.PDF); err != nil {
		return nil, err
	}

	out := s.fillResult(path, res)
	out.OutputPath = outputPath
	return out, nil
}

func (s *Service) fillResult(path string, res *FillResult) *FormFillResult {
	out := &FormFillResult{
		Path:    path,
		Dropped: res.Normalized.Dropped,
		Ignored: res.Ignored,
	}
	if errs, warns := res.Normalized.Warnings.Count(); errs+warns > 0 {
		out.Warnings = res.Normalized.Warnings.Summary(s.previewLimit)
	}
	if res.Validation != nil {
		out.Missing = res.Validation.Missing
	}
	if wr := res.Write; wr != nil {
		out.Filled = wr.Filled
		out.Skipped = wr.Skipped
		out.Fallback = wr.Fallback
		out.PagesFilled = wr.PagesFilled
		out.Flattened = wr.Flattened
		out.FlattenError = wr.FlattenError
	}
	return out
}

func plannedValue(f fill.FieldFill) string {
	if f.Field.Kind == extraction.KindCheckbox {
		if f.Checked {
			return "checked"
		}
		return "unchecked"
	}
	return f.Text
}

// readForm resolves the path and reads the form
func (s *Service) readForm(path string) (string, []byte, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return "", nil, fmt.Errorf("security validation failed: %w", err)
	}
	src, err := s.validator.ReadPDF(resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, src, nil
}

// readMapping reads an explicit mapping, or the one written beside the data
// file. No mapping means headers are technical names.
func (s *Service) readMapping(mappingPath, dataPath string) ([]byte, error) {
	if mappingPath == "" {
		candidate := siblingPath(dataPath, mappingSuffix)
		if _, err := os.Stat(candidate); err != nil {
			return nil, nil
		}
		mappingPath = candidate
	}

	resolved, err := s.pathValidator.Resolve(mappingPath)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ReadMapping(resolved)
}

func (s *Service) writeOutput(path string, data []byte) error {
	if err := s.pathValidator.ValidatePath(path); err != nil {
		return fmt.Errorf("security validation failed: %w", err)
	}
	if err := os.WriteFile(path, data, outputFilePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// stem returns the file name without directory and extension
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// siblingPath swaps the extension of path for suffix: a.csv -> a_mapeo.txt
func siblingPath(path, suffix string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}
