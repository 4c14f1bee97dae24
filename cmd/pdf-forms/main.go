// Command pdf-forms runs the form pipeline from the shell: list the fields of
// a form, write its template, or fill it from a completed template.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mcmespana/mcmAutoPDF/internal/config"
	"github.com/mcmespana/mcmAutoPDF/internal/logging"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	var cmd func([]string, io.Writer) error
	switch args[0] {
	case "fields":
		cmd = runFields
	case "template":
		cmd = runTemplate
	case "fill":
		cmd = runFill
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	err := cmd(args[1:], stdout)
	var usage usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.As(err, &usage):
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

type usageError struct {
	msg string
}

func (e usageError) Error() string {
	return e.msg
}

// command is a parsed subcommand invocation
type command struct {
	cfg     *config.Config
	service *pdf.Service
	logger  *zap.Logger
	args    []string
	json    bool
}

// setup parses the shared flags plus whatever the subcommand registered on fs.
// Without --dir the directory of the form is used.
func setup(fs *pflag.FlagSet, args []string, wantArgs int) (*command, error) {
	asJSON := fs.Bool("json", false, "Print the result as JSON")

	cfg, err := config.Parse(fs, args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, usageError{msg: err.Error()}
	}
	if fs.NArg() != wantArgs {
		return nil, usageError{msg: fmt.Sprintf("%s expects %d argument(s), got %d", fs.Name(), wantArgs, fs.NArg())}
	}

	positional := make([]string, fs.NArg())
	for i, arg := range fs.Args() {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", arg, err)
		}
		positional[i] = abs
	}

	if !fs.Changed("dir") && os.Getenv("MCP_PDF_FORMS_DIR") == "" {
		cfg.PDFDirectory = filepath.Dir(positional[0])
	}

	logger, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		return nil, err
	}

	service, err := pdf.NewService(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &command{cfg: cfg, service: service, logger: logger, args: positional, json: *asJSON}, nil
}

func runFields(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("fields", pflag.ContinueOnError)
	c, err := setup(fs, args, 1)
	if err != nil {
		return err
	}
	defer func() { _ = c.logger.Sync() }()

	result, err := c.service.FormFieldsFile(pdf.FormFieldsRequest{Path: c.args[0]})
	if err != nil {
		return err
	}
	if c.json {
		return writeJSON(stdout, result)
	}

	fmt.Fprintf(stdout, "%s: %d field(s) on %d page(s)\n\n", result.Path, result.FieldCount, result.PageCount)
	for _, f := range result.Fields {
		line := fmt.Sprintf("%-30s %-9s %s", f.Name, f.Kind, f.Label)
		if len(f.Options) > 0 {
			line += " [" + strings.Join(f.Options, " | ") + "]"
		}
		fmt.Fprintln(stdout, strings.TrimRight(line, " "))
	}
	return nil
}

func runTemplate(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("template", pflag.ContinueOnError)
	outputDir := fs.String("output-dir", "", "Directory for the generated files (defaults to the form's directory)")

	c, err := setup(fs, args, 1)
	if err != nil {
		return err
	}
	defer func() { _ = c.logger.Sync() }()

	req := pdf.FormTemplateRequest{Path: c.args[0], HeaderMode: c.cfg.HeaderMode}
	if *outputDir != "" {
		if req.OutputDir, err = filepath.Abs(*outputDir); err != nil {
			return fmt.Errorf("invalid output directory: %w", err)
		}
	}

	result, err := c.service.FormTemplateFile(req)
	if err != nil {
		return err
	}
	if c.json {
		return writeJSON(stdout, result)
	}

	fmt.Fprintf(stdout, "Template: %s\n", result.TemplatePath)
	fmt.Fprintf(stdout, "Mapping:  %s\n", result.MappingPath)
	if result.InfoPath != "" {
		fmt.Fprintf(stdout, "Info:     %s\n", result.InfoPath)
	}
	fmt.Fprintf(stdout, "Columns:  %s\n", strings.Join(result.Headers, ", "))
	return nil
}

func runFill(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("fill", pflag.ContinueOnError)
	mappingPath := fs.String("mapping", "", "Mapping file (defaults to the _mapeo.txt next to the data file)")
	outputPath := fs.String("output", "", "Output PDF (defaults to <stem>_rellenado.pdf next to the form)")
	dryRun := fs.Bool("dry-run", false, "Show the values that would be written without writing a file")

	c, err := setup(fs, args, 2)
	if err != nil {
		return err
	}
	defer func() { _ = c.logger.Sync() }()

	req := pdf.FormFillRequest{
		Path:     c.args[0],
		DataPath: c.args[1],
		Flatten:  &c.cfg.Flatten,
		DryRun:   *dryRun,
	}
	for _, p := range []struct {
		in  string
		out *string
	}{{*mappingPath, &req.MappingPath}, {*outputPath, &req.OutputPath}} {
		if p.in == "" {
			continue
		}
		if *p.out, err = filepath.Abs(p.in); err != nil {
			return fmt.Errorf("invalid path %s: %w", p.in, err)
		}
	}

	result, err := c.service.FormFillFile(req)
	if err != nil {
		return err
	}
	if c.json {
		return writeJSON(stdout, result)
	}

	if result.DryRun {
		for _, p := range result.Planned {
			fmt.Fprintf(stdout, "%-30s %-9s %s\n", p.Field, p.Kind, p.Value)
		}
	} else {
		fmt.Fprintf(stdout, "Filled %d field(s): %s\n", len(result.Filled), result.OutputPath)
		if result.FlattenError != "" {
			fmt.Fprintf(stdout, "Flatten failed, the form is still editable: %s\n", result.FlattenError)
		}
	}
	if len(result.Missing) > 0 {
		fmt.Fprintf(stdout, "Fields without a column: %s\n", strings.Join(result.Missing, ", "))
	}
	if result.Warnings != "" {
		fmt.Fprintf(stdout, "Warnings: %s\n", result.Warnings)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "pdf-forms - fill PDF forms from spreadsheet templates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf-forms fields   [options] <form.pdf>")
	fmt.Fprintln(w, "  pdf-forms template [options] [--output-dir DIR] <form.pdf>")
	fmt.Fprintln(w, "  pdf-forms fill     [options] [--mapping FILE] [--output FILE] [--dry-run] <form.pdf> <data.csv>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Shared options (also MCP_PDF_FORMS_* environment variables):")
	fmt.Fprintln(w, "  --dir, --label-strategy, --keywords-file, --header-mode, --include-info,")
	fmt.Fprintln(w, "  --flatten, --preview-limit, --maxfilesize, --loglevel, --config, --json")
}
