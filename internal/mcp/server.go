package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mcmespana/mcmAutoPDF/internal/config"
	"github.com/mcmespana/mcmAutoPDF/internal/descriptions"
	"github.com/mcmespana/mcmAutoPDF/internal/pdf"
)

const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	serverInfo *pdf.ServerInfo
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		serverInfo: pdf.NewServerInfo(pdfService),
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	formFieldsTool := mcp.NewTool(
		"pdf_form_fields",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_fields")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF form, absolute or relative to the forms directory"),
		),
	)
	s.mcpServer.AddTool(formFieldsTool, s.handleFormFields)

	formTemplateTool := mcp.NewTool(
		"pdf_form_template",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_template")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF form"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory for the generated files (defaults to the form's directory)"),
		),
		mcp.WithString("header_mode",
			mcp.Description("Header row content: labels or technical"),
			mcp.Enum(config.HeaderLabels, config.HeaderTechnical),
		),
		mcp.WithBoolean("include_info",
			mcp.Description("Also write the <stem>_plantilla_info.txt field report"),
		),
	)
	s.mcpServer.AddTool(formTemplateTool, s.handleFormTemplate)

	formFillTool := mcp.NewTool(
		"pdf_form_fill",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_form_fill")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF form"),
		),
		mcp.WithString("data_path",
			mcp.Required(),
			mcp.Description("Completed template (CSV); only the first data row is used"),
		),
		mcp.WithString("mapping_path",
			mcp.Description("Mapping file; defaults to the _mapeo.txt next to data_path"),
		),
		mcp.WithString("output_path",
			mcp.Description("Output PDF; defaults to <stem>_rellenado.pdf next to the form"),
		),
		mcp.WithBoolean("flatten",
			mcp.Description("Turn the filled fields into static page content"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report the values that would be written without writing a file"),
		),
	)
	s.mcpServer.AddTool(formFillTool, s.handleFormFill)

	serverInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

func (s *Server) handleFormFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.FormFieldsFile(pdf.FormFieldsRequest{Path: path})
	if err != nil {
		return s.toolError("pdf_form_fields", err), nil
	}

	return mcp.NewToolResultText(s.formatFormFieldsResult(result)), nil
}

func (s *Server) handleFormTemplate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	req := pdf.FormTemplateRequest{
		Path:       path,
		OutputDir:  stringArg(args, "output_dir"),
		HeaderMode: stringArg(args, "header_mode"),
	}
	if req.IncludeInfo, err = boolArg(args, "include_info"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.FormTemplateFile(req)
	if err != nil {
		return s.toolError("pdf_form_template", err), nil
	}

	s.serverInfo.ClearCache()
	return mcp.NewToolResultText(s.formatFormTemplateResult(result)), nil
}

func (s *Server) handleFormFill(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dataPath, err := request.RequireString("data_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	req := pdf.FormFillRequest{
		Path:        path,
		DataPath:    dataPath,
		MappingPath: stringArg(args, "mapping_path"),
		OutputPath:  stringArg(args, "output_path"),
	}
	if req.Flatten, err = boolArg(args, "flatten"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dryRun, err := boolArg(args, "dry_run")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req.DryRun = dryRun != nil && *dryRun

	result, err := s.pdfService.FormFillFile(req)
	if err != nil {
		return s.toolError("pdf_form_fill", err), nil
	}

	if !result.DryRun {
		s.serverInfo.ClearCache()
	}
	return mcp.NewToolResultText(s.formatFormFillResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.serverInfo.GetServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// toolError logs a failed tool call and turns it into an error result
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("tool call failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// boolArg returns nil when key is absent. Clients that send booleans as
// strings are accepted.
func boolArg(args map[string]any, key string) (*bool, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case bool:
		return &v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("argument %q must be a boolean, got %q", key, v)
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("argument %q must be a boolean", key)
	}
}

func (s *Server) formatFormFieldsResult(result *pdf.FormFieldsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Form: %s\n", result.Path)
	fmt.Fprintf(&b, "Pages: %d\n", result.PageCount)
	fmt.Fprintf(&b, "Fields: %d\n", result.FieldCount)
	fmt.Fprintf(&b, "Label strategy: %s\n", result.Strategy)

	if result.FieldCount == 0 {
		return b.String()
	}

	b.WriteString("\nFields:\n")
	for i, f := range result.Fields {
		fmt.Fprintf(&b, "%d. %s [%s]\n", i+1, f.Name, f.Kind)
		fmt.Fprintf(&b, "   Label: %s\n", f.Label)
		if len(f.Options) > 0 {
			fmt.Fprintf(&b, "   Options: %s\n", strings.Join(f.Options, ", "))
		}
		if f.Page > 0 {
			fmt.Fprintf(&b, "   Page: %d\n", f.Page)
		}
		if f.Required {
			b.WriteString("   Required: yes\n")
		}
		if f.ReadOnly {
			b.WriteString("   Read-only: yes\n")
		}
	}

	return b.String()
}

func (s *Server) formatFormTemplateResult(result *pdf.FormTemplateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Template generated for: %s\n", result.Path)
	fmt.Fprintf(&b, "Fields: %d\n\n", result.FieldCount)
	fmt.Fprintf(&b, "Template: %s\n", result.TemplatePath)
	fmt.Fprintf(&b, "Mapping: %s\n", result.MappingPath)
	if result.InfoPath != "" {
		fmt.Fprintf(&b, "Field report: %s\n", result.InfoPath)
	}

	b.WriteString("\nColumns:\n")
	for i, h := range result.Headers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, h)
	}

	b.WriteString("\nFill the first data row and call 'pdf_form_fill' with the template as data_path.\n")
	return b.String()
}

func (s *Server) formatFormFillResult(result *pdf.FormFillResult) string {
	var b strings.Builder
	if result.DryRun {
		fmt.Fprintf(&b, "Dry run for: %s (nothing written)\n", result.Path)
		fmt.Fprintf(&b, "Values to write: %d\n", len(result.Planned))
		for _, p := range result.Planned {
			fmt.Fprintf(&b, "   %s [%s] = %s\n", p.Field, p.Kind, p.Value)
		}
	} else {
		fmt.Fprintf(&b, "Filled form: %s\n", result.OutputPath)
		fmt.Fprintf(&b, "Fields filled: %d\n", len(result.Filled))
		if result.Fallback {
			fmt.Fprintf(&b, "Filled page by page (%d page(s) accepted)\n", result.PagesFilled)
		}
		if result.Flattened {
			b.WriteString("Flattened: yes\n")
		}
		if result.FlattenError != "" {
			fmt.Fprintf(&b, "⚠️  Flatten failed, the form is still editable: %s\n", result.FlattenError)
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped: %s\n", strings.Join(result.Skipped, ", "))
	}
	if len(result.Ignored) > 0 {
		fmt.Fprintf(&b, "Ignored duplicate columns: %s\n", strings.Join(result.Ignored, ", "))
	}
	if len(result.Missing) > 0 {
		fmt.Fprintf(&b, "Fields without a column: %s\n", strings.Join(result.Missing, ", "))
	}
	if result.Warnings != "" {
		fmt.Fprintf(&b, "Warnings: %s\n", result.Warnings)
	}

	return b.String()
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	fmt.Fprintf(&b, "📁 Default Directory: %s\n", result.DefaultDirectory)
	fmt.Fprintf(&b, "📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	fmt.Fprintf(&b, "🏷️  Label Strategy: %s (keyword table %s)\n\n", result.LabelStrategy, result.KeywordTable)

	if len(result.DirectoryContents) > 0 {
		fmt.Fprintf(&b, "📂 Directory Contents (%d files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				fmt.Fprintf(&b, "   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			fmt.Fprintf(&b, "   %d. %s [%s] (%d bytes)\n", i+1, file.Name, file.Kind, file.Size)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("📂 Directory Contents: No forms or templates found in default directory\n\n")
	}

	b.WriteString("🛠️  Available Tools:\n")
	for _, tool := range result.AvailableTools {
		fmt.Fprintf(&b, "\n• %s\n", tool.Name)
		fmt.Fprintf(&b, "  Usage: %s\n", tool.Usage)
		fmt.Fprintf(&b, "  Parameters: %s\n", tool.Parameters)
	}

	b.WriteString("\n" + result.UsageGuidance)
	return b.String()
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Info("starting MCP server",
		zap.String("mode", config.ModeStdio),
		zap.String("directory", s.config.PDFDirectory))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	s.logger.Info("starting MCP server",
		zap.String("mode", config.ModeServer),
		zap.String("address", addr),
		zap.String("directory", s.config.PDFDirectory))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down MCP server", zap.String("address", addr))
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}
