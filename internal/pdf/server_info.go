package pdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mcmespana/mcmAutoPDF/internal/descriptions"
)

// Directory scan limits for server info
const (
	serverInfoFileLimit = 100
	serverInfoTimeout   = 3 * time.Second
	serverInfoCacheTTL  = time.Minute
)

// DirectoryCache provides TTL-based caching for directory listings
type DirectoryCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

type cacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached listing of path if it has not expired
func (c *DirectoryCache) Get(path string) ([]FileInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || c.now().Sub(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return entry.files, true
}

// Set stores the listing of path
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{files: files, lastUpdate: c.now()}
}

// Clear removes all entries
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// ServerInfo builds server info responses; directory listings are cached briefly
type ServerInfo struct {
	service *Service
	cache   *DirectoryCache
}

// NewServerInfo creates a server info handler for service
func NewServerInfo(service *Service) *ServerInfo {
	return &ServerInfo{
		service: service,
		cache:   NewDirectoryCache(serverInfoCacheTTL),
	}
}

// GetServerInfo returns configuration, tools and the forms directory listing.
// A slow or failing scan yields an empty listing rather than an error.
func (p *ServerInfo) GetServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	dir := p.service.pathValidator.GetConfiguredDirectory()

	files, cached := p.cache.Get(dir)
	if !cached {
		files = p.scan(ctx, dir)
		p.cache.Set(dir, files)
	}

	return &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       p.service.maxFileSize,
		LabelStrategy:     p.service.strategy.Name(),
		KeywordTable:      p.service.keywordTable.Version(),
		AvailableTools:    p.availableTools(),
		DirectoryContents: files,
		UsageGuidance:     p.usageGuidance(),
	}, nil
}

func (p *ServerInfo) scan(ctx context.Context, dir string) []FileInfo {
	scanCtx, cancel := context.WithTimeout(ctx, serverInfoTimeout)
	defer cancel()

	resultCh := make(chan []FileInfo, 1)
	go func() {
		files, err := ListFormFiles(dir, serverInfoFileLimit)
		if err != nil {
			files = []FileInfo{}
		}
		resultCh <- files
	}()

	select {
	case files := <-resultCh:
		return files
	case <-scanCtx.Done():
		return []FileInfo{}
	}
}

// ClearCache drops cached directory listings
func (p *ServerInfo) ClearCache() {
	p.cache.Clear()
}

func (p *ServerInfo) availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_form_fields",
			Description: descriptions.GetToolDescription("pdf_form_fields"),
			Usage:       "List the fields of a form with suggested labels before generating a template.",
			Parameters:  "path (required): path to the PDF form",
		},
		{
			Name:        "pdf_form_template",
			Description: descriptions.GetToolDescription("pdf_form_template"),
			Usage:       "Write <stem>_plantilla.csv with its mapping and field report.",
			Parameters: "path (required): path to the PDF form, output_dir (optional), " +
				"header_mode (optional): labels or technical, include_info (optional): true/false",
		},
		{
			Name:        "pdf_form_fill",
			Description: descriptions.GetToolDescription("pdf_form_fill"),
			Usage:       "Fill the form from the first row of a completed template.",
			Parameters: "path (required): PDF form, data_path (required): completed CSV, " +
				"mapping_path (optional), output_path (optional), flatten (optional), dry_run (optional)",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Show configuration and the forms available in the working directory.",
			Parameters:  "none",
		},
	}
}

func (p *ServerInfo) usageGuidance() string {
	maxFileSizeMB := p.service.maxFileSize / (1024 * 1024)

	return fmt.Sprintf(`PDF Forms MCP Server Usage Guide:

1. DISCOVER:
   - Use 'pdf_server_info' to list forms (.pdf), templates (.csv) and mappings (_mapeo.txt)
   - Use 'pdf_form_fields' to see the fields of a form and their suggested labels

2. GENERATE A TEMPLATE:
   - Use 'pdf_form_template' to write <stem>_plantilla.csv, <stem>_plantilla_mapeo.txt
     and (optionally) <stem>_plantilla_info.txt next to the form
   - Checkbox columns expect __YES__ / __NO__ (also sí, yes, true, 1, x / no, false, 0)

3. FILL:
   - Fill the first data row of the CSV; empty cells leave fields untouched
   - Use 'pdf_form_fill' with the form and the CSV; the mapping beside the CSV is used automatically
   - Use dry_run=true to review the values before writing <stem>_rellenado.pdf

IMPORTANT NOTES:
- Paths must be inside the configured directory
- The server can handle files up to %dMB
- Columns that match no field are dropped and reported as warnings
- Signature and button fields are listed but never filled`, maxFileSizeMB)
}
