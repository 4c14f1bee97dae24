package template

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	formerrors "github.com/mcmespana/mcmAutoPDF/internal/pdf/errors"
)

// missingTokens are cell values spreadsheet tools write for empty cells
var missingTokens = map[string]bool{
	"nan":  true,
	"<na>": true,
}

// RequestEntry is one column of the first data row
type RequestEntry struct {
	Header string `json:"header"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// FillRequest holds the values read from a template, keyed by technical name.
// An empty Value means "leave the field untouched".
type FillRequest struct {
	Entries []RequestEntry `json:"entries"`
	// Ignored lists headers that repeat an earlier column
	Ignored []string `json:"ignored,omitempty"`
}

// Len returns the number of columns in the request
func (r *FillRequest) Len() int {
	return len(r.Entries)
}

// Value returns the raw value supplied for a technical name
func (r *FillRequest) Value(field string) (string, bool) {
	for _, e := range r.Entries {
		if e.Field == field {
			return e.Value, true
		}
	}
	return "", false
}

// Read parses tabular bytes into a fill request. When mappingText is non-empty
// headers are resolved through it; unknown headers pass through as technical names.
// Only the first data row is read.
func Read(tabular, mappingText []byte) (*FillRequest, error) {
	var mapping *Mapping
	if len(bytes.TrimSpace(mappingText)) > 0 {
		m, err := ParseMappingText(mappingText)
		if err != nil {
			return nil, err
		}
		mapping = m
	}

	return ReadWithMapping(tabular, mapping)
}

// ReadWithMapping is Read with an already parsed mapping, which may be nil
func ReadWithMapping(tabular []byte, mapping *Mapping) (*FillRequest, error) {
	headers, row, err := readFirstRow(tabular)
	if err != nil {
		return nil, err
	}

	req := &FillRequest{Entries: make([]RequestEntry, 0, len(headers))}
	seen := make(map[string]bool, len(headers))

	for i, raw := range headers {
		header := strings.TrimSpace(raw)
		if header == "" {
			continue
		}

		field := header
		if mapping != nil {
			if technical, ok := mapping.Technical(header); ok {
				field = technical
			}
		}

		if seen[field] {
			req.Ignored = append(req.Ignored, header)
			continue
		}
		seen[field] = true

		value := ""
		if i < len(row) {
			value = row[i]
		}
		if missingTokens[strings.ToLower(strings.TrimSpace(value))] {
			value = ""
		}

		req.Entries = append(req.Entries, RequestEntry{Header: header, Field: field, Value: value})
	}

	return req, nil
}

// readFirstRow returns the header record and the first data record
func readFirstRow(tabular []byte) ([]string, []string, error) {
	decoded, err := stripBOM(tabular)
	if err != nil {
		return nil, nil, formerrors.Wrap(formerrors.ErrorTypeTemplateParse, formerrors.StageMapping,
			"template is not valid text", err)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = sniffDelimiter(decoded)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, formerrors.Wrap(formerrors.ErrorTypeTemplateParse, formerrors.StageMapping,
			"failed to read template header", err)
	}

	row, err := r.Read()
	if errors.Is(err, io.EOF) {
		return headers, nil, nil
	}
	if err != nil {
		return nil, nil, formerrors.Wrap(formerrors.ErrorTypeTemplateParse, formerrors.StageMapping,
			"failed to read template row", err)
	}

	return headers, row, nil
}

func stripBOM(data []byte) ([]byte, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	return decoded, err
}

// sniffDelimiter picks ';' for spreadsheets exported with a semicolon list separator
func sniffDelimiter(data []byte) rune {
	line, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}
