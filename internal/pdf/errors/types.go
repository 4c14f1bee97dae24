package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// DefaultPreviewLimit bounds how many column names are listed in messages
const DefaultPreviewLimit = 5

// ErrorType represents the categories of failures in the form pipeline
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeNotAForm
	ErrorTypeInvalidPDF
	ErrorTypeMappingParse
	ErrorTypeTemplateParse
	ErrorTypeNoMatchingFields
	ErrorTypeUnknownField
	ErrorTypeWriteIO
	ErrorTypeSkippedValue
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Stage names the pipeline step that produced an error
type Stage string

const (
	StageExtraction Stage = "extraction"
	StageMapping    Stage = "mapping"
	StageFill       Stage = "fill"
)

// FormError is a stage-tagged pipeline error
type FormError struct {
	Type    ErrorType `json:"type"`
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	Context string    `json:"context,omitempty"`
	// Details lists affected items, such as dropped column names
	Details []string `json:"details,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface
func (e *FormError) Error() string {
	msg := fmt.Sprintf("%s failed [%s]: %s", e.Stage, e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *FormError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNotAForm:
		return "NOT_A_FORM"
	case ErrorTypeInvalidPDF:
		return "INVALID_PDF"
	case ErrorTypeMappingParse:
		return "MAPPING_PARSE"
	case ErrorTypeTemplateParse:
		return "TEMPLATE_PARSE"
	case ErrorTypeNoMatchingFields:
		return "NO_MATCHING_FIELDS"
	case ErrorTypeUnknownField:
		return "UNKNOWN_FIELD"
	case ErrorTypeWriteIO:
		return "WRITE_IO"
	case ErrorTypeSkippedValue:
		return "SKIPPED_VALUE"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeUnknownField, ErrorTypeSkippedValue:
		return SeverityWarning
	case ErrorTypeNotAForm, ErrorTypeInvalidPDF, ErrorTypeNoMatchingFields:
		return SeverityFatal
	case ErrorTypeMappingParse, ErrorTypeTemplateParse, ErrorTypeWriteIO:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// New creates a FormError of the given type for a stage
func New(errorType ErrorType, stage Stage, message string) *FormError {
	return &FormError{
		Type:    errorType,
		Stage:   stage,
		Message: message,
	}
}

// Wrap creates a FormError that wraps an underlying cause
func Wrap(errorType ErrorType, stage Stage, message string, err error) *FormError {
	return &FormError{
		Type:    errorType,
		Stage:   stage,
		Message: message,
		Err:     err,
	}
}

// NotAForm reports a source without interactive fields
func NotAForm(reason string) *FormError {
	return New(ErrorTypeNotAForm, StageExtraction, "document has no interactive form fields").WithContext(reason)
}

// MappingParse reports a malformed mapping file at a 1-based line
func MappingParse(line int, reason string) *FormError {
	e := New(ErrorTypeMappingParse, StageMapping, "malformed mapping file")
	if line > 0 {
		return e.WithContext(fmt.Sprintf("line %d: %s", line, reason))
	}
	return e.WithContext(reason)
}

// NoMatchingFields reports tabular data that shares nothing with the form
func NoMatchingFields(reason string, dropped []string, limit int) *FormError {
	e := New(ErrorTypeNoMatchingFields, StageFill, reason)
	e.Details = dropped
	if len(dropped) > 0 {
		e.Context = "unmatched columns: " + Preview(dropped, limit)
	}
	return e
}

// UnknownField is the non-fatal warning for a column absent from the form
func UnknownField(header string) *FormError {
	return New(ErrorTypeUnknownField, StageFill, "column does not match any form field").WithContext(header)
}

// SkippedValue is the non-fatal warning for a value the writer left out
func SkippedValue(field string) *FormError {
	return New(ErrorTypeSkippedValue, StageFill, "value cannot be written to this field").WithContext(field)
}

// WriteIO reports that the writer could not produce output
func WriteIO(message string, err error) *FormError {
	return Wrap(ErrorTypeWriteIO, StageFill, message, err)
}

// WithContext adds context to an existing FormError
func (e *FormError) WithContext(context string) *FormError {
	e.Context = context
	return e
}

// WithDetails attaches the affected item names
func (e *FormError) WithDetails(details []string) *FormError {
	e.Details = details
	return e
}

// GetSeverity returns the severity of this specific error
func (e *FormError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsType reports whether err is, or wraps, a FormError of the given type
func IsType(err error, errorType ErrorType) bool {
	var fe *FormError
	if stderrors.As(err, &fe) {
		return fe.Type == errorType
	}
	return false
}

// StageOf returns the stage recorded on err, or "" when err is not a FormError
func StageOf(err error) Stage {
	var fe *FormError
	if stderrors.As(err, &fe) {
		return fe.Stage
	}
	return ""
}

// Preview joins up to limit names and summarizes the rest
func Preview(names []string, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if len(names) <= limit {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s ... and %d more", strings.Join(names[:limit], ", "), len(names)-limit)
}

// ErrorCollection accumulates non-fatal problems reported in aggregate
type ErrorCollection struct {
	Errors   []*FormError `json:"errors"`
	Warnings []*FormError `json:"warnings"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*FormError, 0),
		Warnings: make([]*FormError, 0),
	}
}

// Add adds an error to the appropriate collection based on severity
func (ec *ErrorCollection) Add(err *FormError) {
	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary(limit int) string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}

	summary := fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)

	var unknown, skipped []string
	for _, w := range ec.Warnings {
		switch w.Type {
		case ErrorTypeUnknownField:
			unknown = append(unknown, w.Context)
		case ErrorTypeSkippedValue:
			skipped = append(skipped, w.Context)
		}
	}
	if len(unknown) > 0 {
		summary += "; dropped columns: " + Preview(unknown, limit)
	}
	if len(skipped) > 0 {
		summary += "; skipped fields: " + Preview(skipped, limit)
	}

	return summary
}
