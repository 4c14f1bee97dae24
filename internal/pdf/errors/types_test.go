package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormError_ErrorNamesStage(t *testing.T) {
	err := NotAForm("no AcroForm dictionary")

	assert.Equal(t, StageExtraction, err.Stage)
	assert.Contains(t, err.Error(), "extraction failed")
	assert.Contains(t, err.Error(), "NOT_A_FORM")
	assert.Contains(t, err.Error(), "no AcroForm dictionary")
}

func TestFormError_UnwrapAndIsType(t *testing.T) {
	cause := stderrors.New("disk full")
	wrapped := fmt.Errorf("fill form: %w", WriteIO("cannot serialize", cause))

	assert.True(t, IsType(wrapped, ErrorTypeWriteIO))
	assert.False(t, IsType(wrapped, ErrorTypeNotAForm))
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.Equal(t, StageFill, StageOf(wrapped))
	assert.Equal(t, Stage(""), StageOf(cause))
}

func TestMappingParse_Line(t *testing.T) {
	err := MappingParse(7, "arrow without label")
	assert.Equal(t, StageMapping, err.Stage)
	assert.Contains(t, err.Error(), "line 7: arrow without label")

	noLine := MappingParse(0, "no records")
	assert.Contains(t, noLine.Error(), "no records")
	assert.NotContains(t, noLine.Error(), "line 0")
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		limit int
		want  string
	}{
		{name: "empty", names: nil, limit: 3, want: ""},
		{name: "under limit", names: []string{"a", "b"}, limit: 3, want: "a, b"},
		{name: "at limit", names: []string{"a", "b", "c"}, limit: 3, want: "a, b, c"},
		{name: "over limit", names: []string{"a", "b", "c", "d", "e"}, limit: 2, want: "a, b ... and 3 more"},
		{name: "default limit", names: []string{"1", "2", "3", "4", "5", "6"}, limit: 0, want: "1, 2, 3, 4, 5 ... and 1 more"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.names, tt.limit))
		})
	}
}

func TestNoMatchingFields_Details(t *testing.T) {
	err := NoMatchingFields("no column matched a form field", []string{"foo", "bar"}, 5)

	assert.Equal(t, []string{"foo", "bar"}, err.Details)
	assert.Contains(t, err.Error(), "unmatched columns: foo, bar")
	assert.Equal(t, SeverityFatal, err.GetSeverity())
}

func TestErrorCollection(t *testing.T) {
	ec := NewErrorCollection()
	assert.Equal(t, "No errors or warnings", ec.Summary(5))

	ec.Add(UnknownField("Foo"))
	ec.Add(UnknownField("Bar"))
	ec.Add(WriteIO("flatten failed", nil))

	errs, warns := ec.Count()
	require.Equal(t, 1, errs)
	require.Equal(t, 2, warns)
	assert.Contains(t, ec.Summary(1), "dropped columns: Foo ... and 1 more")
}

func TestErrorCollection_SkippedValues(t *testing.T) {
	ec := NewErrorCollection()
	ec.Add(SkippedValue("country"))
	ec.Add(UnknownField("phone"))

	errs, warns := ec.Count()
	assert.Zero(t, errs)
	assert.Equal(t, 2, warns)
	assert.Equal(t, "SKIPPED_VALUE", ErrorTypeSkippedValue.String())

	summary := ec.Summary(5)
	assert.Contains(t, summary, "dropped columns: phone")
	assert.Contains(t, summary, "skipped fields: country")
}
