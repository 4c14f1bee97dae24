package extraction

// Kind represents the interaction type of a form field
type Kind string

const (
	KindText     Kind = "text"
	KindCheckbox Kind = "checkbox"
	KindRadio    Kind = "radio"
	KindDropdown Kind = "dropdown"
	KindUnknown  Kind = "unknown"
)

// HasChoices reports whether fields of this kind enumerate options
func (k Kind) HasChoices() bool {
	return k == KindDropdown || k == KindRadio
}

// Field flag bits (PDF 1.7 table 221, 226, 228)
const (
	FlagReadOnly = 1 << 0
	FlagRequired = 1 << 1
	FlagRadio    = 1 << 15
	FlagCombo    = 1 << 17
	FlagEdit     = 1 << 18
)

// Coordinate represents a point in PDF coordinate space
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox represents a rectangular area in PDF coordinate space
type BoundingBox struct {
	LowerLeft  Coordinate `json:"lower_left"`
	UpperRight Coordinate `json:"upper_right"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
}

// Center returns the midpoint of the box
func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		X: (b.LowerLeft.X + b.UpperRight.X) / 2,
		Y: (b.LowerLeft.Y + b.UpperRight.Y) / 2,
	}
}

// Location places a field widget on a page
type Location struct {
	PageIndex int         `json:"page_index"` // 0-based
	Bounds    BoundingBox `json:"bounds"`
}

// LocationStatus tells apart a missing location from a failed lookup
type LocationStatus string

const (
	LocationResolved LocationStatus = "resolved"
	LocationAbsent   LocationStatus = "absent"
	LocationFailed   LocationStatus = "failed"
)

// FormField represents one interactive control of a PDF form
type FormField struct {
	Name           string         `json:"name"`
	Kind           Kind           `json:"kind"`
	Options        []string       `json:"options,omitempty"`
	Required       bool           `json:"required"`
	ReadOnly       bool           `json:"read_only"`
	Flags          int            `json:"flags"`
	ObjectNumber   int            `json:"object_number,omitempty"`
	Location       *Location      `json:"location,omitempty"`
	LocationStatus LocationStatus `json:"location_status"`
	SuggestedLabel string         `json:"suggested_label,omitempty"`
}

// IsCombo reports whether a dropdown is a combo box rather than a list box
func (f FormField) IsCombo() bool {
	return f.Flags&FlagCombo != 0
}

// IsEditable reports whether a combo box accepts text outside its options
func (f FormField) IsEditable() bool {
	return f.IsCombo() && f.Flags&FlagEdit != 0
}

// PageIndex returns the 0-based page of the field and whether it is known
func (f FormField) PageIndex() (int, bool) {
	if f.Location == nil {
		return 0, false
	}
	return f.Location.PageIndex, true
}
