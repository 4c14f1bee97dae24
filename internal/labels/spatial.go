package labels

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/mcmespana/mcmAutoPDF/internal/pdf/extraction"
)

const (
	rowTolerance  = 2.0
	wordSpaceMult = 0.6
	minWordSpace  = 3.0

	leftBand  = 50.0  // max vertical offset for text left of a field
	aboveBand = 100.0 // max horizontal offset for text above a field
	leftBias  = 0.5
	aboveBias = 0.7
)

var labelNoise = regexp.MustCompile(`[*_]`)

// TextRun is a horizontal run of text on a page
type TextRun struct {
	Text string
	X, Y float64
	Size float64
}

// SpatialProximity labels a field with the nearest text printed next to it,
// preferring text to the left of or above the field. Fields without a
// location or without nearby text get the keyword label.
type SpatialProximity struct {
	suggester *Suggester
	logger    *zap.Logger
}

// NewSpatialProximity creates the layout-based strategy
func NewSpatialProximity(suggester *Suggester, logger *zap.Logger) *SpatialProximity {
	if suggester == nil {
		suggester = NewSuggester(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpatialProximity{suggester: suggester, logger: logger}
}

// Name returns the strategy name
func (s *SpatialProximity) Name() string {
	return StrategySpatial
}

// Labels returns the nearest-text label of every field
func (s *SpatialProximity) Labels(cat *extraction.Catalog) []string {
	pages, err := PageRuns(cat.Source())
	if err != nil {
		s.logger.Warn("page text unavailable, using keyword labels", zap.Error(err))
	}

	fields := cat.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = s.suggester.Suggest(f.Name, f.Kind)

		if f.Location == nil || f.Location.PageIndex >= len(pages) {
			continue
		}
		if label, ok := NearestLabel(f.Location.Bounds, pages[f.Location.PageIndex]); ok {
			out[i] = label
		}
	}
	return out
}

// NearestLabel picks the text run closest to a field box
func NearestLabel(box extraction.BoundingBox, runs []TextRun) (string, bool) {
	center := box.Center()
	left := box.LowerLeft.X
	top := box.UpperRight.Y

	best := ""
	bestDist := math.Inf(1)

	for _, r := range runs {
		text := strings.TrimSpace(r.Text)
		if utf8.RuneCountInString(text) < 2 || isDigits(text) {
			continue
		}

		dy := math.Abs(r.Y - center.Y)
		dist := math.Abs(r.X-left) + dy

		if r.X < left && dy < leftBand {
			dist *= leftBias
		} else if r.Y > top && math.Abs(r.X-center.X) < aboveBand {
			dist *= aboveBias
		}

		if dist < bestDist {
			bestDist = dist
			best = text
		}
	}

	label := cleanLabel(best)
	if utf8.RuneCountInString(label) < 2 {
		return "", false
	}
	return label, true
}

func cleanLabel(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ":")
	text = labelNoise.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// PageRuns extracts text runs for every page, indexed from 0.
// A page whose content cannot be decoded yields no runs.
func PageRuns(src []byte) ([][]TextRun, error) {
	reader, err := pdf.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF for text extraction: %w", err)
	}

	pages := make([][]TextRun, reader.NumPage())
	for i := range pages {
		pages[i] = pageRuns(reader, i+1)
	}
	return pages, nil
}

func pageRuns(reader *pdf.Reader, pageNum int) (runs []TextRun) {
	// ledongthuc/pdf panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			runs = nil
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil
	}

	return groupRuns(page.Content().Text)
}

// groupRuns merges glyphs into rows and rows into runs separated by wide gaps
func groupRuns(texts []pdf.Text) []TextRun {
	var runs []TextRun
	for _, row := range groupIntoRows(texts) {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var cur *TextRun
		var end float64
		for _, t := range row {
			if cur != nil {
				threshold := math.Max(wordSpaceMult*cur.Size, minWordSpace)
				if t.X-end <= threshold {
					cur.Text += t.S
					end = math.Max(end, t.X+t.W)
					continue
				}
				runs = append(runs, *cur)
			}
			cur = &TextRun{Text: t.S, X: t.X, Y: t.Y, Size: t.FontSize}
			end = t.X + t.W
		}
		if cur != nil {
			runs = append(runs, *cur)
		}
	}
	return runs
}

// groupIntoRows buckets glyphs whose baselines lie within rowTolerance
func groupIntoRows(texts []pdf.Text) [][]pdf.Text {
	type bucket struct {
		yMin, yMax float64
		texts      []pdf.Text
	}

	var buckets []bucket
	for _, t := range texts {
		found := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-rowTolerance && t.Y <= buckets[i].yMax+rowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				buckets[i].yMin = math.Min(buckets[i].yMin, t.Y)
				buckets[i].yMax = math.Max(buckets[i].yMax, t.Y)
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	rows := make([][]pdf.Text, len(buckets))
	for i, b := range buckets {
		rows[i] = b.texts
	}
	return rows
}
