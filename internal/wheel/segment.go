package wheel

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyTable   = errors.New("segment table is empty")
	ErrInvalidColor = errors.New("invalid segment color")
	ErrEmptyLabel   = errors.New("segment label is empty")
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Segment はホイールの1区画。
type Segment struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// SegmentSpec is the input form of a segment before indices are assigned.
type SegmentSpec struct {
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// Table is the immutable, ordered list of segments making up the wheel.
type Table struct {
	segments []Segment
	arc      float64
}

// NewTable validates specs and assigns indices in order.
func NewTable(specs []SegmentSpec) (*Table, error) {
	if len(specs) == 0 {
		return nil, ErrEmptyTable
	}

	segments := make([]Segment, len(specs))
	for i, spec := range specs {
		label := strings.TrimSpace(spec.Label)
		if label == "" {
			return nil, fmt.Errorf("segment %d: %w", i, ErrEmptyLabel)
		}
		if !colorPattern.MatchString(spec.Color) {
			return nil, fmt.Errorf("segment %d (%q): %w", i, spec.Color, ErrInvalidColor)
		}
		segments[i] = Segment{Index: i, Label: label, Color: strings.ToUpper(spec.Color)}
	}

	return &Table{
		segments: segments,
		arc:      2 * math.Pi / float64(len(segments)),
	}, nil
}

// DefaultSegments are the stock prizes.
var DefaultSegments = []SegmentSpec{
	{Label: "Blank", Color: "#FFDDC1"},
	{Label: "100 points", Color: "#FFFACD"},
	{Label: "50% off", Color: "#ADD8E6"},
	{Label: "Free shipping", Color: "#E6E6FA"},
	{Label: "Next time", Color: "#FFB6C1"},
	{Label: "1000 points", Color: "#98FB98"},
	{Label: "Drink coupon", Color: "#F0E68C"},
	{Label: "500 points", Color: "#DDA0DD"},
}

// DefaultTable returns the table built from DefaultSegments.
func DefaultTable() *Table {
	t, err := NewTable(DefaultSegments)
	if err != nil {
		panic(err)
	}
	return t
}

type tableFile struct {
	Segments []SegmentSpec `yaml:"segments"`
}

// LoadTableFile reads a YAML segment file:
//
//	segments:
//	  - label: "100 points"
//	    color: "#FFFACD"
func LoadTableFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment file: %w", err)
	}
	return ParseTable(data)
}

// LoadTableOrDefault loads path, or returns DefaultTable when path is empty. A file that cannot be
// loaded also yields DefaultTable, together with the load error for the caller to log.
func LoadTableOrDefault(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	table, err := LoadTableFile(path)
	if err != nil {
		return DefaultTable(), err
	}
	return table, nil
}

// ParseTable parses YAML segment data.
func ParseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse segment file: %w", err)
	}
	return NewTable(file.Segments)
}

// Count returns N.
func (t *Table) Count() int {
	return len(t.segments)
}

// Arc returns the angular width of one segment, 2π/N.
func (t *Table) Arc() float64 {
	return t.arc
}

// Get returns the segment at i.
func (t *Table) Get(i int) (Segment, bool) {
	if i < 0 || i >= len(t.segments) {
		return Segment{}, false
	}
	return t.segments[i], true
}

// At is Get for indices already known to be in range.
func (t *Table) At(i int) Segment {
	return t.segments[i]
}

// Segments returns a copy of all segments in index order.
func (t *Table) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}
