package render

import (
	"image/color"
	"math"

	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

const (
	DefaultMargin     = 10.0
	DefaultInnerRatio = 0.3
	DefaultLabelRatio = 0.7
	DefaultStroke     = 2.0
)

// Layout is the wheel geometry on a particular surface.
type Layout struct {
	CX, CY       float64
	Outer, Inner float64
}

// Renderer draws a segment table at a given rotation.
type Renderer struct {
	table      *wheel.Table
	colors     []color.Color
	Margin     float64
	InnerRatio float64
	LabelRatio float64
	Stroke     float64
}

func NewRenderer(table *wheel.Table) *Renderer {
	colors := make([]color.Color, table.Count())
	for i, seg := range table.Segments() {
		c, err := ParseHexColor(seg.Color)
		if err != nil {
			c = color.RGBA{R: 0xCC, G: 0xCC, B: 0xCC, A: 0xFF}
		}
		colors[i] = c
	}

	return &Renderer{
		table:      table,
		colors:     colors,
		Margin:     DefaultMargin,
		InnerRatio: DefaultInnerRatio,
		LabelRatio: DefaultLabelRatio,
		Stroke:     DefaultStroke,
	}
}

// Layout computes center and radii: radius = width/2 - margin on square surfaces, the smaller side
// otherwise.
func (r *Renderer) Layout(s Surface) Layout {
	w, h := s.Size()
	side := math.Min(w, h)
	outer := math.Max(side/2-r.Margin, 1)
	return Layout{
		CX:    w / 2,
		CY:    h / 2,
		Outer: outer,
		Inner: outer * r.InnerRatio,
	}
}

// Draw renders the whole wheel rotated by angle, with a fixed pointer at the top.
func (r *Renderer) Draw(s Surface, angle float64) {
	// Clear first so surfaces that track the terminal size lay out against the current size.
	s.Clear()
	l := r.Layout(s)
	arc := r.table.Arc()

	for i := 0; i < r.table.Count(); i++ {
		start := angle + float64(i)*arc
		s.FillSegment(l.CX, l.CY, l.Inner, l.Outer, start, start+arc, r.colors[i], ColorStroke, r.Stroke)

		mid := start + arc/2
		labelRadius := l.Outer * r.LabelRatio
		x := l.CX + math.Cos(mid)*labelRadius
		y := l.CY - math.Sin(mid)*labelRadius
		// 文字の上側が外周を向くように回転
		s.Text(x, y, mid-math.Pi/2, r.table.At(i).Label, ColorText)
	}

	s.FillPolygon(r.pointer(l), ColorPointer)
}

func (r *Renderer) pointer(l Layout) []Point {
	tipY := l.CY - l.Outer + 14
	baseY := l.CY - l.Outer - 8
	return []Point{
		{X: l.CX, Y: tipY},
		{X: l.CX - 10, Y: baseY},
		{X: l.CX + 10, Y: baseY},
	}
}

// SegmentAt returns the segment drawn under (x, y) when the wheel is at angle.
func (r *Renderer) SegmentAt(l Layout, angle, x, y float64) (int, bool) {
	dx := x - l.CX
	dy := l.CY - y
	dist := math.Hypot(dx, dy)
	if dist < l.Inner || dist > l.Outer {
		return 0, false
	}

	rel := wheel.Normalize(math.Atan2(dy, dx) - angle)
	idx := int(rel / r.table.Arc())
	if idx >= r.table.Count() {
		idx = r.table.Count() - 1
	}
	return idx, true
}

// InSector reports whether counterclockwise angle phi lies in [start, end).
func InSector(phi, start, end float64) bool {
	span := end - start
	if span >= wheel.FullTurn {
		return true
	}
	return wheel.Normalize(phi-start) < span
}
