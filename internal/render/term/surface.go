// Package term draws wheel frames onto a tcell screen. One cell is treated as 1×2 logical units so
// the wheel stays round on typical terminal fonts.
package term

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/ichi0g0y/fortune-wheel/internal/render"
)

const cellAspect = 2.0

// Surface is a render.Surface over a region of a tcell.Screen.
type Surface struct {
	screen tcell.Screen
	// rows reserved at the bottom for the status line
	reserved int
	cols     int
	rows     int
}

func New(screen tcell.Screen, reservedRows int) *Surface {
	s := &Surface{screen: screen, reserved: reservedRows}
	s.resize()
	return s
}

func (s *Surface) resize() {
	w, h := s.screen.Size()
	s.cols = w
	s.rows = h - s.reserved
	if s.rows < 1 {
		s.rows = 1
	}
}

func (s *Surface) Size() (float64, float64) {
	return float64(s.cols), float64(s.rows) * cellAspect
}

func (s *Surface) Clear() {
	s.resize()
	for row := 0; row < s.rows; row++ {
		for col := 0; col < s.cols; col++ {
			s.screen.SetContent(col, row, ' ', nil, tcell.StyleDefault)
		}
	}
}

func (s *Surface) FillSegment(cx, cy, inner, outer, start, end float64, fill, _ color.Color, _ float64) {
	style := tcell.StyleDefault.Background(toTcell(fill))

	minCol, maxCol := clampRange(cx-outer, cx+outer, s.cols)
	minRow, maxRow := clampRange((cy-outer)/cellAspect, (cy+outer)/cellAspect, s.rows)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			x := float64(col) + 0.5
			y := (float64(row) + 0.5) * cellAspect
			dx, dy := x-cx, cy-y
			dist := math.Hypot(dx, dy)
			if dist < inner || dist > outer {
				continue
			}
			if render.InSector(math.Atan2(dy, dx), start, end) {
				s.screen.SetContent(col, row, ' ', nil, style)
			}
		}
	}
}

func (s *Surface) FillPolygon(points []render.Point, fill color.Color) {
	if len(points) < 3 {
		return
	}

	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	col := int(sumX / float64(len(points)))
	row := int(sumY / float64(len(points)) / cellAspect)
	if col < 0 || col >= s.cols || row < 0 || row >= s.rows {
		return
	}
	// 端末では三角形を描けないので重心セルに矢印を置く
	s.screen.SetContent(col, row, '▼', nil, tcell.StyleDefault.Foreground(toTcell(fill)).Bold(true))
}

// Text writes label horizontally; terminals cannot rotate glyphs, so rotation is ignored.
func (s *Surface) Text(x, y, _ float64, label string, c color.Color) {
	runes := []rune(label)
	row := int(y / cellAspect)
	col := int(x) - len(runes)/2
	if row < 0 || row >= s.rows {
		return
	}

	fg := toTcell(c)
	for i, r := range runes {
		cx := col + i
		if cx < 0 || cx >= s.cols {
			continue
		}
		_, _, style, _ := s.screen.GetContent(cx, row)
		s.screen.SetContent(cx, row, r, nil, style.Foreground(fg))
	}
}

func clampRange(lo, hi float64, limit int) (int, int) {
	a := int(math.Floor(lo))
	b := int(math.Ceil(hi))
	if a < 0 {
		a = 0
	}
	if b > limit-1 {
		b = limit - 1
	}
	return a, b
}

func toTcell(c color.Color) tcell.Color {
	r, g, b, _ := c.RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}
