package render

import "image/color"

// Point is a position in surface coordinates (x right, y down).
type Point struct {
	X, Y float64
}

// Surface receives draw commands for one frame. Angles are counterclockwise as seen on screen,
// measured from the positive x axis; surfaces convert them to their own coordinate space.
type Surface interface {
	Size() (width, height float64)
	Clear()
	// FillSegment fills the annular sector between inner and outer radius spanning [start, end).
	FillSegment(cx, cy, inner, outer, start, end float64, fill, stroke color.Color, strokeWidth float64)
	FillPolygon(points []Point, fill color.Color)
	// Text draws label centered on (x, y), rotated counterclockwise by rotation.
	Text(x, y, rotation float64, label string, c color.Color)
}
