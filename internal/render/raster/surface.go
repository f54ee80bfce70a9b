// Package raster draws wheel frames into an in-memory RGBA image for PNG snapshots.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ichi0g0y/fortune-wheel/internal/render"
)

const labelFontSize = 14

var (
	fontOnce sync.Once
	fontData *opentype.Font
	fontErr  error
)

func loadFont() (*opentype.Font, error) {
	fontOnce.Do(func() {
		fontData, fontErr = opentype.Parse(goregular.TTF)
	})
	return fontData, fontErr
}

// Surface is a render.Surface backed by *image.RGBA.
type Surface struct {
	img  *image.RGBA
	face font.Face
	ras  *vector.Rasterizer
}

// New creates a transparent square surface of size×size pixels.
func New(size int) (*Surface, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid surface size: %d", size)
	}

	f, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse label font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    labelFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create label face: %w", err)
	}

	return &Surface{
		img:  image.NewRGBA(image.Rect(0, 0, size, size)),
		face: face,
		ras:  vector.NewRasterizer(size, size),
	}, nil
}

func (s *Surface) Size() (float64, float64) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (s *Surface) FillSegment(cx, cy, inner, outer, start, end float64, fill, stroke color.Color, strokeWidth float64) {
	outline := sectorOutline(cx, cy, inner, outer, start, end)

	s.resetRasterizer()
	s.ras.MoveTo(float32(outline[0].X), float32(outline[0].Y))
	for _, p := range outline[1:] {
		s.ras.LineTo(float32(p.X), float32(p.Y))
	}
	s.ras.ClosePath()
	s.ras.Draw(s.img, s.img.Bounds(), image.NewUniform(fill), image.Point{})

	if strokeWidth > 0 && stroke != nil {
		s.strokeClosed(outline, stroke, strokeWidth)
	}
}

func (s *Surface) FillPolygon(points []render.Point, fill color.Color) {
	if len(points) < 3 {
		return
	}
	s.resetRasterizer()
	s.ras.MoveTo(float32(points[0].X), float32(points[0].Y))
	for _, p := range points[1:] {
		s.ras.LineTo(float32(p.X), float32(p.Y))
	}
	s.ras.ClosePath()
	s.ras.Draw(s.img, s.img.Bounds(), image.NewUniform(fill), image.Point{})
}

func (s *Surface) Text(x, y, rotation float64, label string, c color.Color) {
	if label == "" {
		return
	}

	metrics := s.face.Metrics()
	width := font.MeasureString(s.face, label).Ceil()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	if width <= 0 || height <= 0 {
		return
	}

	glyphs := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: s.face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	d.DrawString(label)

	// 画面上で反時計回りに回転し、ラベル中心を (x, y) に合わせる
	cos, sin := math.Cos(rotation), math.Sin(rotation)
	hx, hy := float64(width)/2, float64(height)/2
	s2d := f64.Aff3{
		cos, sin, x - (cos*hx + sin*hy),
		-sin, cos, y - (-sin*hx + cos*hy),
	}
	draw.BiLinear.Transform(s.img, s2d, glyphs, glyphs.Bounds(), draw.Over, nil)
}

// Image exposes the frame buffer.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// EncodePNG writes the current frame as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}

func (s *Surface) resetRasterizer() {
	b := s.img.Bounds()
	s.ras.Reset(b.Dx(), b.Dy())
	s.ras.DrawOp = draw.Over
}

// strokeClosed draws each outline edge as a quad of the given width. All quads share the same
// winding so overlaps at joints accumulate instead of cancelling.
func (s *Surface) strokeClosed(outline []render.Point, stroke color.Color, width float64) {
	s.resetRasterizer()
	half := width / 2
	for i := range outline {
		p0 := outline[i]
		p1 := outline[(i+1)%len(outline)]
		dx, dy := p1.X-p0.X, p1.Y-p0.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half

		s.ras.MoveTo(float32(p0.X+nx), float32(p0.Y+ny))
		s.ras.LineTo(float32(p1.X+nx), float32(p1.Y+ny))
		s.ras.LineTo(float32(p1.X-nx), float32(p1.Y-ny))
		s.ras.LineTo(float32(p0.X-nx), float32(p0.Y-ny))
		s.ras.ClosePath()
	}
	s.ras.Draw(s.img, s.img.Bounds(), image.NewUniform(stroke), image.Point{})
}

// sectorOutline approximates the annular sector with line segments: outer arc forward, inner arc
// backward.
func sectorOutline(cx, cy, inner, outer, start, end float64) []render.Point {
	steps := int(math.Ceil(math.Abs(end-start) * outer / 4))
	if steps < 4 {
		steps = 4
	}

	points := make([]render.Point, 0, 2*(steps+1))
	for i := 0; i <= steps; i++ {
		a := start + (end-start)*float64(i)/float64(steps)
		points = append(points, render.Point{X: cx + outer*math.Cos(a), Y: cy - outer*math.Sin(a)})
	}
	for i := steps; i >= 0; i-- {
		a := start + (end-start)*float64(i)/float64(steps)
		points = append(points, render.Point{X: cx + inner*math.Cos(a), Y: cy - inner*math.Sin(a)})
	}
	return points
}
