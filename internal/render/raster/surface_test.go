package raster

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/ichi0g0y/fortune-wheel/internal/render"
	"github.com/ichi0g0y/fortune-wheel/internal/wheel"
)

func TestSurface_PointerPixelMatchesWinner(t *testing.T) {
	table := wheel.DefaultTable()
	renderer := render.NewRenderer(table)
	resolver := wheel.NewResolver(table)

	surface, err := New(400)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l := renderer.Layout(surface)

	for k := 0; k < table.Count(); k++ {
		// pointer lands mid-segment k
		angle := math.Pi/2 - (float64(k)+0.5)*table.Arc()
		renderer.Draw(surface, angle)

		winner := resolver.Resolve(angle)
		if winner.Index != k {
			t.Fatalf("resolver mismatch: got=%d want=%d", winner.Index, k)
		}

		want, _ := render.ParseHexColor(winner.Color)
		x := int(l.CX)
		y := int(l.CY - (l.Inner + 0.25*(l.Outer-l.Inner)))
		got := color.RGBAModel.Convert(surface.Image().At(x, y)).(color.RGBA)
		if got != want {
			t.Fatalf("k=%d: pixel under pointer got=%+v want=%+v", k, got, want)
		}
	}
}

func TestSurface_ClearIsTransparent(t *testing.T) {
	surface, err := New(64)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	render.NewRenderer(wheel.DefaultTable()).Draw(surface, 0)
	surface.Clear()

	if _, _, _, a := surface.Image().At(32, 32).RGBA(); a != 0 {
		t.Fatalf("cleared surface must be transparent, alpha=%d", a)
	}
}

func TestSurface_EncodePNG(t *testing.T) {
	surface, err := New(120)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	render.NewRenderer(wheel.DefaultTable()).Draw(surface, 1.0)

	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 120 {
		t.Fatalf("unexpected bounds: %v", img.Bounds())
	}
}

func TestNew_RejectsInvalidSize(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}
