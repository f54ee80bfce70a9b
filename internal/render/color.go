package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var (
	ColorStroke  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	ColorText    = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF}
	ColorPointer = color.RGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF}
)

// ParseHexColor parses "#RRGGBB".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
