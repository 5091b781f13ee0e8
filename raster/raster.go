// Package raster renders a design snapshot to a PNG image.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"
	"sync"

	"artisan-canvas/core"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// MaxPixels bounds the size of a rendered image.
const MaxPixels = 64 << 20

var (
	// ErrEmptyCanvas is returned for snapshots with no drawable area.
	ErrEmptyCanvas = errors.New("canvas has no area")
	// ErrCanvasTooLarge is returned when the scaled image would exceed MaxPixels.
	ErrCanvasTooLarge = errors.New("canvas is too large to render")
)

var (
	star = [][2]float64{
		{50, 0}, {61.8, 38.2}, {100, 38.2}, {69.1, 61.8}, {80.9, 100},
		{50, 76.4}, {19.1, 100}, {30.9, 61.8}, {0, 38.2}, {38.2, 38.2},
	}
	triangle = [][2]float64{{50, 0}, {100, 100}, {0, 100}}

	placeholderFill   = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	placeholderStroke = color.RGBA{0x9c, 0xa3, 0xaf, 0xff}

	fonts     map[bool]*truetype.Font
	fontsOnce sync.Once
	fontsErr  error
)

// Render draws the snapshot in z-order onto a white image of
// canvasWidth*scale by canvasHeight*scale pixels.
func Render(snap core.Snapshot, scale float64) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	if snap.CanvasWidth <= 0 || snap.CanvasHeight <= 0 {
		return nil, ErrEmptyCanvas
	}
	fw := float64(snap.CanvasWidth) * scale
	fh := float64(snap.CanvasHeight) * scale
	if fw*fh > MaxPixels {
		return nil, fmt.Errorf("%w: %.0fx%.0f pixels", ErrCanvasTooLarge, fw, fh)
	}
	w, h := int(fw), int(fh)
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyCanvas
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.Scale(scale, scale)

	for _, el := range snap.Elements {
		if err := drawElement(dc, el); err != nil {
			return nil, fmt.Errorf("failed to draw element %s: %w", el.ID, err)
		}
	}
	return dc.Image(), nil
}

// WritePNG renders the snapshot and encodes it as PNG.
func WritePNG(w io.Writer, snap core.Snapshot, scale float64) error {
	img, err := Render(snap, scale)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}

func drawElement(dc *gg.Context, el core.Element) error {
	if el.Width <= 0 || el.Height <= 0 {
		return nil
	}
	opacity := 1.0
	if el.Opacity != nil {
		opacity = clamp01(*el.Opacity)
	}
	if opacity == 0 {
		return nil
	}

	dc.Push()
	defer dc.Pop()
	if el.Rotation != nil && *el.Rotation != 0 {
		dc.RotateAbout(gg.Radians(*el.Rotation), el.X+el.Width/2, el.Y+el.Height/2)
	}

	fill, hasFill := ParseColor(el.Color)
	switch el.Type {
	case core.ElementRectangle:
		if hasFill {
			dc.DrawRectangle(el.X, el.Y, el.Width, el.Height)
			dc.SetColor(fade(fill, opacity))
			dc.Fill()
		}
	case core.ElementCircle:
		if hasFill {
			dc.DrawEllipse(el.X+el.Width/2, el.Y+el.Height/2, el.Width/2, el.Height/2)
			dc.SetColor(fade(fill, opacity))
			dc.Fill()
		}
	case core.ElementTriangle:
		if hasFill {
			polygon(dc, el, triangle)
			dc.SetColor(fade(fill, opacity))
			dc.Fill()
		}
	case core.ElementStar:
		if hasFill {
			polygon(dc, el, star)
			dc.SetColor(fade(fill, opacity))
			dc.Fill()
		}
	case core.ElementImage:
		drawPlaceholder(dc, el, opacity)
	case core.ElementText:
		if err := drawText(dc, el, fill, hasFill, opacity); err != nil {
			return err
		}
	}

	drawBorder(dc, el, opacity)
	return nil
}

// polygon traces points given in a 100x100 box, stretched to the element.
func polygon(dc *gg.Context, el core.Element, points [][2]float64) {
	for i, p := range points {
		x := el.X + p[0]/100*el.Width
		y := el.Y + p[1]/100*el.Height
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

func drawPlaceholder(dc *gg.Context, el core.Element, opacity float64) {
	dc.DrawRectangle(el.X, el.Y, el.Width, el.Height)
	dc.SetColor(fade(placeholderFill, opacity))
	dc.Fill()

	dc.SetLineWidth(1)
	dc.SetColor(fade(placeholderStroke, opacity))
	dc.DrawLine(el.X, el.Y, el.X+el.Width, el.Y+el.Height)
	dc.DrawLine(el.X+el.Width, el.Y, el.X, el.Y+el.Height)
	dc.Stroke()
}

func drawText(dc *gg.Context, el core.Element, fill color.RGBA, hasFill bool, opacity float64) error {
	if el.TextContent == "" {
		return nil
	}
	if !hasFill {
		fill = color.RGBA{A: 0xff}
	}
	size := el.FontSize
	if size <= 0 {
		size = core.DefaultFontSize
	}
	face, err := fontFace(isBold(el.FontWeight), size)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(fade(fill, opacity))

	lines := dc.WordWrap(el.TextContent, el.Width)
	lineHeight := dc.FontHeight() * 1.2
	top := el.Y + el.Height/2 - lineHeight*float64(len(lines))/2
	for i, line := range lines {
		dc.DrawStringAnchored(line, el.X+el.Width/2, top+lineHeight*(float64(i)+0.5), 0.5, 0.35)
	}
	return nil
}

func drawBorder(dc *gg.Context, el core.Element, opacity float64) {
	width, style, c, ok := ParseBorder(el.Border)
	if !ok {
		return
	}

	if el.Type == core.ElementCircle {
		dc.DrawEllipse(el.X+el.Width/2, el.Y+el.Height/2, el.Width/2-width/2, el.Height/2-width/2)
	} else {
		dc.DrawRectangle(el.X+width/2, el.Y+width/2, el.Width-width, el.Height-width)
	}
	switch style {
	case "dashed":
		dc.SetDash(width*3, width*2)
	case "dotted":
		dc.SetDash(width, width)
	}
	dc.SetLineWidth(width)
	dc.SetColor(fade(c, opacity))
	dc.Stroke()
	dc.SetDash()
}

func fontFace(bold bool, size float64) (font.Face, error) {
	fontsOnce.Do(func() {
		fonts = make(map[bool]*truetype.Font, 2)
		for b, data := range map[bool][]byte{false: goregular.TTF, true: gobold.TTF} {
			f, err := truetype.Parse(data)
			if err != nil {
				fontsErr = fmt.Errorf("failed to parse font: %v", err)
				return
			}
			fonts[b] = f
		}
	})
	if fontsErr != nil {
		return nil, fontsErr
	}
	return truetype.NewFace(fonts[bold], &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

func isBold(weight string) bool {
	switch strings.ToLower(strings.TrimSpace(weight)) {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

func fade(c color.RGBA, opacity float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(float64(c.A) * opacity)}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// ParseColor reads #rgb, #rrggbb and #rrggbbaa colors plus a few keywords.
// Anything else is reported as not drawable.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "black":
		return color.RGBA{A: 0xff}, true
	case "white":
		return color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, true
	case "", "none", "transparent":
		return color.RGBA{}, false
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

// ParseBorder reads a CSS shorthand border such as "2px solid #000000".
func ParseBorder(s string) (width float64, style string, c color.RGBA, ok bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 || strings.EqualFold(fields[0], "none") {
		return 0, "", color.RGBA{}, false
	}

	width, style = 1, "solid"
	c = color.RGBA{A: 0xff}
	for _, f := range fields {
		switch {
		case strings.HasSuffix(f, "px"):
			if v, err := strconv.ParseFloat(strings.TrimSuffix(f, "px"), 64); err == nil {
				width = v
			}
		case f == "solid" || f == "dashed" || f == "dotted" || f == "double":
			style = f
		case f == "none":
			return 0, "", color.RGBA{}, false
		default:
			if parsed, good := ParseColor(f); good {
				c = parsed
			}
		}
	}
	if width <= 0 {
		return 0, "", color.RGBA{}, false
	}
	return width, style, c, true
}
