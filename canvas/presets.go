package canvas

import (
	"fmt"

	"artisan-canvas/core"
)

// SizePreset is a named canvas size offered by the toolbar.
type SizePreset struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SizePresets lists the named sizes in menu order.
var SizePresets = []SizePreset{
	{Name: "poster", Label: "Poster", Width: 800, Height: 1200},
	{Name: "square", Label: "Square", Width: 1080, Height: 1080},
	{Name: "landscape", Label: "Landscape", Width: 1920, Height: 1080},
}

// Preset looks up a size preset by name.
func Preset(name string) (SizePreset, error) {
	for _, p := range SizePresets {
		if p.Name == name {
			return p, nil
		}
	}
	return SizePreset{}, fmt.Errorf("unknown canvas preset %q", name)
}

// PresetFor returns the name of the preset matching the size, or "custom".
func PresetFor(width, height int) string {
	for _, p := range SizePresets {
		if p.Width == width && p.Height == height {
			return p.Name
		}
	}
	return "custom"
}

// DefaultDraft returns the draft the toolbar inserts for an element type.
func DefaultDraft(t core.ElementType) (core.Element, error) {
	switch t {
	case core.ElementText:
		return core.Element{
			Type: t, X: 50, Y: 150, Width: 250, Height: 50, Color: "#333333",
			TextContent: "Hello Artisan",
			FontFamily:  core.DefaultFontFamily,
			FontSize:    core.DefaultFontSize,
			FontWeight:  core.DefaultFontWeight,
		}, nil
	case core.ElementRectangle:
		return core.Element{Type: t, X: 100, Y: 200, Width: 150, Height: 100, Color: "#3b82f6"}, nil
	case core.ElementCircle:
		return core.Element{Type: t, X: 150, Y: 300, Width: 100, Height: 100, Color: "#ef4444"}, nil
	case core.ElementTriangle:
		return core.Element{Type: t, X: 200, Y: 100, Width: 120, Height: 120, Color: "#22c55e"}, nil
	case core.ElementStar:
		return core.Element{Type: t, X: 250, Y: 250, Width: 120, Height: 120, Color: "#eab308"}, nil
	case core.ElementImage:
		return ImageDraft(""), nil
	}
	return core.Element{}, fmt.Errorf("unknown element type %q", t)
}

// ImageDraft returns the media library's draft for an image element.
func ImageDraft(src string) core.Element {
	return core.Element{
		Type:     core.ElementImage,
		X:        50,
		Y:        50,
		Width:    300,
		Height:   200,
		Color:    "",
		ImageSrc: src,
	}
}
