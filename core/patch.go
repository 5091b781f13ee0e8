package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnknownField is returned when an inspector edit names a field that is not
// patchable.
var ErrUnknownField = errors.New("unknown element field")

// ElementPatch is a partial update of an element. Nil fields are left alone.
// The id and type of an element can never be patched.
type ElementPatch struct {
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Rotation    *float64 `json:"rotation,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	Border      *string  `json:"border,omitempty"`
	ImageSrc    *string  `json:"imageSrc,omitempty"`
	TextContent *string  `json:"textContent,omitempty"`
	FontFamily  *string  `json:"fontFamily,omitempty"`
	FontSize    *float64 `json:"fontSize,omitempty"`
	FontWeight  *string  `json:"fontWeight,omitempty"`
}

// Apply merges the set fields of p into e, last write wins per field.
func (p ElementPatch) Apply(e *Element) {
	setFloat(&e.X, p.X)
	setFloat(&e.Y, p.Y)
	setFloat(&e.Width, p.Width)
	setFloat(&e.Height, p.Height)
	setString(&e.Color, p.Color)
	if p.Rotation != nil {
		e.Rotation = Float(*p.Rotation)
	}
	if p.Opacity != nil {
		e.Opacity = Float(*p.Opacity)
	}
	setString(&e.Border, p.Border)
	setString(&e.ImageSrc, p.ImageSrc)
	setString(&e.TextContent, p.TextContent)
	setString(&e.FontFamily, p.FontFamily)
	setFloat(&e.FontSize, p.FontSize)
	setString(&e.FontWeight, p.FontWeight)
}

// Fields returns the JSON names of the fields this patch sets.
func (p ElementPatch) Fields() []string {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(p.X != nil, "x")
	add(p.Y != nil, "y")
	add(p.Width != nil, "width")
	add(p.Height != nil, "height")
	add(p.Color != nil, "color")
	add(p.Rotation != nil, "rotation")
	add(p.Opacity != nil, "opacity")
	add(p.Border != nil, "border")
	add(p.ImageSrc != nil, "imageSrc")
	add(p.TextContent != nil, "textContent")
	add(p.FontFamily != nil, "fontFamily")
	add(p.FontSize != nil, "fontSize")
	add(p.FontWeight != nil, "fontWeight")
	return names
}

// Empty reports whether the patch sets no field at all.
func (p ElementPatch) Empty() bool {
	return len(p.Fields()) == 0
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading number of raw the way a browser number input
// does ("12px" reads as 12). It reports false when raw has no leading number.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// PatchFromField converts a single property-editor edit into a patch.
// Non-numeric input in a numeric field falls back to 0, or 1 for opacity.
func PatchFromField(field, value string) (ElementPatch, error) {
	var p ElementPatch

	number := func(fallback float64) *float64 {
		if v, ok := ParseNumber(value); ok {
			return Float(v)
		}
		return Float(fallback)
	}

	switch field {
	case "x":
		p.X = number(0)
	case "y":
		p.Y = number(0)
	case "width":
		p.Width = number(0)
	case "height":
		p.Height = number(0)
	case "rotation":
		p.Rotation = number(0)
	case "opacity":
		p.Opacity = number(1)
	case "fontSize":
		p.FontSize = number(0)
	case "color":
		p.Color = String(value)
	case "border":
		p.Border = String(value)
	case "imageSrc":
		p.ImageSrc = String(value)
	case "textContent":
		p.TextContent = String(value)
	case "fontFamily":
		p.FontFamily = String(value)
	case "fontWeight":
		p.FontWeight = String(value)
	default:
		return p, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return p, nil
}
