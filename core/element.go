package core

type (
	// ElementType is the closed set of shapes a canvas can hold.
	ElementType string

	// Element is a single placeable object on the canvas. Its position in the
	// document's element slice is its z-order (later means on top).
	Element struct {
		ID     string      `json:"id"`
		Type   ElementType `json:"type"`
		X      float64     `json:"x"`
		Y      float64     `json:"y"`
		Width  float64     `json:"width"`
		Height float64     `json:"height"`
		Color  string      `json:"color"`

		Rotation *float64 `json:"rotation,omitempty"`
		Opacity  *float64 `json:"opacity,omitempty"`
		Border   string   `json:"border,omitempty"`
		ImageSrc string   `json:"imageSrc,omitempty"`

		// Text-only attributes.
		TextContent string  `json:"textContent,omitempty"`
		FontFamily  string  `json:"fontFamily,omitempty"`
		FontSize    float64 `json:"fontSize,omitempty"`
		FontWeight  string  `json:"fontWeight,omitempty"`
	}

	// Snapshot is a committed, self-contained copy of the document.
	Snapshot struct {
		Elements     []Element `json:"elements"`
		CanvasWidth  int       `json:"canvasWidth"`
		CanvasHeight int       `json:"canvasHeight"`
	}
)

const (
	ElementRectangle ElementType = "rectangle"
	ElementCircle    ElementType = "circle"
	ElementText      ElementType = "text"
	ElementImage     ElementType = "image"
	ElementTriangle  ElementType = "triangle"
	ElementStar      ElementType = "star"
)

const (
	DefaultFontFamily = "Inter"
	DefaultFontSize   = 24
	DefaultFontWeight = "normal"
)

// ElementTypes lists every supported element type in toolbar order.
var ElementTypes = []ElementType{
	ElementText,
	ElementRectangle,
	ElementCircle,
	ElementTriangle,
	ElementStar,
	ElementImage,
}

// Valid reports whether t is one of the supported element types.
func (t ElementType) Valid() bool {
	for _, known := range ElementTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Clone returns a copy of e that shares no memory with it.
func (e Element) Clone() Element {
	out := e
	if e.Rotation != nil {
		r := *e.Rotation
		out.Rotation = &r
	}
	if e.Opacity != nil {
		o := *e.Opacity
		out.Opacity = &o
	}
	return out
}

// CloneElements deep-copies a slice of elements. A nil or empty input yields
// an empty, non-nil slice so that JSON output is always an array.
func CloneElements(elements []Element) []Element {
	out := make([]Element, len(elements))
	for i, el := range elements {
		out[i] = el.Clone()
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Elements:     CloneElements(s.Elements),
		CanvasWidth:  s.CanvasWidth,
		CanvasHeight: s.CanvasHeight,
	}
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to v, for optional string fields.
func String(v string) *string {
	return &v
}
