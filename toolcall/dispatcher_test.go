package toolcall

import (
	"fmt"
	"testing"

	"artisan-canvas/canvas"
	"artisan-canvas/core"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocument() *canvas.Document {
	n := 0
	return canvas.New(canvas.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}))
}

func newDispatcher(doc Canvas) (*Dispatcher, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewDispatcher(doc, WithRand(func() float64 { return 0.5 }), WithLogger(logger)), hook
}

func call(t *testing.T, action Action, id string, typ core.ElementType, props any) ToolCall {
	t.Helper()
	c, err := NewToolCall(action, id, typ, props)
	require.NoError(t, err)
	return c
}

func rawCall(result string) ToolCall {
	return ToolCall{Name: ToolName, Result: []byte(result)}
}

func seed(doc *canvas.Document, n int) {
	for i := 0; i < n; i++ {
		doc.AddElement(core.Element{Type: core.ElementRectangle, X: float64(i * 10), Width: 10, Height: 10, Color: "#000000"})
	}
}

func TestDispatcher_Add(t *testing.T) {
	doc := newDocument()
	d, _ := newDispatcher(doc)

	res := d.Apply(call(t, ActionAdd, "", core.ElementCircle, map[string]any{"x": 10, "y": 20, "color": "#ff0000"}))

	assert.Equal(t, StatusApplied, res.Status)
	assert.Equal(t, "el-1", res.ElementID)
	assert.Equal(t, "Added a new circle", res.Summary)

	el, ok := doc.Element("el-1")
	require.True(t, ok)
	assert.Equal(t, core.ElementCircle, el.Type)
	assert.Equal(t, 10.0, el.X)
	assert.Equal(t, 20.0, el.Y)
	assert.Equal(t, 150.0, el.Width)
	assert.Equal(t, 100.0, el.Height)
	assert.Equal(t, "#ff0000", el.Color)
	assert.Equal(t, 2, doc.HistoryLen())
}

func TestDispatcher_AddDefaults(t *testing.T) {
	doc := newDocument()
	d, _ := newDispatcher(doc)

	d.Apply(call(t, ActionAdd, "", core.ElementRectangle, map[string]any{}))

	el, ok := doc.Element("el-1")
	require.True(t, ok)
	assert.Equal(t, 150.0, el.X)
	assert.Equal(t, 200.0, el.Y)
	assert.Equal(t, "#333333", el.Color)
}

func TestDispatcher_AddTextGetsFontDefaults(t *testing.T) {
	doc := newDocument()
	d, _ := newDispatcher(doc)

	d.Apply(call(t, ActionAdd, "", core.ElementText, map[string]any{"textContent": "Sale"}))

	el, ok := doc.Element("el-1")
	require.True(t, ok)
	assert.Equal(t, "Sale", el.TextContent)
	assert.Equal(t, core.DefaultFontFamily, el.FontFamily)
	assert.Equal(t, float64(core.DefaultFontSize), el.FontSize)
	assert.Equal(t, core.DefaultFontWeight, el.FontWeight)
}

func TestDispatcher_AddRejected(t *testing.T) {
	tests := []struct {
		name string
		call ToolCall
	}{
		{"missing properties", rawCall(`{"action":"add","elementType":"circle"}`)},
		{"null properties", rawCall(`{"action":"add","elementType":"circle","properties":null}`)},
		{"missing element type", rawCall(`{"action":"add","properties":{"x":1}}`)},
		{"unsupported element type", rawCall(`{"action":"add","elementType":"hexagon","properties":{}}`)},
		{"properties not an object", rawCall(`{"action":"add","elementType":"circle","properties":[1,2]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDocument()
			d, _ := newDispatcher(doc)

			res := d.Apply(tt.call)

			assert.Equal(t, StatusRejected, res.Status)
			assert.Empty(t, doc.Elements())
			assert.Equal(t, 1, doc.HistoryLen())
		})
	}
}

func TestDispatcher_UpdateTargetsTopElement(t *testing.T) {
	doc := newDocument()
	seed(doc, 3)
	d, _ := newDispatcher(doc)
	before := doc.HistoryLen()

	res := d.Apply(call(t, ActionUpdate, "", "", map[string]any{"color": "#ff0000"}))

	assert.Equal(t, StatusApplied, res.Status)
	assert.Equal(t, "el-3", res.ElementID)
	assert.Equal(t, "Updated color", res.Summary)

	top, _ := doc.Element("el-3")
	assert.Equal(t, "#ff0000", top.Color)
	for _, id := range []string{"el-1", "el-2"} {
		el, _ := doc.Element(id)
		assert.Equal(t, "#000000", el.Color, id)
	}
	assert.Equal(t, before+1, doc.HistoryLen())

	head, ok := doc.HistoryAt(doc.HistoryIndex())
	require.True(t, ok)
	assert.Equal(t, "#ff0000", head.Elements[2].Color)
}

func TestDispatcher_ResolveTarget(t *testing.T) {
	doc := newDocument()
	d, _ := newDispatcher(doc)

	_, ok := d.ResolveTarget("")
	assert.False(t, ok, "empty document has no target")

	seed(doc, 3)

	id, ok := d.ResolveTarget("")
	require.True(t, ok)
	assert.Equal(t, "el-3", id)

	doc.SetSelectedElementID("el-2")
	id, _ = d.ResolveTarget("")
	assert.Equal(t, "el-2", id)

	id, _ = d.ResolveTarget("el-1")
	assert.Equal(t, "el-1", id)

	id, _ = d.ResolveTarget("missing")
	assert.Equal(t, "el-2", id, "unknown explicit id falls back to the selection")
}

func TestDispatcher_UpdateWithoutTarget(t *testing.T) {
	doc := newDocument()
	d, _ := newDispatcher(doc)

	res := d.Apply(call(t, ActionUpdate, "", "", map[string]any{"color": "#ff0000"}))

	assert.Equal(t, StatusIgnored, res.Status)
	assert.Equal(t, 1, doc.HistoryLen())
}

func TestDispatcher_AddThenDeleteInOneBatch(t *testing.T) {
	doc := newDocument()
	d, _ := newDispatcher(doc)

	results := d.Process([]ToolCall{
		call(t, ActionAdd, "", core.ElementStar, map[string]any{"x": 5}),
		call(t, ActionDelete, "", "", nil),
	})

	require.Len(t, results, 2)
	assert.Equal(t, "el-1", results[1].ElementID)
	assert.Empty(t, doc.Elements())
	assert.Equal(t, 3, doc.HistoryLen())

	doc.Undo()
	assert.Len(t, doc.Elements(), 1, "undo restores the element added earlier in the batch")
}

func TestDispatcher_Reorder(t *testing.T) {
	doc := newDocument()
	seed(doc, 3)
	d, _ := newDispatcher(doc)

	d.Apply(call(t, ActionBringToFront, "el-1", "", nil))
	assert.Equal(t, []string{"el-2", "el-3", "el-1"}, elementIDs(doc))

	res := d.Apply(call(t, ActionSendToBack, "el-3", "", nil))
	assert.Equal(t, "Sent element to back", res.Summary)
	assert.Equal(t, []string{"el-3", "el-2", "el-1"}, elementIDs(doc))
}

func TestDispatcher_DroppedCallsLeaveDocumentUntouched(t *testing.T) {
	tests := []struct {
		name   string
		call   ToolCall
		status string
		level  logrus.Level
	}{
		{"other tool", ToolCall{Name: "web_search", Result: []byte(`{"action":"delete"}`)}, StatusIgnored, logrus.DebugLevel},
		{"no result", ToolCall{Name: ToolName}, StatusIgnored, logrus.DebugLevel},
		{"missing action", rawCall(`{"elementId":"el-1"}`), StatusRejected, logrus.ErrorLevel},
		{"unknown action", rawCall(`{"action":"explode"}`), StatusRejected, logrus.WarnLevel},
		{"not json", rawCall(`{"action":`), StatusRejected, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := newDocument()
			seed(doc, 1)
			d, hook := newDispatcher(doc)
			before := doc.Snapshot()

			res := d.Apply(tt.call)

			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, before, doc.Snapshot())
			assert.Equal(t, 2, doc.HistoryLen())
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, tt.level, hook.LastEntry().Level)
		})
	}
}

func TestDispatcher_ProcessContinuesAfterBadCall(t *testing.T) {
	doc := newDocument()
	d, _ := newDispatcher(doc)

	results := d.Process([]ToolCall{
		rawCall(`{"action":"explode"}`),
		call(t, ActionAdd, "", core.ElementTriangle, map[string]any{}),
	})

	require.Len(t, results, 2)
	assert.Equal(t, StatusRejected, results[0].Status)
	assert.Equal(t, StatusApplied, results[1].Status)
	assert.Len(t, doc.Elements(), 1)
}

func elementIDs(doc *canvas.Document) []string {
	var out []string
	for _, el := range doc.Elements() {
		out = append(out, el.ID)
	}
	return out
}
