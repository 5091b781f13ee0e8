package document

import (
	"fmt"
	"net/http"
	"testing"

	"artisan-canvas/canvas"
	"artisan-canvas/handlers/api/apitest"
	"artisan-canvas/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) chi.Router {
	n := 0
	reg := apitest.NewRegistry(t, session.WithDocumentOptions(canvas.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	})))

	r := apitest.Router()
	r.Get("/canvas", HandleGetState(reg))
	r.Post("/canvas/commit", HandleCommit(reg))
	r.Post("/canvas/undo", HandleUndo(reg))
	r.Post("/canvas/redo", HandleRedo(reg))
	r.Put("/canvas/size", HandleSetSize(reg))
	r.Put("/canvas/selection", HandleSetSelection(reg))
	r.Post("/canvas/elements", HandleAddElement(reg))
	r.Patch("/canvas/elements/{id}", HandleUpdateElement(reg))
	r.Post("/canvas/elements/{id}/fields", HandleSetField(reg))
	r.Delete("/canvas/elements/{id}", HandleDeleteElement(reg))
	r.Post("/canvas/elements/{id}/front", HandleBringToFront(reg))
	r.Post("/canvas/elements/{id}/back", HandleSendToBack(reg))
	return r
}

func state(t *testing.T, r http.Handler) stateResponse {
	t.Helper()
	rr := apitest.Do(r, http.MethodGet, "/canvas", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp stateResponse
	apitest.Decode(t, rr, &resp)
	return resp
}

func TestHandleGetState_Initial(t *testing.T) {
	r := newRouter(t)

	s := state(t, r)
	assert.Empty(t, s.Elements)
	assert.Equal(t, 800, s.CanvasWidth)
	assert.Equal(t, 1200, s.CanvasHeight)
	assert.Equal(t, "poster", s.Preset)
	assert.Nil(t, s.SelectedElementID)
	assert.False(t, s.CanUndo)
}

func TestHandleAddElement(t *testing.T) {
	r := newRouter(t)

	t.Run("toolbar default", func(t *testing.T) {
		rr := apitest.Do(r, http.MethodPost, "/canvas/elements", `{"type":"circle"}`)
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp addResponse
		apitest.Decode(t, rr, &resp)
		assert.Equal(t, "el-1", resp.ElementID)
		require.Len(t, resp.Elements, 1)
		assert.Equal(t, "#ef4444", resp.Elements[0].Color)
		assert.Equal(t, 100.0, resp.Elements[0].Width)
	})

	t.Run("draft overrides default", func(t *testing.T) {
		rr := apitest.Do(r, http.MethodPost, "/canvas/elements", `{"type":"text","textContent":"Sale","x":5}`)
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp addResponse
		apitest.Decode(t, rr, &resp)
		el := resp.Elements[1]
		assert.Equal(t, "Sale", el.TextContent)
		assert.Equal(t, 5.0, el.X)
		assert.Equal(t, 150.0, el.Y)
		assert.Equal(t, "Inter", el.FontFamily)
	})

	t.Run("unknown type", func(t *testing.T) {
		rr := apitest.Do(r, http.MethodPost, "/canvas/elements", `{"type":"hexagon"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDragThenCommitIsOneUndoStep(t *testing.T) {
	r := newRouter(t)
	apitest.Do(r, http.MethodPost, "/canvas/elements", `{"type":"rectangle"}`)
	before := state(t, r).HistoryLength

	for x := 110; x <= 150; x += 10 {
		rr := apitest.Do(r, http.MethodPatch, "/canvas/elements/el-1", fmt.Sprintf(`{"x":%d}`, x))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	assert.Equal(t, before, state(t, r).HistoryLength, "patches do not commit")

	apitest.Do(r, http.MethodPost, "/canvas/commit", "")
	assert.Equal(t, before+1, state(t, r).HistoryLength)

	rr := apitest.Do(r, http.MethodPost, "/canvas/undo", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp stateResponse
	apitest.Decode(t, rr, &resp)
	assert.Equal(t, 100.0, resp.Elements[0].X)

	rr = apitest.Do(r, http.MethodPost, "/canvas/redo", "")
	apitest.Decode(t, rr, &resp)
	assert.Equal(t, 150.0, resp.Elements[0].X)
}

func TestHandleUpdateElement_NotFound(t *testing.T) {
	r := newRouter(t)

	rr := apitest.Do(r, http.MethodPatch, "/canvas/elements/missing", `{"x":1}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestElementRoutes_UnknownIDLeavesHistory(t *testing.T) {
	r := newRouter(t)
	apitest.Do(r, http.MethodPost, "/canvas/elements", `{"type":"rectangle"}`)
	before := state(t, r).HistoryLength

	for _, req := range []struct{ method, path, body string }{
		{http.MethodPatch, "/canvas/elements/missing", `{"x":1}`},
		{http.MethodPost, "/canvas/elements/missing/fields", `{"field":"x","value":"1"}`},
		{http.MethodDelete, "/canvas/elements/missing", ""},
		{http.MethodPost, "/canvas/elements/missing/front", ""},
		{http.MethodPost, "/canvas/elements/missing/back", ""},
	} {
		rr := apitest.Do(r, req.method, req.path, req.body)
		assert.Equal(t, http.StatusNotFound, rr.Code, req.method+" "+req.path)
	}
	assert.Equal(t, before, state(t, r).HistoryLength)
}

func TestHandleSetField(t *testing.T) {
	r := newRouter(t)
	apitest.Do(r, http.MethodPost, "/canvas/elements", `{"type":"rectangle"}`)

	rr := apitest.Do(r, http.MethodPost, "/canvas/elements/el-1/fields", `{"field":"opacity","value":"abc"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp stateResponse
	apitest.Decode(t, rr, &resp)
	require.NotNil(t, resp.Elements[0].Opacity)
	assert.Equal(t, 1.0, *resp.Elements[0].Opacity)

	rr = apitest.Do(r, http.MethodPost, "/canvas/elements/el-1/fields", `{"field":"zIndex","value":"2"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleSetSize(t *testing.T) {
	r := newRouter(t)

	rr := apitest.Do(r, http.MethodPut, "/canvas/size", `{"preset":"square"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp stateResponse
	apitest.Decode(t, rr, &resp)
	assert.Equal(t, 1080, resp.CanvasWidth)
	assert.Equal(t, "square", resp.Preset)

	rr = apitest.Do(r, http.MethodPut, "/canvas/size", `{"width":500,"height":700}`)
	apitest.Decode(t, rr, &resp)
	assert.Equal(t, "custom", resp.Preset)
	assert.Equal(t, 3, resp.HistoryLength)

	for _, body := range []string{`{"preset":"banner"}`, `{"width":0,"height":-5}`, `{"width":8193,"height":100}`, `{"width":100,"height":2000000000}`, `{`} {
		rr = apitest.Do(r, http.MethodPut, "/canvas/size", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Equal(t, 500, state(t, r).CanvasWidth, "rejected sizes leave the canvas unchanged")

	rr = apitest.Do(r, http.MethodPut, "/canvas/size", fmt.Sprintf(`{"width":%d,"height":%d}`, MaxCanvasSide, MaxCanvasSide))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSelectionAndReorder(t *testing.T) {
	r := newRouter(t)
	for i := 0; i < 3; i++ {
		apitest.Do(r, http.MethodPost, "/canvas/elements", `{"type":"star"}`)
	}

	rr := apitest.Do(r, http.MethodPut, "/canvas/selection", `{"id":"el-2"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	s := state(t, r)
	require.NotNil(t, s.SelectedElementID)
	assert.Equal(t, "el-2", *s.SelectedElementID)

	apitest.Do(r, http.MethodPost, "/canvas/elements/el-1/front", "")
	apitest.Do(r, http.MethodPost, "/canvas/elements/el-3/back", "")
	s = state(t, r)
	assert.Equal(t, "el-3", s.Elements[0].ID)
	assert.Equal(t, "el-1", s.Elements[2].ID)

	rr = apitest.Do(r, http.MethodDelete, "/canvas/elements/el-2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	s = state(t, r)
	assert.Len(t, s.Elements, 2)
	assert.Nil(t, s.SelectedElementID, "deleting the selected element clears the selection")

	apitest.Do(r, http.MethodPut, "/canvas/selection", `{"id":null}`)
	assert.Nil(t, state(t, r).SelectedElementID)
}

func TestHandlersRequireClaims(t *testing.T) {
	reg := apitest.NewRegistry(t)

	rr := apitest.Do(HandleGetState(reg), http.MethodGet, "/canvas", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
