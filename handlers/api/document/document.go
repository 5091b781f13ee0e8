package document

import (
	"encoding/json"
	"fmt"
	"net/http"

	"artisan-canvas/canvas"
	"artisan-canvas/core"
	"artisan-canvas/handlers/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// MaxCanvasSide is the largest width or height accepted from clients.
const MaxCanvasSide = 8192

type (
	stateResponse struct {
		canvas.State
		Preset string `json:"preset"`
	}

	addResponse struct {
		ElementID string `json:"elementId"`
		stateResponse
	}

	sizeRequest struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Preset string `json:"preset"`
	}

	selectionRequest struct {
		ID *string `json:"id"`
	}

	addRequest struct {
		Type core.ElementType `json:"type"`
		core.ElementPatch
	}

	fieldRequest struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
)

func newStateResponse(state canvas.State) stateResponse {
	return stateResponse{State: state, Preset: canvas.PresetFor(state.CanvasWidth, state.CanvasHeight)}
}

// mutate runs fn on the caller's document and answers with the new state.
func mutate(editors api.Editors, fn func(r *http.Request, doc *canvas.Document)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		state, err := editor.Do(r.Context(), func(doc *canvas.Document) {
			fn(r, doc)
		})
		if err != nil {
			api.RenderEditorError(w, r, err)
			return
		}
		render.JSON(w, r, newStateResponse(state))
	}
}

func HandleGetState(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		state, err := editor.State(r.Context())
		if err != nil {
			api.RenderEditorError(w, r, err)
			return
		}
		render.JSON(w, r, newStateResponse(state))
	}
}

// HandleCommit records the current state as an undo checkpoint, e.g. at the
// end of a drag or resize.
func HandleCommit(editors api.Editors) http.HandlerFunc {
	return mutate(editors, func(_ *http.Request, doc *canvas.Document) {
		doc.Commit()
	})
}

func HandleUndo(editors api.Editors) http.HandlerFunc {
	return mutate(editors, func(_ *http.Request, doc *canvas.Document) {
		doc.Undo()
	})
}

func HandleRedo(editors api.Editors) http.HandlerFunc {
	return mutate(editors, func(_ *http.Request, doc *canvas.Document) {
		doc.Redo()
	})
}

func HandleSetSize(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RenderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Preset != "" {
			preset, err := canvas.Preset(req.Preset)
			if err != nil {
				api.RenderError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			req.Width, req.Height = preset.Width, preset.Height
		}
		if req.Width <= 0 || req.Height <= 0 {
			api.RenderError(w, r, http.StatusBadRequest, "Canvas width and height must be positive")
			return
		}
		if req.Width > MaxCanvasSide || req.Height > MaxCanvasSide {
			api.RenderError(w, r, http.StatusBadRequest, fmt.Sprintf("Canvas width and height must not exceed %d", MaxCanvasSide))
			return
		}

		mutate(editors, func(_ *http.Request, doc *canvas.Document) {
			doc.SetCanvasDimensions(req.Width, req.Height)
		})(w, r)
	}
}

func HandleSetSelection(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RenderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		id := ""
		if req.ID != nil {
			id = *req.ID
		}
		mutate(editors, func(_ *http.Request, doc *canvas.Document) {
			doc.SetSelectedElementID(id)
		})(w, r)
	}
}

// HandleAddElement inserts an element. A body with only a type inserts the
// toolbar default for that type; other fields override the default.
func HandleAddElement(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RenderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		draft, err := canvas.DefaultDraft(req.Type)
		if err != nil {
			api.RenderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.ElementPatch.Apply(&draft)

		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		var id string
		state, err := editor.Do(r.Context(), func(doc *canvas.Document) {
			id = doc.AddElement(draft)
		})
		if err != nil {
			api.RenderEditorError(w, r, err)
			return
		}

		logrus.WithFields(logrus.Fields{"session_id": editor.ID(), "element_id": id}).Debug("Element added")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, addResponse{ElementID: id, stateResponse: newStateResponse(state)})
	}
}

// HandleUpdateElement merges a partial element without committing, so that a
// drag can be collapsed into one history entry by a later commit.
func HandleUpdateElement(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch core.ElementPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			api.RenderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		update(w, r, editors, patch)
	}
}

// HandleSetField applies one inspector edit. Numeric fields are coerced the
// way a number input would.
func HandleSetField(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fieldRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RenderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		patch, err := core.PatchFromField(req.Field, req.Value)
		if err != nil {
			api.RenderError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		update(w, r, editors, patch)
	}
}

func update(w http.ResponseWriter, r *http.Request, editors api.Editors, patch core.ElementPatch) {
	withElement(editors, func(doc *canvas.Document, id string) {
		doc.UpdateElement(id, patch)
	})(w, r)
}

// withElement runs fn for the element named by the "id" URL parameter. An
// unknown id answers 404 and leaves the document, including its history,
// untouched.
func withElement(editors api.Editors, fn func(doc *canvas.Document, id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}

		found := false
		state, err := editor.Do(r.Context(), func(doc *canvas.Document) {
			if _, found = doc.Element(id); found {
				fn(doc, id)
			}
		})
		if err != nil {
			api.RenderEditorError(w, r, err)
			return
		}
		if !found {
			api.RenderError(w, r, http.StatusNotFound, "Element not found")
			return
		}
		render.JSON(w, r, newStateResponse(state))
	}
}

func HandleDeleteElement(editors api.Editors) http.HandlerFunc {
	return withElement(editors, func(doc *canvas.Document, id string) {
		doc.DeleteElement(id)
	})
}

func HandleBringToFront(editors api.Editors) http.HandlerFunc {
	return withElement(editors, func(doc *canvas.Document, id string) {
		doc.BringToFront(id)
	})
}

func HandleSendToBack(editors api.Editors) http.HandlerFunc {
	return withElement(editors, func(doc *canvas.Document, id string) {
		doc.SendToBack(id)
	})
}
