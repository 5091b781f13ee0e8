package export

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"artisan-canvas/handlers/api"
	"artisan-canvas/raster"

	"github.com/sirupsen/logrus"
)

const (
	filename     = "artisan-canvas-design.png"
	defaultScale = 2
	maxScale     = 4
)

// HandleExportPNG renders the caller's current design as a PNG download.
// The optional scale query parameter sets the pixel ratio.
func HandleExportPNG(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scale := float64(defaultScale)
		if raw := r.URL.Query().Get("scale"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v <= 0 || v > maxScale {
				api.RenderError(w, r, http.StatusBadRequest, "scale must be a number in (0, 4]")
				return
			}
			scale = v
		}

		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		state, err := editor.State(r.Context())
		if err != nil {
			api.RenderEditorError(w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := raster.WritePNG(&buf, state.Snapshot, scale); err != nil {
			if errors.Is(err, raster.ErrEmptyCanvas) {
				api.RenderError(w, r, http.StatusUnprocessableEntity, "Canvas has no area to export")
				return
			}
			if errors.Is(err, raster.ErrCanvasTooLarge) {
				api.RenderError(w, r, http.StatusUnprocessableEntity, "Canvas is too large to export at this scale")
				return
			}
			logrus.WithError(err).WithField("session_id", editor.ID()).Error("Failed to render design")
			api.RenderError(w, r, http.StatusInternalServerError, "Failed to export design")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Write(buf.Bytes())
	}
}
