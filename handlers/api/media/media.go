package media

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"artisan-canvas/canvas"
	"artisan-canvas/handlers/api"

	"github.com/go-chi/render"
)

type (
	// Asset is one entry of the stock image library.
	Asset struct {
		Kind string `json:"kind"`
		Seed string `json:"seed"`
		URL  string `json:"url"`
	}

	addImageRequest struct {
		Seed string `json:"seed"`
		URL  string `json:"url"`
	}

	addImageResponse struct {
		ElementID string       `json:"elementId"`
		State     canvas.State `json:"state"`
	}
)

// Assets is the library shown in the media panel, in display order.
var Assets = []Asset{
	newAsset("icon", "abstract"),
	newAsset("icon", "galaxy"),
	newAsset("icon", "geometric"),
	newAsset("image", "nature"),
	newAsset("image", "architecture"),
	newAsset("image", "technology"),
	newAsset("image", "animals"),
	newAsset("image", "food"),
	newAsset("image", "travel"),
}

func newAsset(kind, seed string) Asset {
	return Asset{Kind: kind, Seed: seed, URL: AssetURL(seed)}
}

// AssetURL returns the random stock photo URL for a seed word.
func AssetURL(seed string) string {
	return "https://source.unsplash.com/random/400x300/?" + url.QueryEscape(seed)
}

func HandleListAssets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Assets)
	}
}

// HandleAddImage inserts an image element from a library seed or a pasted URL.
func HandleAddImage(editors api.Editors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RenderError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		src := strings.TrimSpace(req.URL)
		if seed := strings.TrimSpace(req.Seed); seed != "" {
			src = AssetURL(seed)
		}
		if src == "" {
			api.RenderError(w, r, http.StatusBadRequest, "Image URL is required")
			return
		}

		editor, ok := api.EditorFor(w, r, editors)
		if !ok {
			return
		}
		var id string
		state, err := editor.Do(r.Context(), func(doc *canvas.Document) {
			id = doc.AddElement(canvas.ImageDraft(src))
		})
		if err != nil {
			api.RenderEditorError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, addImageResponse{ElementID: id, State: state})
	}
}
