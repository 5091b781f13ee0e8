package export

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"testing"

	"artisan-canvas/canvas"
	"artisan-canvas/core"
	"artisan-canvas/handlers/api/apitest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleExportPNG(t *testing.T) {
	reg := apitest.NewRegistry(t)
	r := apitest.Router()
	r.Get("/export", HandleExportPNG(reg))

	_, err := reg.Get(apitest.SessionID).Do(context.Background(), func(doc *canvas.Document) {
		doc.SetCanvasDimensions(100, 50)
		doc.AddElement(core.Element{Type: core.ElementRectangle, Width: 10, Height: 10, Color: "#000"})
	})
	require.NoError(t, err)

	t.Run("default scale", func(t *testing.T) {
		rr := apitest.Do(r, http.MethodGet, "/export", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="artisan-canvas-design.png"`, rr.Header().Get("Content-Disposition"))

		img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 200, img.Bounds().Dx())
		assert.Equal(t, 100, img.Bounds().Dy())
	})

	t.Run("explicit scale", func(t *testing.T) {
		rr := apitest.Do(r, http.MethodGet, "/export?scale=1", "")
		require.Equal(t, http.StatusOK, rr.Code)
		img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 100, img.Bounds().Dx())
	})

	t.Run("bad scale", func(t *testing.T) {
		for _, q := range []string{"0", "-1", "5", "big"} {
			rr := apitest.Do(r, http.MethodGet, "/export?scale="+q, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code, q)
		}
	})
}

func TestHandleExportPNG_EmptyCanvas(t *testing.T) {
	reg := apitest.NewRegistry(t)
	r := apitest.Router()
	r.Get("/export", HandleExportPNG(reg))

	_, err := reg.Get(apitest.SessionID).Do(context.Background(), func(doc *canvas.Document) {
		doc.SetCanvasDimensions(0, 600)
	})
	require.NoError(t, err)

	rr := apitest.Do(r, http.MethodGet, "/export", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleExportPNG_TooLarge(t *testing.T) {
	reg := apitest.NewRegistry(t)
	r := apitest.Router()
	r.Get("/export", HandleExportPNG(reg))

	_, err := reg.Get(apitest.SessionID).Do(context.Background(), func(doc *canvas.Document) {
		doc.SetCanvasDimensions(2e9, 2e9)
	})
	require.NoError(t, err)

	rr := apitest.Do(r, http.MethodGet, "/export?scale=4", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
