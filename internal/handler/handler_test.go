package handler

import (
	"bytes"
	"context"
	"image/gif"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTracker struct {
	tokens []string
}

func (r *recordingTracker) TrackOpen(ctx context.Context, token string) {
	r.tokens = append(r.tokens, token)
}

func TestRootAndHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Root(w, httptest.NewRequest("GET", "/", nil))
	assert.JSONEq(t, `{"message":"Cold Email AI is running!"}`, w.Body.String())

	w = httptest.NewRecorder()
	Health(w, httptest.NewRequest("GET", "/health", nil))
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestOpenPixel(t *testing.T) {
	tracker := &recordingTracker{}
	h := &TrackingHandler{Tracker: tracker}

	r := chi.NewRouter()
	r.Get("/api/v1/track/open/{token}", h.OpenPixel)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/track/open/abc-123", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, []string{"abc-123"}, tracker.tokens)

	img, err := gif.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
}
