package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrina-host/vitrina/internal/assets"
)

func mediaApp(t *testing.T, dir string) *fiber.App {
	t.Helper()
	store, err := assets.NewStore(dir)
	require.NoError(t, err)
	app := fiber.New()
	app.Get("/media/:name", NewMedia(store).HandleMedia)
	return app
}

func TestMediaServesVideoInline(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "promo.mp4"), []byte("mp4-bytes"), 0o644))
	app := mediaApp(t, dir)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/promo.mp4", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "video/mp4")
	assert.NotContains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, "mp4-bytes", string(body))
}

func TestMediaMissingFileIs404(t *testing.T) {
	app := mediaApp(t, t.TempDir())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/nope.mp4", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMediaRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok.mp4"), []byte("x"), 0o644))
	secret := filepath.Join(filepath.Dir(dir), "secret.txt")
	app := mediaApp(t, dir)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/media/"+filepath.Base(secret), nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
