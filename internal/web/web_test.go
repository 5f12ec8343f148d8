package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderToString(t *testing.T, name string, data any) (int, string) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		return Render(c, name, data)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRenderLanding(t *testing.T) {
	status, body := renderToString(t, "landing", fiber.Map{
		"Title":        "Super App",
		"VideoURL":     "https://cdn.example.com/promo.mp4",
		"ShowDownload": true,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Super App")
	assert.Contains(t, body, "https://cdn.example.com/promo.mp4")
	assert.Contains(t, body, "/?download=1")
}

func TestRenderLandingWithoutDownload(t *testing.T) {
	_, body := renderToString(t, "landing", fiber.Map{
		"Title":        "Super App",
		"ShowDownload": false,
	})
	assert.NotContains(t, body, "/?download=1")
	assert.NotContains(t, body, "<video")
}

func TestRenderEscapesTitle(t *testing.T) {
	_, body := renderToString(t, "landing", fiber.Map{
		"Title": "<script>alert(1)</script>",
	})
	assert.NotContains(t, body, "<script>alert(1)</script>")
}

func TestAllTemplatesParse(t *testing.T) {
	for _, name := range []string{"landing", "notfound", "login", "admin_list", "admin_form", "password"} {
		assert.NotNil(t, templates.Lookup(name), "template %q missing", name)
	}
}
