// Package web holds the embedded HTML templates for the public landing
// pages and the admin console.
package web

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/gofiber/fiber/v3"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Render executes the named template and writes it as the response body.
func Render(c fiber.Ctx, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// RenderStatus is Render with an explicit HTTP status code.
func RenderStatus(c fiber.Ctx, status int, name string, data any) error {
	c.Status(status)
	return Render(c, name, data)
}
