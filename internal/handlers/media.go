package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vitrina-host/vitrina/internal/assets"
)

// Media serves uploaded assets inline, for landing pages that embed their
// own uploaded video instead of an external URL.
type Media struct {
	assets *assets.Store
}

// NewMedia creates the media handler.
func NewMedia(store *assets.Store) *Media {
	return &Media{assets: store}
}

// HandleMedia is GET /media/:name.
func (m *Media) HandleMedia(c fiber.Ctx) error {
	path, exists := m.assets.Resolve(c.Params("name"))
	if !exists {
		return c.Status(fiber.StatusNotFound).SendString("Not found")
	}
	c.Set(fiber.HeaderContentType, assets.MIMEType(path))
	return c.SendFile(path)
}
