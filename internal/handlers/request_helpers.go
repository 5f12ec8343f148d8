package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v3"
)

// clientIP derives the visitor IP, preferring proxy headers over the
// socket peer. With ProxyHeader set on the app, c.IP() already resolves
// X-Forwarded-For; X-Real-IP covers nginx setups that only pass that.
func clientIP(c fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	return c.IP()
}
