package middleware

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/vitrina-host/vitrina/internal/database"
)

// SessionCookie is the admin session cookie name.
const SessionCookie = "vitrina_admin"

// AdminContext holds the authenticated admin information.
type AdminContext struct {
	AdminID  int64
	Username string
}

// Auth validates the admin session cookie and loads the admin context,
// answering 401 JSON when the session is missing or expired.
func Auth(c fiber.Ctx) error {
	admin, err := authenticate(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized - invalid or expired session",
		})
	}
	c.Locals("admin", admin)
	return c.Next()
}

// AuthWithRedirect is the browser variant: unauthenticated requests are sent
// to the login page instead of receiving a JSON error.
func AuthWithRedirect(c fiber.Ctx) error {
	admin, err := authenticate(c)
	if err != nil {
		return c.Redirect().Status(fiber.StatusSeeOther).To("/login")
	}
	c.Locals("admin", admin)
	return c.Next()
}

// GetAdmin retrieves the authenticated admin from the request context.
func GetAdmin(c fiber.Ctx) *AdminContext {
	if admin, ok := c.Locals("admin").(*AdminContext); ok {
		return admin
	}
	return nil
}

var errNoSession = errors.New("no valid session")

func authenticate(c fiber.Ctx) (*AdminContext, error) {
	token := c.Cookies(SessionCookie)
	if token == "" {
		return nil, errNoSession
	}

	var admin AdminContext
	err := database.DB.QueryRow(`
		SELECT a.id, a.username
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.token_hash = $1 AND s.expires_at > NOW()`,
		HashToken(token),
	).Scan(&admin.AdminID, &admin.Username)

	if err == sql.ErrNoRows {
		return nil, errNoSession
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// HashToken creates the SHA256 hex digest stored in place of raw tokens.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
