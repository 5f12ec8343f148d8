package handlers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitrina-host/vitrina/internal/database"
	"github.com/vitrina-host/vitrina/internal/logging"
	"github.com/vitrina-host/vitrina/internal/middleware"
	"github.com/vitrina-host/vitrina/internal/web"
)

const sessionTTL = 7 * 24 * time.Hour

type adminRecord struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Swappable for tests.
var (
	fetchAdminByUsername = fetchAdminFromDB
	insertSessionFunc    = insertSessionInDB
	deleteSessionFunc    = deleteSessionInDB
	updatePasswordFunc   = updatePasswordInDB
	newSessionToken      = uuid.NewString
)

// Auth serves the admin login, logout, and password flows.
type Auth struct {
	secureCookies bool
}

// NewAuth creates the auth handler set. secureCookies controls the Secure
// flag on the session cookie; disable it for plain-HTTP development.
func NewAuth(secureCookies bool) *Auth {
	return &Auth{secureCookies: secureCookies}
}

// ShowLogin is GET /login.
func (a *Auth) ShowLogin(c fiber.Ctx) error {
	return web.Render(c, "login", fiber.Map{})
}

// HandleLogin is POST /login.
func (a *Auth) HandleLogin(c fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return web.RenderStatus(c, fiber.StatusBadRequest, "login", fiber.Map{
			"Error": "Username and password are required",
		})
	}

	admin, err := fetchAdminByUsername(username)
	if errors.Is(err, sql.ErrNoRows) {
		return a.loginRejected(c)
	}
	if err != nil {
		logging.L().Error("admin lookup failed", zap.Error(err))
		return web.RenderStatus(c, fiber.StatusInternalServerError, "login", fiber.Map{
			"Error": "Authentication error",
		})
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return a.loginRejected(c)
	}

	token := newSessionToken()
	expiresAt := time.Now().Add(sessionTTL)
	if err := insertSessionFunc(middleware.HashToken(token), admin.ID, expiresAt); err != nil {
		logging.L().Error("session insert failed", zap.Error(err))
		return web.RenderStatus(c, fiber.StatusInternalServerError, "login", fiber.Map{
			"Error": "Failed to create session",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   a.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return c.Redirect().Status(fiber.StatusSeeOther).To("/admin")
}

func (a *Auth) loginRejected(c fiber.Ctx) error {
	return web.RenderStatus(c, fiber.StatusUnauthorized, "login", fiber.Map{
		"Error": "Invalid username or password",
	})
}

// HandleLogout is GET /logout.
func (a *Auth) HandleLogout(c fiber.Ctx) error {
	if token := c.Cookies(middleware.SessionCookie); token != "" {
		if err := deleteSessionFunc(middleware.HashToken(token)); err != nil {
			logging.L().Warn("session delete failed", zap.Error(err))
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   a.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return c.Redirect().Status(fiber.StatusSeeOther).To("/login")
}

// ShowChangePassword is GET /admin/password (behind auth).
func (a *Auth) ShowChangePassword(c fiber.Ctx) error {
	return web.Render(c, "password", fiber.Map{})
}

// HandleChangePassword is POST /admin/password (behind auth).
func (a *Auth) HandleChangePassword(c fiber.Ctx) error {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		return c.Redirect().Status(fiber.StatusSeeOther).To("/login")
	}

	current := c.FormValue("current")
	password := c.FormValue("password")
	confirm := c.FormValue("confirm")

	if password == "" || password != confirm {
		return web.RenderStatus(c, fiber.StatusBadRequest, "password", fiber.Map{
			"Error": "New passwords do not match",
		})
	}

	record, err := fetchAdminByUsername(admin.Username)
	if err != nil {
		logging.L().Error("admin lookup failed", zap.Error(err))
		return web.RenderStatus(c, fiber.StatusInternalServerError, "password", fiber.Map{
			"Error": "Could not verify current password",
		})
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(current)) != nil {
		return web.RenderStatus(c, fiber.StatusUnauthorized, "password", fiber.Map{
			"Error": "Current password is wrong",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return web.RenderStatus(c, fiber.StatusInternalServerError, "password", fiber.Map{
			"Error": "Failed to hash password",
		})
	}
	if err := updatePasswordFunc(admin.AdminID, string(hash)); err != nil {
		logging.L().Error("password update failed", zap.Error(err))
		return web.RenderStatus(c, fiber.StatusInternalServerError, "password", fiber.Map{
			"Error": "Failed to update password",
		})
	}
	return web.Render(c, "password", fiber.Map{"Success": true})
}

func fetchAdminFromDB(username string) (*adminRecord, error) {
	var record adminRecord
	err := database.DB.QueryRow(`
		SELECT id, username, password_hash
		FROM admins
		WHERE username = $1
	`, username).Scan(&record.ID, &record.Username, &record.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func insertSessionInDB(tokenHash string, adminID int64, expiresAt time.Time) error {
	_, err := database.DB.Exec(`
		INSERT INTO admin_sessions (token_hash, admin_id, expires_at)
		VALUES ($1, $2, $3)
	`, tokenHash, adminID, expiresAt)
	return err
}

func deleteSessionInDB(tokenHash string) error {
	_, err := database.DB.Exec(`DELETE FROM admin_sessions WHERE token_hash = $1`, tokenHash)
	return err
}

func updatePasswordInDB(adminID int64, passwordHash string) error {
	_, err := database.DB.Exec(`
		UPDATE admins SET password_hash = $1 WHERE id = $2
	`, passwordHash, adminID)
	return err
}
