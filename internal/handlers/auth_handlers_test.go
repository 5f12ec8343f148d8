package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitrina-host/vitrina/internal/middleware"
)

func stubAuthFuncs(t *testing.T, passwordHash string) (sessions *[]string, deleted *[]string) {
	t.Helper()
	var inserted, removed []string

	origFetch := fetchAdminByUsername
	origInsert := insertSessionFunc
	origDelete := deleteSessionFunc
	origToken := newSessionToken
	t.Cleanup(func() {
		fetchAdminByUsername = origFetch
		insertSessionFunc = origInsert
		deleteSessionFunc = origDelete
		newSessionToken = origToken
	})

	fetchAdminByUsername = func(username string) (*adminRecord, error) {
		if username != "admin" {
			return nil, sql.ErrNoRows
		}
		return &adminRecord{ID: 1, Username: "admin", PasswordHash: passwordHash}, nil
	}
	insertSessionFunc = func(tokenHash string, adminID int64, expiresAt time.Time) error {
		inserted = append(inserted, tokenHash)
		return nil
	}
	deleteSessionFunc = func(tokenHash string) error {
		removed = append(removed, tokenHash)
		return nil
	}
	newSessionToken = func() string { return "fixed-token" }

	return &inserted, &removed
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestLoginSuccessSetsCookieAndRedirects(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	inserted, _ := stubAuthFuncs(t, string(hash))

	auth := NewAuth(false)
	app := fiber.New()
	app.Post("/login", auth.HandleLogin)

	resp := postForm(t, app, "/login", url.Values{"username": {"admin"}, "password": {"s3cret"}})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))

	require.Len(t, *inserted, 1)
	assert.Equal(t, middleware.HashToken("fixed-token"), (*inserted)[0])

	setCookie := resp.Header.Get("Set-Cookie")
	assert.Contains(t, setCookie, middleware.SessionCookie+"=fixed-token")
	assert.Contains(t, setCookie, "HttpOnly")
}

func TestLoginWrongPasswordIs401(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	inserted, _ := stubAuthFuncs(t, string(hash))

	auth := NewAuth(false)
	app := fiber.New()
	app.Post("/login", auth.HandleLogin)

	resp := postForm(t, app, "/login", url.Values{"username": {"admin"}, "password": {"nope"}})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, *inserted)
}

func TestLoginUnknownUserIs401(t *testing.T) {
	stubAuthFuncs(t, "")

	auth := NewAuth(false)
	app := fiber.New()
	app.Post("/login", auth.HandleLogin)

	resp := postForm(t, app, "/login", url.Values{"username": {"ghost"}, "password": {"x"}})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutDeletesSessionAndClearsCookie(t *testing.T) {
	_, removed := stubAuthFuncs(t, "")

	auth := NewAuth(false)
	app := fiber.New()
	app.Get("/logout", auth.HandleLogout)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "fixed-token"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	require.Len(t, *removed, 1)
	assert.Equal(t, middleware.HashToken("fixed-token"), (*removed)[0])
}

func TestChangePasswordRequiresMatchingConfirmation(t *testing.T) {
	stubAuthFuncs(t, "")

	auth := NewAuth(false)
	app := fiber.New()
	app.Post("/admin/password", func(c fiber.Ctx) error {
		c.Locals("admin", &middleware.AdminContext{AdminID: 1, Username: "admin"})
		return auth.HandleChangePassword(c)
	})

	resp := postForm(t, app, "/admin/password", url.Values{
		"current": {"old"}, "password": {"new1"}, "confirm": {"new2"},
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	stubAuthFuncs(t, string(hash))

	updatedHashes := 0
	origUpdate := updatePasswordFunc
	t.Cleanup(func() { updatePasswordFunc = origUpdate })
	updatePasswordFunc = func(adminID int64, passwordHash string) error {
		updatedHashes++
		return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte("new-pass"))
	}

	auth := NewAuth(false)
	app := fiber.New()
	app.Post("/admin/password", func(c fiber.Ctx) error {
		c.Locals("admin", &middleware.AdminContext{AdminID: 1, Username: "admin"})
		return auth.HandleChangePassword(c)
	})

	resp := postForm(t, app, "/admin/password", url.Values{
		"current": {"wrong"}, "password": {"new-pass"}, "confirm": {"new-pass"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
	assert.Zero(t, updatedHashes)

	resp = postForm(t, app, "/admin/password", url.Values{
		"current": {"old-pass"}, "password": {"new-pass"}, "confirm": {"new-pass"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	assert.Equal(t, 1, updatedHashes)
}
