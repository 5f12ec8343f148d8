package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrina-host/vitrina/internal/database"
)

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	original := database.DB
	database.DB = mockDB
	t.Cleanup(func() {
		database.DB = original
		_ = mockDB.Close()
	})
	return mock
}

func newAuthApp(mw fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(mw)
	app.Get("/protected", func(c fiber.Ctx) error {
		admin := GetAdmin(c)
		if admin == nil {
			return c.Status(500).SendString("no admin in context")
		}
		return c.SendString(admin.Username)
	})
	return app
}

func TestAuthRejectsMissingCookie(t *testing.T) {
	withMockDB(t)
	app := newAuthApp(Auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthAcceptsValidSession(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectQuery("SELECT a.id, a.username").
		WithArgs(HashToken("token-123")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(int64(1), "admin"))

	app := newAuthApp(Auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "token-123"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRejectsExpiredSession(t *testing.T) {
	mock := withMockDB(t)

	mock.ExpectQuery("SELECT a.id, a.username").
		WithArgs(HashToken("stale")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	app := newAuthApp(Auth)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthWithRedirectSendsToLogin(t *testing.T) {
	withMockDB(t)
	app := newAuthApp(AuthWithRedirect)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
