package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/fediplan/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestApp() *fiber.App {
	cfg := config.Config{
		GoogleClientID:    "client-id",
		GoogleRedirectURI: "http://localhost:3000/login/callback",
		SecretKey:         "test-secret",
		CookieName:        "session",
	}
	h := NewAuthHandler(cfg, nil)

	app := fiber.New()
	app.Get("/login", h.Login)
	app.Get("/login/callback", h.LoginCallbackHandler)
	return app
}

func stateCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == stateCookieName {
			return c
		}
	}
	return nil
}

func TestLoginIssuesRandomState(t *testing.T) {
	app := newAuthTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	cookie := stateCookie(resp)
	require.NotNil(t, cookie, "the state must round-trip through a cookie")
	require.NotEmpty(t, cookie.Value)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, location.Query().Get("state"))

	// A second login gets a fresh state.
	resp2, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	require.NoError(t, err)
	cookie2 := stateCookie(resp2)
	require.NotNil(t, cookie2)
	assert.NotEqual(t, cookie.Value, cookie2.Value)
}

func TestLoginCallbackRejectsStateMismatch(t *testing.T) {
	app := newAuthTestApp()

	req := httptest.NewRequest("GET", "/login/callback?code=abc&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLoginCallbackRejectsMissingState(t *testing.T) {
	app := newAuthTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/login/callback?code=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
