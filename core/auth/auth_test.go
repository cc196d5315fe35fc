package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newServer(mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	g := e.Group("/api", mw)
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	g.GET("/catalog/:vendor/products", ok)
	g.POST("/catalog/:vendor/reload", ok)
	return e
}

func do(e *echo.Echo, method, path string, set func(*http.Request)) int {
	req := httptest.NewRequest(method, path, nil)
	if set != nil {
		set(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestBasicAuthSkipsPublicPaths(t *testing.T) {
	t.Setenv("AUTH_TYPE", "")
	t.Setenv("API_USER", "admin")
	t.Setenv("API_PASS", "secret")
	e := newServer(Middleware())

	if code := do(e, http.MethodGet, "/api/catalog/v1/products", nil); code != http.StatusOK {
		t.Errorf("public path = %d", code)
	}
	if code := do(e, http.MethodPost, "/api/catalog/v1/reload", nil); code != http.StatusUnauthorized {
		t.Errorf("protected path without credentials = %d", code)
	}
	code := do(e, http.MethodPost, "/api/catalog/v1/reload", func(r *http.Request) { r.SetBasicAuth("admin", "secret") })
	if code != http.StatusOK {
		t.Errorf("protected path with credentials = %d", code)
	}
}

func TestKeyAuth(t *testing.T) {
	t.Setenv("AUTH_TYPE", "key")
	t.Setenv("API_KEY", "k-123")
	e := newServer(Middleware())

	bearer := func(key string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+key) }
	}
	if code := do(e, http.MethodPost, "/api/catalog/v1/reload", bearer("k-123")); code != http.StatusOK {
		t.Errorf("valid key = %d", code)
	}
	if code := do(e, http.MethodPost, "/api/catalog/v1/reload", bearer("nope")); code != http.StatusUnauthorized {
		t.Errorf("wrong key = %d", code)
	}
}

func TestKeyAuthWithoutConfiguredKeyRejects(t *testing.T) {
	t.Setenv("AUTH_TYPE", "key")
	t.Setenv("API_KEY", "")
	e := newServer(Middleware())
	if code := do(e, http.MethodPost, "/api/catalog/v1/reload", func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer ")
	}); code == http.StatusOK {
		t.Error("empty key accepted")
	}
}
