package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"storefront.GO/core/registry"
)

func TestRegistry_Register_Apply(t *testing.T) {
	RegisterGET("/test/registry/check", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	e := echo.New()
	ApplyRoutes(e, &Deps{})

	req := httptest.NewRequest(http.MethodGet, "/test/registry/check", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRegistry_ModulesSeeDeps(t *testing.T) {
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryAPI)
	var seen *Deps
	RegisterModule(func(g *echo.Group, deps *Deps) {
		seen = deps
		g.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	})

	deps := &Deps{}
	e := echo.New()
	ApplyModules(e.Group("/api"), deps)
	if seen != deps {
		t.Fatal("module did not receive deps")
	}

	defer func() {
		if recover() == nil {
			t.Error("RegisterModule after Apply did not panic")
		}
	}()
	RegisterModule(func(*echo.Group, *Deps) {})
}
