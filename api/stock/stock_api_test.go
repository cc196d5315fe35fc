package stock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront.GO/api"
	catalogRepo "storefront.GO/model/repository/catalog"
	catalogService "storefront.GO/service/catalog"
)

func newServer(t *testing.T) (*echo.Echo, *catalogService.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "stock.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(catalogRepo.Entities()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := catalogRepo.NewCatalogRepository(db, nil, nil)
	_, err = repo.SaveRecords(context.Background(), []catalogRepo.Record{
		{ID: "samosa", VendorID: "v1", Name: "Samosa", Category: "Snacks", BasePrice: 20, Stock: 5},
	}, 0)
	if err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	store := catalogService.NewStore(repo, nil, nil)
	if _, err := store.Load(context.Background(), "v1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	e := echo.New()
	RegisterStockRoutes(e.Group("/api"), &api.Deps{DB: db, Store: store})
	return e, store
}

func post(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestImportRefreshesSnapshot(t *testing.T) {
	e, store := newServer(t)
	rec := post(e, "/api/stock/v1/import", `{"items":[{"product_id":"samosa","quantity":50},{"product_id":"ghost","quantity":1}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Imported int      `json:"imported"`
		Skipped  int      `json:"skipped"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Imported != 1 || body.Skipped != 1 {
		t.Errorf("body = %+v", body)
	}
	p, ok := store.Product("v1", "samosa")
	if !ok || p.Stock.Total() != 50 {
		t.Errorf("samosa stock after import = %v", p.Stock)
	}
}

func TestImportRejectsEmptyBody(t *testing.T) {
	e, _ := newServer(t)
	if rec := post(e, "/api/stock/v1/import", `{"items":[]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}
