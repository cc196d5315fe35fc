package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront.GO/app"
	"storefront.GO/model/domain"
)

func TestReadRecordsArrayAndNDJSON(t *testing.T) {
	array := `[
	  {"id": "tee", "vendorId": "v1", "name": "Tee", "category": "Apparel", "price": 450, "sizes": ["S", "M"], "stock": 10},
	  {"name": "no id"},
	  {"id": "orphan", "name": "Orphan", "price": 1}
	]`
	recs, warnings, err := readRecords(strings.NewReader(array), "")
	if err != nil {
		t.Fatalf("readRecords: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "tee" || recs[0].BasePrice != 450 {
		t.Errorf("records = %+v", recs)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v", warnings)
	}

	ndjson := "{\"id\": \"a\", \"name\": \"A\", \"price\": 1}\n\n{\"id\": \"b\", \"name\": \"B\", \"price\": \"2.5\"}\n"
	recs, warnings, err = readRecords(strings.NewReader(ndjson), "v7")
	if err != nil || len(warnings) != 0 {
		t.Fatalf("readRecords ndjson: %v %v", err, warnings)
	}
	if diff := cmp.Diff([]string{"v7"}, vendorsOf(recs)); diff != "" {
		t.Errorf("vendors (-want +got):\n%s", diff)
	}
	if len(recordsOf(recs, "v7")) != 2 || recs[1].BasePrice != 2.5 {
		t.Errorf("records = %+v", recs)
	}

	if _, _, err := readRecords(strings.NewReader("   "), ""); err == nil {
		t.Error("empty feed accepted")
	}
}

func TestParamValues(t *testing.T) {
	v, err := paramValues([]string{"q=tee", "facet.size=M", "dir=desc"})
	if err != nil {
		t.Fatalf("paramValues: %v", err)
	}
	if v.Get("facet.size") != "M" || v.Get("q") != "tee" {
		t.Errorf("values = %v", v)
	}
	if _, err := paramValues([]string{"oops"}); err == nil {
		t.Error("pair without = accepted")
	}
}

func TestPrintPage(t *testing.T) {
	var out strings.Builder
	printPage(&out, domain.Page{
		Items:      []domain.Product{{ID: "p1", Name: "Thali", Category: "Mains", BasePrice: 120, Stock: domain.ScalarStock(3)}},
		TotalCount: 1, TotalPages: 1, Page: 1, PageSize: 20,
	})
	if !strings.Contains(out.String(), "p1") || !strings.Contains(out.String(), "lowStock") {
		t.Errorf("output = %q", out.String())
	}
}

func TestNewServerMountsModules(t *testing.T) {
	t.Setenv("AUTH_TYPE", "")
	t.Setenv("API_USER", "admin")
	t.Setenv("API_PASS", "secret")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ELASTICSEARCH_HOST", "")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "serve.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	a, err := app.New(context.Background(), app.Options{Logger: zaptest.NewLogger(t), DB: db, Migrate: true})
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(a.Close)

	e := NewServer(a)
	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/catalog/v1/products", http.StatusOK},
		{http.MethodPost, "/api/catalog/v1/reload", http.StatusUnauthorized},
		{http.MethodGet, "/api/cart", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s %s = %d, want %d (%s)", tc.method, tc.target, rec.Code, tc.want, rec.Body.String())
		}
	}
}
