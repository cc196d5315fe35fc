package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront.GO/model/domain"
	catalogRepo "storefront.GO/model/repository/catalog"
	catalogService "storefront.GO/service/catalog"
	checkoutService "storefront.GO/service/checkout"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ELASTICSEARCH_HOST", "")
	t.Setenv("CATALOG_SOURCE", "")

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	a, err := New(context.Background(), Options{Logger: zaptest.NewLogger(t), DB: db, Migrate: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestNewWiresDatabaseCatalogAndCheckout(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	if a.Redis != nil || a.Search != nil {
		t.Fatalf("optional backends wired without config: redis=%v search=%v", a.Redis, a.Search)
	}
	if _, ok := a.Source.(*catalogRepo.CatalogRepository); !ok {
		t.Fatalf("Source = %T, want the database repository", a.Source)
	}

	_, err := a.Catalog.SaveRecords(ctx, []catalogRepo.Record{
		{ID: "chai", VendorID: "v1", Name: "Masala Chai", Category: "Drinks", BasePrice: 30, Stock: 12},
	}, 0)
	if err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	deps := a.Deps()
	cat, err := deps.Store.Load(ctx, "v1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, ok := cat.Find("chai")
	if !ok || p.Stock.Total() != 12 {
		t.Fatalf("chai = %+v, %v", p, ok)
	}

	ledger := deps.Carts.Get("s1")
	if _, err := ledger.AddOrIncrement(p, "", 3); err != nil {
		t.Fatalf("AddOrIncrement: %v", err)
	}
	receipt, err := deps.Checkout.Submit(ctx, checkoutService.Request{VendorID: "v1", SessionID: "s1", Snapshot: ledger.Snapshot()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.TotalPrice != 90 || receipt.ItemCount != 3 {
		t.Errorf("receipt = %+v", receipt)
	}

	orders, err := a.Orders.ListByVendor(ctx, "v1", 0)
	if err != nil || len(orders) != 1 {
		t.Fatalf("ListByVendor = %v, %v", orders, err)
	}

	page := deps.Engine.Query(cat, catalogQuery(domain.StockInStock))
	if page.TotalCount != 0 {
		t.Errorf("in-stock count = %d, want 0 for a low stock item", page.TotalCount)
	}
}

func TestSelectSourceRejectsUnknown(t *testing.T) {
	a := newTestApp(t)
	cfg := a.Config.Catalog
	cfg.Source = "ftp"
	if _, err := a.selectSource(cfg); err == nil {
		t.Error("unknown source accepted")
	}
	cfg.Source = "elastic"
	if _, err := a.selectSource(cfg); err == nil {
		t.Error("elastic source accepted without a client")
	}
}

func catalogQuery(status domain.StockStatus) catalogService.Query {
	return catalogService.Query{Criteria: domain.FilterCriteria{StockStatus: status}}
}
