package catalog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
	"storefront.GO/service/stock"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(Entities()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func decodeAll(t *testing.T, payload string) []Record {
	t.Helper()
	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out := make([]Record, 0, len(raw))
	for _, m := range raw {
		rec, err := DecodeRecord(m)
		if err != nil {
			t.Fatalf("DecodeRecord: %v", err)
		}
		out = append(out, rec)
	}
	return out
}

const feed = `[
  {"id": "tee", "vendorId": "v1", "name": "Zebra Tee", "category": "Apparel", "price": 450,
   "sizes": ["S", "M", "L", "XL"], "stock": 40, "createdAt": "2024-03-01T10:00:00Z",
   "facets": {"material": "Cotton", "color": ["black", "white"], "fit": "relaxed"}},
  {"id": "biryani", "vendor_id": "v1", "name": "Biryani", "category": "Mains", "base_price": "480",
   "salePrice": 460, "stock": "25", "created_at": "2024-03-02T10:00:00Z",
   "pricingTiers": [{"minQuantity": 1, "maxQuantity": 2, "price": 450}, {"minQuantity": 3, "price": 420}],
   "facets": {"dietaryType": "non-veg", "spiceLevel": "hot", "cuisine": "Hyderabadi"}},
  {"id": "shoe", "vendor_id": "v1", "name": "Runner", "category": "Footwear", "price": 2000,
   "inventory": {"8": 3, "9": -1}, "created_at": "2024-03-03T10:00:00Z"},
  {"id": "other", "vendor_id": "v2", "name": "Elsewhere", "category": "Mains", "price": 1, "stock": 1}
]`

func TestDecodeRecordAliasesAndWeakTypes(t *testing.T) {
	recs := decodeAll(t, feed)
	b := recs[1]
	if b.BasePrice != 480 || b.SalePrice == nil || *b.SalePrice != 460 {
		t.Errorf("prices = %v / %v", b.BasePrice, b.SalePrice)
	}
	want := []TierRecord{{MinQuantity: 1, MaxQuantity: domain.IntPtr(2), Price: 450}, {MinQuantity: 3, Price: 420}}
	if diff := cmp.Diff(want, b.Tiers); diff != "" {
		t.Errorf("tiers (-want +got):\n%s", diff)
	}
	if !b.CreatedAt.Equal(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", b.CreatedAt)
	}
	if _, err := DecodeRecord(map[string]interface{}{"name": "no id"}); err == nil {
		t.Error("record without id decoded")
	}
}

func TestDecodeFacetsKeepsUnknownKeysAsExtra(t *testing.T) {
	f, err := DecodeFacets(map[string]interface{}{"material": "Cotton", "color": "black", "fit": "relaxed", "weight": 180.0})
	if err != nil {
		t.Fatalf("DecodeFacets: %v", err)
	}
	want := domain.Facets{Material: "Cotton", Colors: []string{"black"}, Extra: map[string]string{"fit": "relaxed", "weight": "180"}}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestSaveAndFetchCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testDB(t), stock.NewNormalizer(stock.DefaultPolicy(), nil), nil)

	res, err := repo.SaveRecords(ctx, decodeAll(t, feed), 2)
	if err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	if res.Saved != 4 || res.Skipped != 0 {
		t.Errorf("SaveResult = %+v", res)
	}

	products, err := repo.FetchCatalog(ctx, "v1")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	var gotIDs []string
	for _, p := range products {
		gotIDs = append(gotIDs, p.ID)
	}
	if diff := cmp.Diff([]string{"tee", "biryani", "shoe"}, gotIDs); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}

	tee := products[0]
	if diff := cmp.Diff(map[string]int{"S": 10, "M": 10, "L": 10, "XL": 10}, tee.Stock.Variants()); diff != "" {
		t.Errorf("tee stock (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"S", "M", "L", "XL"}, tee.Facets.Sizes); diff != "" {
		t.Errorf("tee sizes (-want +got):\n%s", diff)
	}
	if tee.Facets.Extra["fit"] != "relaxed" {
		t.Errorf("tee extra = %v", tee.Facets.Extra)
	}

	biryani := products[1]
	if biryani.Stock.IsVariant() || biryani.Stock.Total() != 25 {
		t.Errorf("biryani stock = %v", biryani.Stock)
	}
	if len(biryani.Tiers) != 2 || biryani.Facets.SpiceLevel != "hot" || biryani.Facets.Dietary != "non-veg" {
		t.Errorf("biryani = %+v", biryani)
	}

	shoe := products[2]
	if diff := cmp.Diff(map[string]int{"8": 3, "9": 0}, shoe.Stock.Variants()); diff != "" {
		t.Errorf("shoe stock (-want +got):\n%s", diff)
	}

	vendors, err := repo.Vendors(ctx)
	if err != nil || len(vendors) != 2 {
		t.Errorf("Vendors = %v, %v", vendors, err)
	}
}

func TestSaveRecordsReplacesTiersAndStock(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testDB(t), nil, nil)
	recs := decodeAll(t, feed)
	if _, err := repo.SaveRecords(ctx, recs, 0); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	recs[1].Tiers = recs[1].Tiers[:1]
	recs[1].Stock = 7
	if _, err := repo.SaveRecords(ctx, recs[1:2], 0); err != nil {
		t.Fatalf("SaveRecords again: %v", err)
	}
	p, err := repo.FindByID(ctx, "biryani")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(p.Tiers) != 1 || p.Stock.Total() != 7 {
		t.Errorf("biryani after resave = tiers %d stock %d", len(p.Tiers), p.Stock.Total())
	}

	if err := repo.SetStock(ctx, "biryani", "", 3); err != nil {
		t.Fatalf("SetStock: %v", err)
	}
	p, _ = repo.FindByID(ctx, "biryani")
	if p.Stock.Total() != 3 {
		t.Errorf("stock after SetStock = %d", p.Stock.Total())
	}
}

func TestRepositoryFeedsCatalogStore(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testDB(t), nil, nil)
	if _, err := repo.SaveRecords(ctx, decodeAll(t, feed), 0); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	store := catalogService.NewStore(repo, nil, nil)
	cat, err := store.Load(ctx, "v1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	engine := catalogService.NewEngine(catalogService.EngineOptions{})
	page := engine.Query(cat, catalogService.Query{
		Criteria: domain.FilterCriteria{StockStatus: domain.StockLowStock},
		Sort:     domain.SortSpec{Field: catalogService.SortByPrice, Direction: domain.SortDesc},
	})
	var got []string
	for _, p := range page.Items {
		got = append(got, p.ID)
	}
	if diff := cmp.Diff([]string{"shoe"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCachedSourceFallsThroughWhenRedisIsDown(t *testing.T) {
	src := catalogService.StaticSource{"v1": {{ID: "p1", Stock: domain.ScalarStock(1)}}}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	cached := NewCachedSource(src, rdb, time.Minute, nil)
	products, err := cached.FetchCatalog(context.Background(), "v1")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Errorf("products = %+v", products)
	}

	passthrough := NewCachedSource(src, nil, 0, nil)
	if _, err := passthrough.FetchCatalog(context.Background(), "missing"); err == nil {
		t.Error("expected source error to surface")
	}
}

func TestImportStockSkipsForeignProducts(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testDB(t), nil, nil)
	if _, err := repo.SaveRecords(ctx, decodeAll(t, feed), 0); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	res, err := repo.ImportStock(ctx, "v1", []StockInput{
		{ProductID: "shoe", VariantKey: "9", Quantity: 4},
		{ProductID: "other", Quantity: 9},
		{ProductID: "biryani", Quantity: -2},
	})
	if err != nil {
		t.Fatalf("ImportStock: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 2 || len(res.Warnings) != 2 {
		t.Errorf("result = %+v", res)
	}
	shoe, _ := repo.FindByID(ctx, "shoe")
	if diff := cmp.Diff(map[string]int{"8": 3, "9": 4}, shoe.Stock.Variants()); diff != "" {
		t.Errorf("shoe stock (-want +got):\n%s", diff)
	}
}

func TestImportStockKeepsOneStockShape(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testDB(t), nil, nil)
	if _, err := repo.SaveRecords(ctx, decodeAll(t, feed), 0); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	res, err := repo.ImportStock(ctx, "v1", []StockInput{
		{ProductID: "tee", VariantKey: "S", Quantity: 3},
		{ProductID: "shoe", Quantity: 5},
	})
	if err != nil {
		t.Fatalf("ImportStock: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 0 {
		t.Errorf("result = %+v", res)
	}

	tee, _ := repo.FindByID(ctx, "tee")
	if diff := cmp.Diff(map[string]int{"S": 3, "M": 10, "L": 10, "XL": 10}, tee.Stock.Variants()); diff != "" {
		t.Errorf("tee stock (-want +got):\n%s", diff)
	}
	shoe, _ := repo.FindByID(ctx, "shoe")
	if shoe.Stock.IsVariant() || shoe.Stock.Total() != 5 {
		t.Errorf("shoe stock = %v, want scalar 5", shoe.Stock)
	}

	// A second keyed import works on the rows the first one wrote.
	if _, err := repo.ImportStock(ctx, "v1", []StockInput{{ProductID: "tee", VariantKey: "M", Quantity: 1}}); err != nil {
		t.Fatalf("ImportStock again: %v", err)
	}
	tee, _ = repo.FindByID(ctx, "tee")
	if diff := cmp.Diff(map[string]int{"S": 3, "M": 1, "L": 10, "XL": 10}, tee.Stock.Variants()); diff != "" {
		t.Errorf("tee stock after second import (-want +got):\n%s", diff)
	}
}

func TestCachedSourceRefreshSeesImportedStock(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	repo := NewCatalogRepository(testDB(t), nil, nil)
	if _, err := repo.SaveRecords(ctx, []Record{
		{ID: "mug", VendorID: "v1", Name: "Mug", Category: "Kitchen", BasePrice: 200, Stock: 30},
	}, 0); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	cached := NewCachedSource(repo, rdb, time.Hour, nil)
	store := catalogService.NewStore(cached, nil, nil)
	if _, err := store.Load(ctx, "v1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !mr.Exists("storefront:catalog:v1") {
		t.Fatal("first load did not populate the cache")
	}

	if _, err := repo.ImportStock(ctx, "v1", []StockInput{{ProductID: "mug", Quantity: 0}}); err != nil {
		t.Fatalf("ImportStock: %v", err)
	}
	cat, err := store.RefreshStock(ctx, "v1")
	if err != nil {
		t.Fatalf("RefreshStock: %v", err)
	}
	if p, _ := cat.Find("mug"); p.Stock.Total() != 0 {
		t.Errorf("mug stock after import = %d, want 0", p.Stock.Total())
	}

	if err := repo.SetStock(ctx, "mug", "", 9); err != nil {
		t.Fatalf("SetStock: %v", err)
	}
	cat, err = store.Reload(ctx, "v1")
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if p, _ := cat.Find("mug"); p.Stock.Total() != 9 {
		t.Errorf("mug stock after reload = %d, want 9", p.Stock.Total())
	}
}

func TestFetchCatalogLogsRecordProblems(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	repo := NewCatalogRepository(testDB(t), nil, zap.New(core))
	recs := decodeAll(t, `[{"id": "thali", "vendor_id": "v1", "name": "Thali", "category": "Mains", "price": 200, "stock": 5,
	  "facets": {"spiceLevel": {"hot": true}},
	  "tiers": [{"minQuantity": 1, "maxQuantity": 2, "price": 190}, {"minQuantity": 5, "price": 170}]}]`)
	if _, err := repo.SaveRecords(ctx, recs, 0); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}
	products, err := repo.FetchCatalog(ctx, "v1")
	if err != nil || len(products) != 1 {
		t.Fatalf("FetchCatalog = %d products, %v", len(products), err)
	}

	var problems []string
	for _, entry := range logs.FilterMessage("catalog record integrity").All() {
		problems = append(problems, entry.ContextMap()["problem"].(string))
	}
	if len(problems) != 2 {
		t.Fatalf("problems = %q, want a facet and a tier problem", problems)
	}
	if !strings.Contains(problems[0], "decode facets") || problems[1] != "no tier covers quantities 3-4" {
		t.Errorf("problems = %q", problems)
	}
}
