package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/go-cmp/cmp"

	"storefront.GO/model/domain"
	catalogRepo "storefront.GO/model/repository/catalog"
	catalogService "storefront.GO/service/catalog"
)

type fakeTransport struct {
	status   int
	body     string
	requests []*http.Request
	payloads []string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		f.payloads = append(f.payloads, string(b))
	}
	h := http.Header{}
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: f.status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Request:    req,
	}, nil
}

func newRepo(t *testing.T, ft *fakeTransport) *SearchRepository {
	t.Helper()
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: ft,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewSearchRepository(client, "shop", nil, nil)
}

const hits = `{"hits": {"total": {"value": 2}, "hits": [
  {"_id": "kurta", "_source": {"vendor_id": "V9", "name": "Kurta", "category": "Clothing",
    "price": 899, "sizes": ["M", "L"], "stock": 7, "created_at": "2024-01-05T00:00:00Z",
    "facets": {"material": "Linen", "color": "indigo"}}},
  {"_id": "paneer", "_source": {"id": "paneer", "name": "Paneer Tikka", "category": "Starters",
    "base_price": 320, "inventory": "12", "facets": {"dietaryType": "veg"},
    "pricingTiers": [{"minQuantity": 1, "price": 320}, {"minQuantity": 5, "price": 300}]}}
]}}`

func TestFetchCatalogDecodesHits(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: hits}
	repo := newRepo(t, ft)

	products, err := repo.FetchCatalog(context.Background(), "V9")
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products", len(products))
	}
	if got := ft.requests[0].URL.Path; got != "/shop_products_v9/_search" {
		t.Errorf("search path = %q", got)
	}

	kurta := products[0]
	if kurta.ID != "kurta" || kurta.BasePrice != 899 {
		t.Errorf("kurta = %+v", kurta)
	}
	if diff := cmp.Diff(map[string]int{"M": 4, "L": 3}, kurta.Stock.Variants()); diff != "" {
		t.Errorf("kurta stock (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"indigo"}, kurta.Facets.Colors); diff != "" {
		t.Errorf("kurta colors (-want +got):\n%s", diff)
	}

	paneer := products[1]
	if paneer.VendorID != "V9" || paneer.Stock.Total() != 12 || paneer.Facets.Dietary != "veg" {
		t.Errorf("paneer = %+v", paneer)
	}
	want := []domain.PricingTier{{MinQuantity: 1, Price: 320}, {MinQuantity: 5, Price: 300}}
	if diff := cmp.Diff(want, paneer.Tiers); diff != "" {
		t.Errorf("paneer tiers (-want +got):\n%s", diff)
	}
}

func TestFetchCatalogMissingIndex(t *testing.T) {
	repo := newRepo(t, &fakeTransport{status: http.StatusNotFound, body: `{"error": {"type": "index_not_found_exception"}}`})
	_, err := repo.FetchCatalog(context.Background(), "ghost")
	if !errors.Is(err, catalogService.ErrVendorNotFound) {
		t.Errorf("err = %v, want ErrVendorNotFound", err)
	}
}

func TestIndexRecordsCountsAccepted(t *testing.T) {
	ft := &fakeTransport{status: http.StatusOK, body: `{"errors": true, "items": [
	  {"index": {"_id": "a", "status": 201}},
	  {"index": {"_id": "b", "status": 400, "error": {"type": "mapper_parsing_exception", "reason": "bad price"}}}
	]}`}
	repo := newRepo(t, ft)

	n, err := repo.IndexRecords(context.Background(), "v1", []catalogRepo.Record{
		{ID: "a", Name: "A", BasePrice: 1, Stock: 3},
		{ID: "b", Name: "B", BasePrice: 2, Stock: 4},
	})
	if err != nil {
		t.Fatalf("IndexRecords: %v", err)
	}
	if n != 1 {
		t.Errorf("accepted = %d, want 1", n)
	}
	if got := ft.requests[0].URL.Path; got != "/shop_products_v1/_bulk" {
		t.Errorf("bulk path = %q", got)
	}
	lines := strings.Split(strings.TrimSpace(ft.payloads[0]), "\n")
	if len(lines) != 4 || !strings.Contains(lines[1], `"vendor_id":"v1"`) {
		t.Errorf("bulk payload = %q", ft.payloads[0])
	}
}

func TestNilClientIsReported(t *testing.T) {
	repo := NewSearchRepository(nil, "", nil, nil)
	if _, err := repo.FetchCatalog(context.Background(), "v1"); err == nil {
		t.Error("FetchCatalog without client succeeded")
	}
}
