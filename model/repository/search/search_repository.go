package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
	catalogRepo "storefront.GO/model/repository/catalog"
	catalogService "storefront.GO/service/catalog"
	"storefront.GO/service/stock"
)

// maxCatalogSize caps how many documents one FetchCatalog reads from a vendor index.
const maxCatalogSize = 10000

// SearchRepository reads vendor catalogs from Elasticsearch indices named
// <prefix>_products_<vendor>. It implements catalog.Source.
type SearchRepository struct {
	client     *elasticsearch.Client
	prefix     string
	normalizer *stock.Normalizer
	logger     *zap.Logger
}

func NewSearchRepository(client *elasticsearch.Client, prefix string, normalizer *stock.Normalizer, logger *zap.Logger) *SearchRepository {
	logger = logging.OrNop(logger)
	if prefix == "" {
		prefix = "storefront"
	}
	if normalizer == nil {
		normalizer = stock.NewNormalizer(stock.DefaultPolicy(), logger)
	}
	return &SearchRepository{client: client, prefix: prefix, normalizer: normalizer, logger: logger}
}

// IndexName is the vendor's catalog index.
func (r *SearchRepository) IndexName(vendorID string) string {
	return fmt.Sprintf("%s_products_%s", r.prefix, strings.ToLower(vendorID))
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// FetchCatalog reads every document of the vendor index, oldest first. Documents that fail
// to decode are skipped and logged.
func (r *SearchRepository) FetchCatalog(ctx context.Context, vendorID string) ([]domain.Product, error) {
	if r.client == nil {
		return nil, fmt.Errorf("elasticsearch not configured")
	}
	body := map[string]interface{}{
		"size":  maxCatalogSize,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "asc", "unmapped_type": "date"}},
		},
	}
	bodyBytes, _ := json.Marshal(body)

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.IndexName(vendorID)),
		r.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", catalogService.ErrVendorNotFound, vendorID)
	}
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var esResp searchResponse
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&esResp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		src := hit.Source
		if _, ok := src["id"]; !ok && hit.ID != "" {
			src["id"] = hit.ID
		}
		rec, err := catalogRepo.DecodeRecord(src)
		if err != nil {
			r.logger.Warn("search document skipped", zap.String("vendorId", vendorID), zap.String("docId", hit.ID), zap.Error(err))
			continue
		}
		if rec.VendorID == "" {
			rec.VendorID = vendorID
		}
		p, problems := catalogRepo.ToDomain(rec, r.normalizer)
		catalogRepo.LogProblems(r.logger, p, problems)
		products = append(products, p)
	}
	if esResp.Hits.Total.Value > len(esResp.Hits.Hits) {
		r.logger.Warn("vendor index truncated",
			zap.String("vendorId", vendorID),
			zap.Int("total", esResp.Hits.Total.Value),
			zap.Int("read", len(esResp.Hits.Hits)),
		)
	}
	return products, nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// IndexRecords writes records into the vendor index with one bulk request and returns how
// many were accepted.
func (r *SearchRepository) IndexRecords(ctx context.Context, vendorID string, records []catalogRepo.Record) (int, error) {
	if r.client == nil {
		return 0, fmt.Errorf("elasticsearch not configured")
	}
	if len(records) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if rec.VendorID == "" {
			rec.VendorID = vendorID
		}
		meta := map[string]interface{}{"index": map[string]interface{}{"_id": rec.ID}}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(rec); err != nil {
			return 0, fmt.Errorf("encode product %s: %w", rec.ID, err)
		}
	}

	res, err := r.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		r.client.Bulk.WithContext(ctx),
		r.client.Bulk.WithIndex(r.IndexName(vendorID)),
		r.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	var bulk bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return 0, err
	}
	accepted := 0
	for _, item := range bulk.Items {
		for _, result := range item {
			if result.Error != nil {
				r.logger.Warn("product not indexed",
					zap.String("vendorId", vendorID),
					zap.String("productId", result.ID),
					zap.String("reason", result.Error.Reason),
				)
				continue
			}
			accepted++
		}
	}
	return accepted, nil
}
