package catalog

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
	catalogEntity "storefront.GO/model/entity/catalog"
	"storefront.GO/service/stock"
)

// CatalogRepository reads and writes vendor catalogs in the catalog_* tables.
type CatalogRepository struct {
	db         *gorm.DB
	normalizer *stock.Normalizer
	logger     *zap.Logger
}

func NewCatalogRepository(db *gorm.DB, normalizer *stock.Normalizer, logger *zap.Logger) *CatalogRepository {
	logger = logging.OrNop(logger)
	if normalizer == nil {
		normalizer = stock.NewNormalizer(stock.DefaultPolicy(), logger)
	}
	return &CatalogRepository{db: db, normalizer: normalizer, logger: logger}
}

// Entities lists the tables this repository owns, for AutoMigrate.
func Entities() []interface{} {
	return []interface{}{&catalogEntity.Product{}, &catalogEntity.TierPrice{}, &catalogEntity.StockItem{}}
}

// FetchCatalog loads every product of vendorID with tiers and stock, oldest first. A row
// that cannot be decoded is skipped and logged.
func (r *CatalogRepository) FetchCatalog(ctx context.Context, vendorID string) ([]domain.Product, error) {
	var rows []catalogEntity.Product
	err := r.db.WithContext(ctx).
		Preload("TierPrices").
		Preload("StockItems").
		Where("vendor_id = ?", vendorID).
		Order("created_at ASC, product_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %s: %w", vendorID, err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		rec, err := EntityToRecord(row)
		if err != nil {
			r.logger.Warn("catalog row skipped", zap.String("vendorId", vendorID), zap.String("productId", row.ProductID), zap.Error(err))
			continue
		}
		p, problems := ToDomain(rec, r.normalizer)
		LogProblems(r.logger, p, problems)
		products = append(products, p)
	}
	return products, nil
}

// FindByID loads one product.
func (r *CatalogRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	var row catalogEntity.Product
	err := r.db.WithContext(ctx).
		Preload("TierPrices").
		Preload("StockItems").
		Where("product_id = ?", productID).
		First(&row).Error
	if err != nil {
		return domain.Product{}, err
	}
	rec, err := EntityToRecord(row)
	if err != nil {
		return domain.Product{}, err
	}
	p, problems := ToDomain(rec, r.normalizer)
	LogProblems(r.logger, p, problems)
	return p, nil
}

// Vendors lists the distinct vendor ids in the catalog.
func (r *CatalogRepository) Vendors(ctx context.Context) ([]string, error) {
	var vendors []string
	err := r.db.WithContext(ctx).
		Model(&catalogEntity.Product{}).
		Distinct("vendor_id").
		Order("vendor_id").
		Pluck("vendor_id", &vendors).Error
	return vendors, err
}

// SaveResult summarises a SaveRecords call.
type SaveResult struct {
	Saved    int
	Skipped  int
	Warnings []string
}

// SaveRecords upserts records in batches. Each product's tiers and stock rows are replaced
// wholesale. Records that fail to convert are skipped with a warning.
func (r *CatalogRepository) SaveRecords(ctx context.Context, records []Record, batchSize int) (SaveResult, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	var res SaveResult
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		entities := make([]catalogEntity.Product, 0, end-start)
		for _, rec := range records[start:end] {
			e, err := RecordToEntity(rec)
			if err != nil {
				res.Skipped++
				res.Warnings = append(res.Warnings, fmt.Sprintf("product %s: %v", rec.ID, err))
				continue
			}
			entities = append(entities, e)
		}
		if len(entities) == 0 {
			continue
		}

		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return saveBatch(tx, entities)
		})
		if err != nil {
			return res, fmt.Errorf("save batch at %d: %w", start, err)
		}
		res.Saved += len(entities)
	}
	return res, nil
}

func saveBatch(tx *gorm.DB, entities []catalogEntity.Product) error {
	ids := make([]string, len(entities))
	var tiers []catalogEntity.TierPrice
	var items []catalogEntity.StockItem
	for i := range entities {
		ids[i] = entities[i].ProductID
		tiers = append(tiers, entities[i].TierPrices...)
		items = append(items, entities[i].StockItems...)
		entities[i].TierPrices = nil
		entities[i].StockItems = nil
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"vendor_id", "name", "description", "category", "base_price", "sale_price", "facets", "variant_keys", "images", "raw_stock", "updated_at"}),
	}).Create(&entities).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&catalogEntity.TierPrice{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id IN ?", ids).Delete(&catalogEntity.StockItem{}).Error; err != nil {
		return err
	}
	if len(tiers) > 0 {
		if err := tx.Create(&tiers).Error; err != nil {
			return err
		}
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// SetStock upserts one stock row. variantKey is empty for scalar stock.
func (r *CatalogRepository) SetStock(ctx context.Context, productID, variantKey string, quantity float64) error {
	item := catalogEntity.StockItem{ProductID: productID, VariantKey: variantKey, Quantity: quantity}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "variant_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(&item).Error
}

// StockInput is one stock row to import. VariantKey is empty for scalar stock.
type StockInput struct {
	ProductID  string  `json:"product_id"`
	VariantKey string  `json:"variant_key"`
	Quantity   float64 `json:"quantity"`
}

// StockImportResult summarises an ImportStock call.
type StockImportResult struct {
	Imported int
	Skipped  int
	Warnings []string
}

// ImportStock upserts stock rows for products of vendorID in one transaction. Rows naming
// a product the vendor does not own, or a negative quantity, are skipped with a warning.
//
// A product keeps one stock shape. A keyed row arriving for a product stored as a scalar
// count first splits that count over the declared variant keys, then replaces it. A scalar
// row arriving for a product with keyed rows replaces all of them.
func (r *CatalogRepository) ImportStock(ctx context.Context, vendorID string, items []StockInput) (StockImportResult, error) {
	var res StockImportResult
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var owned []catalogEntity.Product
	err := r.db.WithContext(ctx).
		Preload("StockItems").
		Where("vendor_id = ? AND product_id IN ?", vendorID, ids).
		Find(&owned).Error
	if err != nil {
		return res, fmt.Errorf("import stock %s: %w", vendorID, err)
	}
	known := make(map[string]catalogEntity.Product, len(owned))
	for _, p := range owned {
		known[p.ProductID] = p
	}

	type rowKey struct{ product, variant string }
	upserts := make(map[rowKey]float64)
	var order []rowKey
	set := func(k rowKey, qty float64) {
		if _, ok := upserts[k]; !ok {
			order = append(order, k)
		}
		upserts[k] = qty
	}
	var dropScalar, dropKeyed []string
	reshaped := make(map[string]bool)

	for _, it := range items {
		p, ok := known[it.ProductID]
		switch {
		case !ok:
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("product %s: not in vendor %s", it.ProductID, vendorID))
			continue
		case it.Quantity < 0:
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("product %s: negative quantity %v", it.ProductID, it.Quantity))
			continue
		}

		scalar, keyed := stockShape(p.StockItems)
		if !reshaped[p.ProductID] {
			switch {
			case it.VariantKey != "" && scalar:
				reshaped[p.ProductID] = true
				dropScalar = append(dropScalar, p.ProductID)
				seeded := r.seedVariants(p)
				for _, key := range sortedKeys(seeded) {
					set(rowKey{p.ProductID, key}, float64(seeded[key]))
				}
				if len(seeded) == 0 {
					res.Warnings = append(res.Warnings, fmt.Sprintf("product %s: scalar stock replaced by variant rows", p.ProductID))
				}
			case it.VariantKey == "" && keyed:
				reshaped[p.ProductID] = true
				dropKeyed = append(dropKeyed, p.ProductID)
				res.Warnings = append(res.Warnings, fmt.Sprintf("product %s: variant rows replaced by a scalar count", p.ProductID))
			}
		}
		set(rowKey{it.ProductID, it.VariantKey}, it.Quantity)
		res.Imported++
	}
	if len(order) == 0 {
		return res, nil
	}

	rows := make([]catalogEntity.StockItem, 0, len(order))
	for _, k := range order {
		rows = append(rows, catalogEntity.StockItem{ProductID: k.product, VariantKey: k.variant, Quantity: upserts[k]})
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(dropScalar) > 0 {
			if err := tx.Where("product_id IN ? AND variant_key = ?", dropScalar, "").Delete(&catalogEntity.StockItem{}).Error; err != nil {
				return err
			}
		}
		if len(dropKeyed) > 0 {
			if err := tx.Where("product_id IN ? AND variant_key <> ?", dropKeyed, "").Delete(&catalogEntity.StockItem{}).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "variant_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
		}).Create(&rows).Error
	})
	if err != nil {
		res.Imported = 0
		return res, fmt.Errorf("import stock %s: %w", vendorID, err)
	}
	return res, nil
}

// stockShape reports whether the stored rows are a scalar count or keyed variant rows.
func stockShape(items []catalogEntity.StockItem) (scalar, keyed bool) {
	for _, it := range items {
		if it.VariantKey == "" {
			scalar = true
		} else {
			keyed = true
		}
	}
	return scalar && !keyed, keyed
}

// seedVariants resolves a scalar product's stock the way reads do, so the declared keys keep
// their share once the scalar row is gone. It is empty when the product has no variant keys.
func (r *CatalogRepository) seedVariants(p catalogEntity.Product) map[string]int {
	rec, err := EntityToRecord(p)
	if err != nil {
		return nil
	}
	st, _ := r.normalizer.Normalize(stock.Input{
		ProductID:   rec.ID,
		Category:    rec.Category,
		VariantKeys: rec.VariantKeys,
		Raw:         rec.Stock,
	})
	if !st.IsVariant() {
		return nil
	}
	return st.Variants()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
