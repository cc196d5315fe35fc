package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"storefront.GO/model/domain"
	catalogEntity "storefront.GO/model/entity/catalog"
	"storefront.GO/service/pricing"
	"storefront.GO/service/stock"
)

// Record is a loosely typed product as it arrives from import files, the search index or a
// database row. Stock stays raw until the normalizer resolves it.
type Record struct {
	ID          string                 `json:"id"`
	VendorID    string                 `json:"vendor_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	BasePrice   float64                `json:"base_price"`
	SalePrice   *float64               `json:"sale_price"`
	Stock       interface{}            `json:"stock"`
	VariantKeys []string               `json:"variant_keys"`
	Tiers       []TierRecord           `json:"tiers"`
	Facets      map[string]interface{} `json:"facets"`
	Images      []string               `json:"images"`
	CreatedAt   time.Time              `json:"created_at"`
}

// TierRecord is one pricing tier of a Record.
type TierRecord struct {
	MinQuantity int     `json:"min_quantity"`
	MaxQuantity *int    `json:"max_quantity"`
	Price       float64 `json:"price"`
}

// recordAliases maps the field spellings seen in vendor feeds onto Record's.
var recordAliases = map[string]string{
	"product_id":    "id",
	"productId":     "id",
	"vendorId":      "vendor_id",
	"price":         "base_price",
	"basePrice":     "base_price",
	"salePrice":     "sale_price",
	"special_price": "sale_price",
	"inventory":     "stock",
	"sizes":         "variant_keys",
	"variantKeys":   "variant_keys",
	"pricingTiers":  "tiers",
	"pricing_tiers": "tiers",
	"tier_prices":   "tiers",
	"createdAt":     "created_at",
	"minQuantity":   "min_quantity",
	"maxQuantity":   "max_quantity",
}

var facetAliases = map[string]string{
	"dietaryType":  "dietary",
	"dietary_type": "dietary",
	"spiceLevel":   "spice_level",
	"size":         "sizes",
	"color":        "colors",
}

func numberToStringHook() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t.Kind() != reflect.String {
			return data, nil
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return fmt.Sprint(data), nil
		}
		return data, nil
	}
}

func jsonNumberHook() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		n, ok := data.(json.Number)
		if !ok {
			return data, nil
		}
		switch t.Kind() {
		case reflect.Int, reflect.Int64, reflect.Int32:
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
			fv, err := n.Float64()
			return int64(fv), err
		case reflect.Float64, reflect.Float32:
			return n.Float64()
		case reflect.String:
			return n.String(), nil
		}
		return data, nil
	}
}

func timeHook() mapstructure.DecodeHookFunc {
	timeType := reflect.TypeOf(time.Time{})
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != timeType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return time.Time{}, nil
			}
			for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
				if ts, err := time.Parse(layout, v); err == nil {
					return ts, nil
				}
			}
			return nil, fmt.Errorf("unparsable time %q", v)
		case float64:
			return time.Unix(int64(v), 0).UTC(), nil
		case int64:
			return time.Unix(v, 0).UTC(), nil
		}
		return data, nil
	}
}

var recordDecodeHook = mapstructure.ComposeDecodeHookFunc(
	jsonNumberHook(),
	numberToStringHook(),
	timeHook(),
)

func aliased(raw map[string]interface{}, aliases map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if canonical, ok := aliases[k]; ok {
			if _, exists := raw[canonical]; exists {
				continue
			}
			k = canonical
		}
		out[k] = v
	}
	return out
}

// DecodeRecord turns a generic JSON object into a Record. Stock is kept as-is.
func DecodeRecord(raw map[string]interface{}) (Record, error) {
	raw = aliased(raw, recordAliases)
	if tiers, ok := raw["tiers"].([]interface{}); ok {
		fixed := make([]interface{}, 0, len(tiers))
		for _, t := range tiers {
			if m, ok := t.(map[string]interface{}); ok {
				fixed = append(fixed, aliased(m, recordAliases))
				continue
			}
			fixed = append(fixed, t)
		}
		raw["tiers"] = fixed
	}

	var rec Record
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       recordDecodeHook,
		Result:           &rec,
	})
	if err != nil {
		return Record{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Record{}, fmt.Errorf("decode product record: %w", err)
	}
	rec.Stock = raw["stock"]
	if strings.TrimSpace(rec.ID) == "" {
		return Record{}, fmt.Errorf("decode product record: missing id")
	}
	return rec, nil
}

// DecodeFacets maps a facet object onto domain.Facets. Keys without a dedicated field land in
// Extra.
func DecodeFacets(raw map[string]interface{}) (domain.Facets, error) {
	var f domain.Facets
	if len(raw) == 0 {
		return f, nil
	}
	raw = aliased(raw, facetAliases)
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       recordDecodeHook,
		Metadata:         &md,
		Result:           &f,
	})
	if err != nil {
		return f, err
	}
	if err := dec.Decode(raw); err != nil {
		return f, fmt.Errorf("decode facets: %w", err)
	}
	for _, key := range md.Unused {
		if f.Extra == nil {
			f.Extra = make(map[string]string)
		}
		if _, set := f.Extra[key]; !set {
			f.Extra[key] = fmt.Sprint(raw[key])
		}
	}
	return f, nil
}

// ToDomain resolves a Record into a domain product, normalizing its stock. The normalizer
// logs stock repairs itself; the returned problems cover facets and pricing tiers and are
// left for the caller to log, see LogProblems.
func ToDomain(rec Record, normalizer *stock.Normalizer) (domain.Product, []string) {
	st, _ := normalizer.Normalize(stock.Input{
		ProductID:   rec.ID,
		Category:    rec.Category,
		VariantKeys: rec.VariantKeys,
		Raw:         rec.Stock,
	})
	var problems []string
	facets, err := DecodeFacets(rec.Facets)
	if err != nil {
		problems = append(problems, err.Error())
	}
	if len(facets.Sizes) == 0 && len(rec.VariantKeys) > 0 {
		facets.Sizes = append([]string(nil), rec.VariantKeys...)
	}

	tiers := make([]domain.PricingTier, 0, len(rec.Tiers))
	for _, t := range rec.Tiers {
		tiers = append(tiers, domain.PricingTier{MinQuantity: t.MinQuantity, MaxQuantity: t.MaxQuantity, Price: t.Price})
	}
	problems = append(problems, pricing.Audit(tiers)...)
	return domain.Product{
		ID:          rec.ID,
		VendorID:    rec.VendorID,
		Name:        rec.Name,
		Description: rec.Description,
		Category:    rec.Category,
		BasePrice:   rec.BasePrice,
		SalePrice:   rec.SalePrice,
		Stock:       st,
		Tiers:       tiers,
		Facets:      facets,
		Images:      rec.Images,
		CreatedAt:   rec.CreatedAt,
	}, problems
}

// LogProblems writes the problems ToDomain returned for p.
func LogProblems(logger *zap.Logger, p domain.Product, problems []string) {
	for _, msg := range problems {
		logger.Warn("catalog record integrity",
			zap.String("vendorId", p.VendorID),
			zap.String("productId", p.ID),
			zap.String("problem", msg),
		)
	}
}

func decodeJSON(data datatypes.JSON, into interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 || string(data) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(into)
}

func encodeJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// EntityToRecord reads a catalog_product row with its tiers and stock items. Stock item rows
// win over the raw_stock column: a single empty-key row is a scalar count, keyed rows are a
// per-variant map.
func EntityToRecord(e catalogEntity.Product) (Record, error) {
	rec := Record{
		ID:          e.ProductID,
		VendorID:    e.VendorID,
		Name:        e.Name,
		Description: e.Description,
		Category:    e.Category,
		BasePrice:   e.BasePrice,
		SalePrice:   e.SalePrice,
		CreatedAt:   e.CreatedAt,
	}
	if err := decodeJSON(e.VariantKeys, &rec.VariantKeys); err != nil {
		return rec, fmt.Errorf("product %s variant_keys: %w", e.ProductID, err)
	}
	if err := decodeJSON(e.Images, &rec.Images); err != nil {
		return rec, fmt.Errorf("product %s images: %w", e.ProductID, err)
	}
	if err := decodeJSON(e.Facets, &rec.Facets); err != nil {
		return rec, fmt.Errorf("product %s facets: %w", e.ProductID, err)
	}

	sort.SliceStable(e.TierPrices, func(i, j int) bool { return e.TierPrices[i].MinQty < e.TierPrices[j].MinQty })
	for _, t := range e.TierPrices {
		rec.Tiers = append(rec.Tiers, TierRecord{MinQuantity: t.MinQty, MaxQuantity: t.MaxQty, Price: t.Value})
	}

	switch {
	case len(e.StockItems) == 1 && e.StockItems[0].VariantKey == "":
		rec.Stock = e.StockItems[0].Quantity
	case len(e.StockItems) > 0:
		variants := make(map[string]interface{}, len(e.StockItems))
		for _, item := range e.StockItems {
			if item.VariantKey == "" {
				continue
			}
			variants[item.VariantKey] = item.Quantity
		}
		rec.Stock = variants
	default:
		var raw interface{}
		if err := decodeJSON(e.RawStock, &raw); err != nil {
			return rec, fmt.Errorf("product %s raw_stock: %w", e.ProductID, err)
		}
		rec.Stock = raw
	}
	return rec, nil
}

// RecordToEntity builds the rows that persist rec. Stock payloads that are plain numbers or
// key->count maps become stock item rows; anything else is stored raw.
func RecordToEntity(rec Record) (catalogEntity.Product, error) {
	e := catalogEntity.Product{
		ProductID:   rec.ID,
		VendorID:    rec.VendorID,
		Name:        rec.Name,
		Description: rec.Description,
		Category:    rec.Category,
		BasePrice:   rec.BasePrice,
		SalePrice:   rec.SalePrice,
		CreatedAt:   rec.CreatedAt,
	}
	var err error
	if e.Facets, err = encodeJSON(nilIfEmptyMap(rec.Facets)); err != nil {
		return e, err
	}
	if e.VariantKeys, err = encodeJSON(nilIfEmptySlice(rec.VariantKeys)); err != nil {
		return e, err
	}
	if e.Images, err = encodeJSON(nilIfEmptySlice(rec.Images)); err != nil {
		return e, err
	}
	for _, t := range rec.Tiers {
		e.TierPrices = append(e.TierPrices, catalogEntity.TierPrice{ProductID: rec.ID, MinQty: t.MinQuantity, MaxQty: t.MaxQuantity, Value: t.Price})
	}

	if qty, ok := plainCount(rec.Stock); ok {
		e.StockItems = []catalogEntity.StockItem{{ProductID: rec.ID, Quantity: qty}}
		return e, nil
	}
	if m, ok := rec.Stock.(map[string]interface{}); ok {
		items := make([]catalogEntity.StockItem, 0, len(m))
		for key, v := range m {
			qty, ok := plainCount(v)
			if !ok {
				items = nil
				break
			}
			items = append(items, catalogEntity.StockItem{ProductID: rec.ID, VariantKey: key, Quantity: qty})
		}
		if items != nil {
			sort.Slice(items, func(i, j int) bool { return items[i].VariantKey < items[j].VariantKey })
			e.StockItems = items
			return e, nil
		}
	}
	e.RawStock, err = encodeJSON(rec.Stock)
	return e, err
}

func plainCount(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func nilIfEmptyMap(m map[string]interface{}) interface{} {
	if len(m) == 0 {
		return nil
	}
	return m
}

func nilIfEmptySlice(s []string) interface{} {
	if len(s) == 0 {
		return nil
	}
	return s
}
