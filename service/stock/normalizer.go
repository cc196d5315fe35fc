package stock

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
)

// DefaultFallbackPerVariant is assigned to every variant when an even split of a scalar count
// would give each variant nothing. It papers over incomplete source data.
const DefaultFallbackPerVariant = 10

// DefaultVariantCategories lists categories whose stock is tracked per size.
var DefaultVariantCategories = []string{"apparel", "clothing", "fashion", "footwear"}

// Policy decides which categories need per-variant stock.
type Policy struct {
	VariantCategories  []string
	FallbackPerVariant int
}

// DefaultPolicy returns the stock policy used by every storefront surface.
func DefaultPolicy() Policy {
	return Policy{
		VariantCategories:  append([]string(nil), DefaultVariantCategories...),
		FallbackPerVariant: DefaultFallbackPerVariant,
	}
}

// Input is one raw stock payload with the category context needed to interpret it.
type Input struct {
	ProductID   string
	Category    string
	VariantKeys []string
	Raw         interface{}
}

// Warning reports a data-integrity problem that was repaired with a fallback value.
type Warning struct {
	ProductID string
	Variant   string
	Message   string
}

func (w Warning) String() string {
	if w.Variant != "" {
		return fmt.Sprintf("product=%s variant=%s: %s", w.ProductID, w.Variant, w.Message)
	}
	return fmt.Sprintf("product=%s: %s", w.ProductID, w.Message)
}

// Normalizer turns raw stock payloads into domain.Stock values.
type Normalizer struct {
	variantCategories map[string]struct{}
	fallback          int
	logger            *zap.Logger
}

// NewNormalizer builds a Normalizer. A nil logger discards warnings.
func NewNormalizer(policy Policy, logger *zap.Logger) *Normalizer {
	cats := make(map[string]struct{}, len(policy.VariantCategories))
	for _, c := range policy.VariantCategories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			cats[c] = struct{}{}
		}
	}
	fallback := policy.FallbackPerVariant
	if fallback <= 0 {
		fallback = DefaultFallbackPerVariant
	}
	return &Normalizer{
		variantCategories: cats,
		fallback:          fallback,
		logger:            logging.OrNop(logger),
	}
}

// RequiresVariants reports whether category tracks stock per variant.
func (n *Normalizer) RequiresVariants(category string) bool {
	_, ok := n.variantCategories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// Normalize resolves in.Raw into a Stock value. It never fails: malformed counts clamp to 0
// and are reported as warnings, which are also logged.
func (n *Normalizer) Normalize(in Input) (domain.Stock, []Warning) {
	var warnings []Warning
	warn := func(variant, msg string) {
		warnings = append(warnings, Warning{ProductID: in.ProductID, Variant: variant, Message: msg})
	}

	var result domain.Stock
	if variants, ok := asVariantPayload(in.Raw); ok {
		counts := make(map[string]int, len(variants))
		for key, raw := range variants {
			count, msg := toCount(raw)
			if msg != "" {
				warn(key, msg)
			}
			counts[key] = count
		}
		result = domain.VariantStock(counts)
	} else {
		count, msg := toCount(in.Raw)
		if msg != "" {
			warn("", msg)
		}
		result = n.splitIfRequired(in, count, warn)
	}

	for _, w := range warnings {
		n.logger.Warn("stock integrity",
			zap.String("productId", w.ProductID),
			zap.String("variant", w.Variant),
			zap.String("category", in.Category),
			zap.String("problem", w.Message),
		)
	}
	return result, warnings
}

func (n *Normalizer) splitIfRequired(in Input, count int, warn func(string, string)) domain.Stock {
	if !n.RequiresVariants(in.Category) {
		return domain.ScalarStock(count)
	}
	keys := cleanKeys(in.VariantKeys)
	if len(keys) == 0 {
		warn("", fmt.Sprintf("category %q needs variant stock but no variant keys are declared", in.Category))
		return domain.ScalarStock(count)
	}
	return domain.VariantStock(SplitEvenly(count, keys, n.fallback))
}

// SplitEvenly spreads total across keys. Remainder units go to the earliest keys so the
// total is preserved; when the per-key share is zero every key receives fallback instead.
func SplitEvenly(total int, keys []string, fallback int) map[string]int {
	out := make(map[string]int, len(keys))
	if len(keys) == 0 {
		return out
	}
	share := total / len(keys)
	if share <= 0 {
		for _, k := range keys {
			out[k] = fallback
		}
		return out
	}
	rem := total % len(keys)
	for i, k := range keys {
		out[k] = share
		if i < rem {
			out[k]++
		}
	}
	return out
}

func cleanKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// asVariantPayload recognises per-variant shapes: key->count maps and inventory lists of
// {variant_name|key|size, quantity|qty|count} objects.
func asVariantPayload(raw interface{}) (map[string]interface{}, bool) {
	switch v := raw.(type) {
	case domain.Stock:
		if !v.IsVariant() {
			return nil, false
		}
		out := make(map[string]interface{})
		for k, c := range v.Variants() {
			out[k] = c
		}
		return out, true
	case map[string]interface{}:
		return v, true
	case map[string]int:
		out := make(map[string]interface{}, len(v))
		for k, c := range v {
			out[k] = c
		}
		return out, true
	case map[string]float64:
		out := make(map[string]interface{}, len(v))
		for k, c := range v {
			out[k] = c
		}
		return out, true
	case []interface{}:
		out := make(map[string]interface{}, len(v))
		for _, entry := range v {
			m, ok := entry.(map[string]interface{})
			if !ok {
				return nil, false
			}
			key := firstString(m, "variant_name", "key", "size", "variant")
			if key == "" {
				return nil, false
			}
			out[key] = firstValue(m, "quantity", "qty", "count", "stock")
		}
		return out, true
	}
	return nil, false
}

func firstString(m map[string]interface{}, names ...string) string {
	for _, n := range names {
		if s, ok := m[n].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func firstValue(m map[string]interface{}, names ...string) interface{} {
	for _, n := range names {
		if v, ok := m[n]; ok {
			return v
		}
	}
	return nil
}

// toCount converts a raw scalar into a non-negative count. The message is empty when the
// value was usable as-is.
func toCount(raw interface{}) (int, string) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, "missing stock value, using 0"
	case domain.Stock:
		return v.Total(), ""
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float32:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Sprintf("non-numeric stock %q, using 0", v.String())
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Sprintf("non-numeric stock %q, using 0", v)
		}
		f = parsed
	default:
		return 0, fmt.Sprintf("non-numeric stock of type %T, using 0", raw)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "non-finite stock, using 0"
	}
	if f < 0 {
		return 0, fmt.Sprintf("negative stock %v clamped to 0", f)
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, fmt.Sprintf("stock %v exceeds limit, clamped", f)
	}
	return int(f), ""
}
