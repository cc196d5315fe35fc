package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// StockKind tags which representation a Stock value carries.
type StockKind uint8

const (
	StockScalar StockKind = iota
	StockVariant
)

func (k StockKind) String() string {
	if k == StockVariant {
		return "variant"
	}
	return "scalar"
}

// Stock is either a single count or a per-variant count map (e.g. per clothing size).
// Values are resolved once at ingestion; callers never inspect the raw source shape.
type Stock struct {
	kind     StockKind
	count    int
	variants map[string]int
}

// ScalarStock returns a single-count stock value. Negative counts are stored as 0.
func ScalarStock(n int) Stock {
	if n < 0 {
		n = 0
	}
	return Stock{kind: StockScalar, count: n}
}

// VariantStock returns a per-variant stock value. The map is copied.
func VariantStock(m map[string]int) Stock {
	variants := make(map[string]int, len(m))
	for k, v := range m {
		if v < 0 {
			v = 0
		}
		variants[k] = v
	}
	return Stock{kind: StockVariant, variants: variants}
}

func (s Stock) Kind() StockKind { return s.kind }

func (s Stock) IsVariant() bool { return s.kind == StockVariant }

// Count returns the scalar count; zero for variant stock.
func (s Stock) Count() int {
	if s.kind == StockVariant {
		return 0
	}
	return s.count
}

// Total sums stock across every variant, or returns the scalar count.
func (s Stock) Total() int {
	if s.kind != StockVariant {
		return s.count
	}
	total := 0
	for _, v := range s.variants {
		total += v
	}
	return total
}

// Available returns the units available for a variant key. Scalar stock ignores the key;
// variant stock returns 0 for an unknown key.
func (s Stock) Available(variantKey string) int {
	if s.kind != StockVariant {
		return s.count
	}
	return s.variants[variantKey]
}

// Variants returns a copy of the per-variant map (nil for scalar stock).
func (s Stock) Variants() map[string]int {
	if s.kind != StockVariant {
		return nil
	}
	out := make(map[string]int, len(s.variants))
	for k, v := range s.variants {
		out[k] = v
	}
	return out
}

// VariantKeys returns the variant keys in lexical order.
func (s Stock) VariantKeys() []string {
	if s.kind != StockVariant {
		return nil
	}
	keys := make([]string, 0, len(s.variants))
	for k := range s.variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two stock values carry the same representation and counts.
func (s Stock) Equal(o Stock) bool {
	if s.kind != o.kind {
		return false
	}
	if s.kind != StockVariant {
		return s.count == o.count
	}
	if len(s.variants) != len(o.variants) {
		return false
	}
	for k, v := range s.variants {
		if ov, ok := o.variants[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (s Stock) String() string {
	if s.kind != StockVariant {
		return fmt.Sprintf("Scalar(%d)", s.count)
	}
	return fmt.Sprintf("Variant(%v)", s.variants)
}

// MarshalJSON encodes scalar stock as a number and variant stock as an object.
func (s Stock) MarshalJSON() ([]byte, error) {
	if s.kind == StockVariant {
		return json.Marshal(s.variants)
	}
	return json.Marshal(s.count)
}

// UnmarshalJSON accepts the shapes produced by MarshalJSON. Anything else is rejected;
// lenient decoding of source payloads belongs to the stock normalizer.
func (s *Stock) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = ScalarStock(n)
		return nil
	}
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("stock: unsupported json %s", string(data))
	}
	*s = VariantStock(m)
	return nil
}
