package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"storefront.GO/model/domain"
)

// Comparator orders two products: negative when a sorts first, zero when equal.
type Comparator func(a, b domain.Product) int

const (
	SortByName      = "name"
	SortByCategory  = "category"
	SortByStock     = "stock"
	SortByPrice     = "price"
	SortByCreatedAt = "createdAt"
)

// Sorter orders products by a SortSpec. Text fields use locale-aware collation.
type Sorter struct {
	locale language.Tag
}

// NewSorter parses locale as a BCP 47 tag; an unparsable tag falls back to English.
func NewSorter(locale string) *Sorter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	return &Sorter{locale: tag}
}

func (s *Sorter) Locale() language.Tag { return s.locale }

// Comparator returns the ascending comparator for field. Collators are not safe for
// concurrent use, so each call builds its own.
func (s *Sorter) Comparator(field string) (Comparator, bool) {
	switch field {
	case SortByName, SortByCategory:
		col := collate.New(s.locale)
		if field == SortByName {
			return func(a, b domain.Product) int { return col.CompareString(a.Name, b.Name) }, true
		}
		return func(a, b domain.Product) int { return col.CompareString(a.Category, b.Category) }, true
	case SortByStock:
		return func(a, b domain.Product) int { return cmp.Compare(a.Stock.Total(), b.Stock.Total()) }, true
	case SortByPrice:
		return func(a, b domain.Product) int { return cmp.Compare(a.DisplayPrice(), b.DisplayPrice()) }, true
	case SortByCreatedAt:
		return func(a, b domain.Product) int { return a.CreatedAt.Compare(b.CreatedAt) }, true
	}
	return nil, false
}

// Sort returns a stably sorted copy of items. Descending order negates the comparator, so
// equal keys keep their input order either way. Unknown fields return the input order.
func (s *Sorter) Sort(items []domain.Product, spec domain.SortSpec) []domain.Product {
	out := slices.Clone(items)
	order, ok := s.Comparator(spec.Field)
	if !ok {
		return out
	}
	if ParseDirection(string(spec.Direction)) == domain.SortDesc {
		asc := order
		order = func(a, b domain.Product) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, order)
	return out
}

// ParseDirection maps "desc" in any case to SortDesc and everything else to SortAsc.
func ParseDirection(raw string) domain.SortDirection {
	if strings.EqualFold(strings.TrimSpace(raw), string(domain.SortDesc)) {
		return domain.SortDesc
	}
	return domain.SortAsc
}
