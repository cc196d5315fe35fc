package pricing

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
)

// ErrInvalidQuantity is returned when a price is requested for fewer than one unit.
var ErrInvalidQuantity = errors.New("pricing: quantity must be at least 1")

// Resolver picks the unit price a product sells at for an order quantity.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver builds a Resolver that logs malformed tiers to logger (nil discards).
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logging.OrNop(logger)}
}

var defaultResolver = NewResolver(nil)

// Resolve uses a resolver that does not log.
func Resolve(p domain.Product, quantity int) (float64, error) {
	return defaultResolver.Resolve(p, quantity)
}

// Resolve returns the unit price for quantity units of p. Among the tiers whose range
// contains quantity the cheapest wins, ties going to the lowest MinQuantity. Without a
// matching tier the price falls back to the sale price, then the base price.
func (r *Resolver) Resolve(p domain.Product, quantity int) (float64, error) {
	if quantity < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	tiers, problems := ValidTiers(p.Tiers)
	for _, msg := range problems {
		r.logger.Warn("pricing tier ignored",
			zap.String("productId", p.ID),
			zap.String("vendorId", p.VendorID),
			zap.String("problem", msg),
		)
	}

	best, ok := bestTier(tiers, quantity)
	if !ok {
		return p.DisplayPrice(), nil
	}
	return best.Price, nil
}

func bestTier(tiers []domain.PricingTier, quantity int) (domain.PricingTier, bool) {
	var (
		best  domain.PricingTier
		found bool
	)
	for _, t := range tiers {
		if !t.Contains(quantity) {
			continue
		}
		if !found || t.Price < best.Price || (t.Price == best.Price && t.MinQuantity < best.MinQuantity) {
			best = t
			found = true
		}
	}
	return best, found
}

// ValidTiers drops malformed tiers (MinQuantity < 1, MaxQuantity < MinQuantity, negative or
// non-finite price) and describes each dropped tier.
func ValidTiers(tiers []domain.PricingTier) ([]domain.PricingTier, []string) {
	if len(tiers) == 0 {
		return nil, nil
	}
	valid := make([]domain.PricingTier, 0, len(tiers))
	var problems []string
	for i, t := range tiers {
		switch {
		case t.MinQuantity < 1:
			problems = append(problems, fmt.Sprintf("tier %d: min quantity %d below 1", i, t.MinQuantity))
		case t.MaxQuantity != nil && *t.MaxQuantity < t.MinQuantity:
			problems = append(problems, fmt.Sprintf("tier %d: max quantity %d below min %d", i, *t.MaxQuantity, t.MinQuantity))
		case t.Price < 0 || math.IsNaN(t.Price) || math.IsInf(t.Price, 0):
			problems = append(problems, fmt.Sprintf("tier %d: invalid price %v", i, t.Price))
		default:
			valid = append(valid, t)
		}
	}
	return valid, problems
}

// EffectiveTiers returns the usable tier table for p. A product without valid tiers gets a
// single open-ended tier starting at 1 carrying its display price.
func EffectiveTiers(p domain.Product) []domain.PricingTier {
	tiers, _ := ValidTiers(p.Tiers)
	if len(tiers) == 0 {
		return []domain.PricingTier{{MinQuantity: 1, MaxQuantity: nil, Price: p.DisplayPrice()}}
	}
	return tiers
}

// Gaps reports quantity ranges in [1, ∞) that no valid tier covers. An empty result means the
// tiers partition the range. Overlaps are not reported.
func Gaps(tiers []domain.PricingTier) [][2]int {
	valid, _ := ValidTiers(tiers)
	if len(valid) == 0 {
		return nil
	}
	var gaps [][2]int
	next := 1
	for {
		covered := false
		reach := next
		open := false
		for _, t := range valid {
			if t.Contains(next) {
				covered = true
				if t.MaxQuantity == nil {
					open = true
					break
				}
				if *t.MaxQuantity > reach {
					reach = *t.MaxQuantity
				}
			}
		}
		if open {
			return gaps
		}
		if covered {
			if reach == math.MaxInt {
				return gaps
			}
			next = reach + 1
			continue
		}
		start := next
		nextMin := -1
		for _, t := range valid {
			if t.MinQuantity > start && (nextMin == -1 || t.MinQuantity < nextMin) {
				nextMin = t.MinQuantity
			}
		}
		if nextMin == -1 {
			return append(gaps, [2]int{start, -1})
		}
		gaps = append(gaps, [2]int{start, nextMin - 1})
		next = nextMin
	}
}

// Audit describes what is wrong with a tier table: malformed tiers, and quantity ranges
// after the first tier that no tier covers. Quantities below the first tier are expected
// to sell at the display price and are not reported.
func Audit(tiers []domain.PricingTier) []string {
	valid, problems := ValidTiers(tiers)
	if len(valid) == 0 {
		return problems
	}
	first := valid[0].MinQuantity
	for _, t := range valid[1:] {
		if t.MinQuantity < first {
			first = t.MinQuantity
		}
	}
	for _, g := range Gaps(valid) {
		switch {
		case g[1] != -1 && g[1] < first:
			continue
		case g[1] == -1:
			problems = append(problems, fmt.Sprintf("no tier covers quantities from %d", g[0]))
		default:
			problems = append(problems, fmt.Sprintf("no tier covers quantities %d-%d", g[0], g[1]))
		}
	}
	return problems
}
