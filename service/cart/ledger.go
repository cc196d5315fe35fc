package cart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
	"storefront.GO/service/pricing"
)

type line struct {
	product  domain.Product
	variant  string
	quantity int
	price    float64
}

func (l *line) view() domain.CartLine {
	return domain.CartLine{
		ProductID:  l.product.ID,
		VariantKey: l.variant,
		Name:       l.product.Name,
		Quantity:   l.quantity,
		UnitPrice:  l.price,
	}
}

// Options configures a Ledger.
type Options struct {
	ID       string
	Resolver *pricing.Resolver
	Sink     EventSink
	Logger   *zap.Logger
	Now      func() time.Time
}

// Ledger is a cart keyed by (product, variant). Every mutation validates first and then
// applies in full under the lock, so readers never see a line without its recomputed price
// or totals that lag the lines. Unit prices are re-resolved for the line's current quantity
// on every change.
type Ledger struct {
	id       string
	resolver *pricing.Resolver
	sink     EventSink
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.RWMutex
	lines map[domain.LineKey]*line
	order []domain.LineKey
}

func NewLedger(opts Options) *Ledger {
	if opts.Resolver == nil {
		opts.Resolver = pricing.NewResolver(opts.Logger)
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ledger{
		id:       opts.ID,
		resolver: opts.Resolver,
		sink:     opts.Sink,
		logger:   logging.OrNop(opts.Logger),
		now:      opts.Now,
		lines:    make(map[domain.LineKey]*line),
	}
}

func (l *Ledger) ID() string { return l.id }

// keyFor drops the variant of products without variant stock so both spellings hit one line.
func keyFor(p domain.Product, variantKey string) domain.LineKey {
	if !p.Stock.IsVariant() {
		variantKey = ""
	}
	return domain.LineKey{ProductID: p.ID, VariantKey: variantKey}
}

// lookupLocked finds the line for key, folding the variant of scalar-stock lines the same way
// keyFor does. Caller holds mu.
func (l *Ledger) lookupLocked(key domain.LineKey) (domain.LineKey, *line, bool) {
	if ln, ok := l.lines[key]; ok {
		return key, ln, true
	}
	if key.VariantKey == "" {
		return key, nil, false
	}
	scalar := domain.LineKey{ProductID: key.ProductID}
	if ln, ok := l.lines[scalar]; ok && !ln.product.Stock.IsVariant() {
		return scalar, ln, true
	}
	return key, nil, false
}

// AddOrIncrement adds delta units of the product's variant, creating the line if needed.
// It fails with ErrOutOfStock when the variant has nothing available and with
// ErrInsufficientStock when the new line total would exceed availability; a failed call
// leaves the ledger unchanged.
func (l *Ledger) AddOrIncrement(p domain.Product, variantKey string, delta int) (domain.CartLine, error) {
	if delta < 1 {
		return domain.CartLine{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, delta)
	}
	key := keyFor(p, variantKey)

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, found := l.lines[key]
	quantity := delta
	if found {
		quantity += existing.quantity
	}
	price, err := l.validate(p, key, quantity)
	if err != nil {
		return domain.CartLine{}, err
	}

	evt := ItemUpdated
	if !found {
		existing = &line{}
		l.lines[key] = existing
		l.order = append(l.order, key)
		evt = ItemAdded
	}
	existing.product = p
	existing.variant = key.VariantKey
	existing.quantity = quantity
	existing.price = price

	view := existing.view()
	l.emitLocked(evt, &view)
	return view, nil
}

// SetQuantity sets a line's quantity. A quantity of zero or less removes the line.
func (l *Ledger) SetQuantity(key domain.LineKey, quantity int) (domain.CartLine, error) {
	if quantity <= 0 {
		l.Remove(key)
		return domain.CartLine{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key, existing, found := l.lookupLocked(key)
	if !found {
		return domain.CartLine{}, fmt.Errorf("%w: %s", ErrLineNotFound, key)
	}
	if existing.quantity == quantity {
		return existing.view(), nil
	}
	price, err := l.validate(existing.product, key, quantity)
	if err != nil {
		return domain.CartLine{}, err
	}
	existing.quantity = quantity
	existing.price = price

	view := existing.view()
	l.emitLocked(ItemUpdated, &view)
	return view, nil
}

// Remove deletes the line if present and reports whether it was.
func (l *Ledger) Remove(key domain.LineKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	key, existing, found := l.lookupLocked(key)
	if !found {
		return false
	}
	view := existing.view()
	delete(l.lines, key)
	for i, k := range l.order {
		if k == key {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			break
		}
	}
	l.emitLocked(ItemRemoved, &view)
	return true
}

// Clear empties the ledger.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) == 0 {
		return
	}
	l.lines = make(map[domain.LineKey]*line)
	l.order = nil
	l.emitLocked(LedgerCleared, nil)
}

// Reprice refreshes every line against the current product records, re-resolving unit
// prices. Lines whose product is gone or whose quantity no longer fits the stock are left as
// they were and reported in the joined error.
func (l *Ledger) Reprice(lookup func(productID string) (domain.Product, bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	changed := false
	for _, key := range l.order {
		ln := l.lines[key]
		p, ok := lookup(key.ProductID)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingProduct, key))
			continue
		}
		price, err := l.validate(p, key, ln.quantity)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if price != ln.price || ln.product.Name != p.Name {
			changed = true
		}
		ln.product = p
		ln.price = price
	}
	if changed {
		l.emitLocked(TotalsChanged, nil)
	}
	return errors.Join(errs...)
}

// validate checks stock for quantity units and resolves the unit price. Caller holds mu.
func (l *Ledger) validate(p domain.Product, key domain.LineKey, quantity int) (float64, error) {
	available := p.Stock.Available(key.VariantKey)
	if available <= 0 || quantity > available {
		return 0, stockError(key, quantity, available)
	}
	price, err := l.resolver.Resolve(p, quantity)
	if err != nil {
		return 0, err
	}
	return price, nil
}

// Lines returns the active lines in the order they were first added.
func (l *Ledger) Lines() []domain.CartLine {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.linesLocked()
}

func (l *Ledger) linesLocked() []domain.CartLine {
	out := make([]domain.CartLine, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.lines[key].view())
	}
	return out
}

// Line returns one line by key.
func (l *Ledger) Line(key domain.LineKey) (domain.CartLine, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ln, ok := l.lines[key]
	if !ok {
		return domain.CartLine{}, false
	}
	return ln.view(), true
}

// Total is the exact sum of quantity × unit price.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalLocked()
}

func (l *Ledger) totalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, ln := range l.lines {
		total = total.Add(decimal.NewFromFloat(ln.price).Mul(decimal.NewFromInt(int64(ln.quantity))))
	}
	return total
}

// TotalPrice is Total as a float for presentation.
func (l *Ledger) TotalPrice() float64 {
	return l.Total().InexactFloat64()
}

// ItemCount is the sum of line quantities.
func (l *Ledger) ItemCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.countLocked()
}

func (l *Ledger) countLocked() int {
	n := 0
	for _, ln := range l.lines {
		n += ln.quantity
	}
	return n
}

// Len counts active lines.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

// Snapshot returns the lines and totals as one consistent view.
func (l *Ledger) Snapshot() domain.LedgerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return domain.LedgerSnapshot{
		Lines:      l.linesLocked(),
		TotalPrice: l.totalLocked().InexactFloat64(),
		ItemCount:  l.countLocked(),
	}
}

// emitLocked publishes evt and the follow-up TotalsChanged. Caller holds mu, which keeps
// events in mutation order; sinks must not block.
func (l *Ledger) emitLocked(evt EventType, ln *domain.CartLine) {
	total := l.totalLocked().InexactFloat64()
	count := l.countLocked()
	at := l.now()
	l.sink.Publish(Event{Type: evt, LedgerID: l.id, Line: ln, TotalPrice: total, ItemCount: count, At: at})
	if evt != TotalsChanged {
		l.sink.Publish(Event{Type: TotalsChanged, LedgerID: l.id, TotalPrice: total, ItemCount: count, At: at})
	}
	l.logger.Debug("cart mutated",
		zap.String("ledgerId", l.id),
		zap.String("event", string(evt)),
		zap.Float64("total", total),
		zap.Int("items", count),
	)
}
