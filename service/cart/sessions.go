package cart

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront.GO/core/cache"
	"storefront.GO/core/logging"
	"storefront.GO/service/pricing"
)

// DefaultSessionTTL is how long an idle cart survives.
const DefaultSessionTTL = 2 * time.Hour

// Sessions hands out one Ledger per session id. Idle ledgers expire after the TTL; each
// access extends it.
type Sessions struct {
	store    *cache.Cache
	ttl      time.Duration
	resolver *pricing.Resolver
	sink     EventSink
	logger   *zap.Logger

	mu sync.Mutex
}

func NewSessions(store *cache.Cache, ttl time.Duration, sink EventSink, logger *zap.Logger) *Sessions {
	if store == nil {
		store = cache.NewCache()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger = logging.OrNop(logger)
	return &Sessions{
		store:    store,
		ttl:      ttl,
		resolver: pricing.NewResolver(logger),
		sink:     sink,
		logger:   logger,
	}
}

func sessionKey(id string) string { return cache.CompositeKey("cart", id) }

// Get returns the session's ledger, creating an empty one on first use.
func (s *Sessions) Get(id string) *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey(id)
	if v, ok := s.store.Get(key); ok {
		l := v.(*Ledger)
		s.store.Set(key, l, s.ttl, nil)
		return l
	}
	l := NewLedger(Options{ID: id, Resolver: s.resolver, Sink: s.sink, Logger: s.logger})
	s.store.Set(key, l, s.ttl, nil)
	s.logger.Debug("cart session opened", zap.String("ledgerId", id))
	return l
}

// Peek returns the session's ledger without creating or extending it.
func (s *Sessions) Peek(id string) (*Ledger, bool) {
	v, ok := s.store.Get(sessionKey(id))
	if !ok {
		return nil, false
	}
	return v.(*Ledger), true
}

// Drop forgets the session.
func (s *Sessions) Drop(id string) {
	s.store.Delete(sessionKey(id))
}
