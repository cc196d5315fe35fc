package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront.GO/core/logging"
	"storefront.GO/model/domain"
	catalogService "storefront.GO/service/catalog"
)

// CachedSource is a Redis read-through cache in front of another catalog source. Redis
// failures are logged and fall through to the wrapped source.
type CachedSource struct {
	next   catalogService.Source
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewCachedSource wraps next. A nil client disables caching.
func NewCachedSource(next catalogService.Source, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedSource{next: next, rdb: rdb, ttl: ttl, prefix: "storefront:catalog:", logger: logging.OrNop(logger)}
}

func (s *CachedSource) key(vendorID string) string {
	return s.prefix + vendorID
}

func (s *CachedSource) FetchCatalog(ctx context.Context, vendorID string) ([]domain.Product, error) {
	if s.rdb == nil {
		return s.next.FetchCatalog(ctx, vendorID)
	}

	data, err := s.rdb.Get(ctx, s.key(vendorID)).Bytes()
	switch {
	case err == nil:
		var products []domain.Product
		jerr := json.Unmarshal(data, &products)
		if jerr == nil {
			return products, nil
		}
		s.logger.Warn("catalog cache entry unreadable", zap.String("vendorId", vendorID), zap.Error(jerr))
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("catalog cache read failed", zap.String("vendorId", vendorID), zap.Error(err))
	}

	products, err := s.next.FetchCatalog(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if payload, jerr := json.Marshal(products); jerr == nil {
		if serr := s.rdb.Set(ctx, s.key(vendorID), payload, s.ttl).Err(); serr != nil {
			s.logger.Warn("catalog cache write failed", zap.String("vendorId", vendorID), zap.Error(serr))
		}
	}
	return products, nil
}

// Invalidate drops the cached catalog for vendorID.
func (s *CachedSource) Invalidate(ctx context.Context, vendorID string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, s.key(vendorID)).Err()
}
