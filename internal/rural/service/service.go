// Package service implements the rural-ZIP classifier consumed by lead
// scoring. Lookups read through a redis cache into the postgres RUCA
// reference table; cache failures fall back to the table.
package service

import (
	"context"
	"strings"
	"time"

	"medleads_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// RUCA codes 4-10 are rural per the USDA classification.
const ruralRUCAThreshold = 4

const (
	cacheKeyPrefix  = "ruca:zip:"
	defaultCacheTTL = 24 * time.Hour
)

// CodeStore is the reference-table lookup, implemented by
// internal/rural/repository.
type CodeStore interface {
	GetRUCACode(ctx context.Context, zip string) (int, bool, error)
}

type Service struct {
	store    CodeStore
	redis    *redis.Client
	cacheTTL time.Duration
	log      *logger.Logger
}

// New creates the classifier. The redis client is optional; without it
// every lookup hits the reference table.
func New(store CodeStore, rdb *redis.Client, cacheTTL time.Duration, log *logger.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Service{store: store, redis: rdb, cacheTTL: cacheTTL, log: log}
}

// IsRural reports whether the ZIP's RUCA code classifies it as rural.
// ZIPs absent from the reference table are non-rural: an unknown area must
// never promote a lead into the A tiers.
func (s *Service) IsRural(ctx context.Context, zip string) (bool, error) {
	normalized := normalizeZip(zip)
	if normalized == "" {
		return false, nil
	}

	if cached, ok := s.cacheGet(ctx, normalized); ok {
		return cached, nil
	}

	code, found, err := s.store.GetRUCACode(ctx, normalized)
	if err != nil {
		return false, err
	}

	rural := found && code >= ruralRUCAThreshold
	s.cacheSet(ctx, normalized, rural)

	return rural, nil
}

func (s *Service) cacheGet(ctx context.Context, zip string) (bool, bool) {
	if s.redis == nil {
		return false, false
	}

	value, err := s.redis.Get(ctx, cacheKeyPrefix+zip).Result()
	if err != nil {
		if err != redis.Nil && s.log != nil {
			s.log.Warn("rural cache read failed", "zip", zip, "error", err)
		}
		return false, false
	}

	return value == "1", true
}

func (s *Service) cacheSet(ctx context.Context, zip string, rural bool) {
	if s.redis == nil {
		return
	}

	value := "0"
	if rural {
		value = "1"
	}

	if err := s.redis.Set(ctx, cacheKeyPrefix+zip, value, s.cacheTTL).Err(); err != nil && s.log != nil {
		s.log.Warn("rural cache write failed", "zip", zip, "error", err)
	}
}

// normalizeZip reduces ZIP+4 forms to the five-digit ZIP the reference
// table is keyed by.
func normalizeZip(zip string) string {
	trimmed := strings.TrimSpace(zip)
	if idx := strings.IndexByte(trimmed, '-'); idx > 0 {
		trimmed = trimmed[:idx]
	}
	if len(trimmed) > 5 {
		trimmed = trimmed[:5]
	}
	return trimmed
}
