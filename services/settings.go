package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rentbook-backend/models"
	"rentbook-backend/rental"
	"rentbook-backend/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SettingsService reads tenant settings through an optional Redis cache.
type SettingsService struct {
	store repository.Store
	cache *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewSettingsService(store repository.Store, cache *redis.Client, ttl time.Duration, log *zap.Logger) *SettingsService {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SettingsService{store: store, cache: cache, ttl: ttl, log: log}
}

func settingCacheKey(tenantID uint, key string) string {
	return fmt.Sprintf("rentbook:settings:%d:%s", tenantID, key)
}

// Get returns the value of key for tenantID, or def when unset.
func (s *SettingsService) Get(ctx context.Context, tx repository.Tx, tenantID uint, key, def string) (string, error) {
	ck := settingCacheKey(tenantID, key)
	if s.cache != nil {
		v, err := s.cache.Get(ctx, ck).Result()
		if err == nil {
			return v, nil
		}
		if err != redis.Nil {
			s.log.Warn("settings cache read failed", zap.String("key", ck), zap.Error(err))
		}
	}

	v, ok, err := tx.GetSetting(ctx, tenantID, key)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, ck, v, s.ttl).Err(); err != nil {
			s.log.Warn("settings cache write failed", zap.String("key", ck), zap.Error(err))
		}
	}
	return v, nil
}

// Int is Get for numeric settings; unparsable values fall back to def.
func (s *SettingsService) Int(ctx context.Context, tx repository.Tx, tenantID uint, key string, def int) (int, error) {
	v, err := s.Get(ctx, tx, tenantID, key, "")
	if err != nil || v == "" {
		return def, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		s.log.Warn("non-numeric setting", zap.Uint("tenant_id", tenantID), zap.String("key", key), zap.String("value", v))
		return def, nil
	}
	return n, nil
}

func (s *SettingsService) List(ctx context.Context, scope rental.Scope) (map[string]string, error) {
	if scope.TenantID == 0 {
		return nil, rental.Validation("tenant context required")
	}
	out := map[string]string{}
	err := s.store.Atomic(ctx, func(tx repository.Tx) error {
		rows, err := tx.ListSettings(ctx, scope.TenantID)
		if err != nil {
			return err
		}
		for _, r := range rows {
			out[r.Key] = r.Value
		}
		return nil
	})
	return out, err
}

// Put upserts values and drops their cache entries.
func (s *SettingsService) Put(ctx context.Context, scope rental.Scope, values map[string]string) (map[string]string, error) {
	if scope.TenantID == 0 {
		return nil, rental.Validation("tenant context required")
	}
	for k, v := range values {
		if err := validateSetting(k, v); err != nil {
			return nil, err
		}
	}
	err := s.store.Atomic(ctx, func(tx repository.Tx) error {
		for k, v := range values {
			if err := tx.PutSetting(ctx, scope.TenantID, k, strings.TrimSpace(v)); err != nil {
				return err
			}
		}
		return recordActivity(ctx, tx, scope, scope.TenantID, "update", "settings", 0,
			"settings updated", values)
	})
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, settingCacheKey(scope.TenantID, k))
		}
		if err := s.cache.Del(ctx, keys...).Err(); err != nil {
			s.log.Warn("settings cache invalidation failed", zap.Error(err))
		}
	}
	return s.List(ctx, scope)
}

func validateSetting(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 64 {
		return rental.Validation("invalid setting key %q", key)
	}
	switch key {
	case models.SettingInvoiceDueDays:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return rental.Validation("%s must be a non-negative integer", key)
		}
	case models.SettingBookingPrefix, models.SettingInvoicePrefix, models.SettingPaymentPrefix:
		v := strings.TrimSpace(value)
		if v == "" || len(v) > 10 || strings.ContainsAny(v, " -") {
			return rental.Validation("%s must be 1-10 characters without spaces or dashes", key)
		}
	}
	return nil
}
