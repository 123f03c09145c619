package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/UnisoftSistemas/implantei-core/internal/core/domain"
	"github.com/UnisoftSistemas/implantei-core/internal/core/ports"
)

const (
	tenantKeyPrefix = "tenant:"
	tenantListKey   = "tenant:list"
)

// TenantCache is the Redis-backed tenant cache. Entries are JSON documents
// with a TTL; staleness after a mutation is handled by explicit invalidation,
// never by rewriting a cached entry in place.
type TenantCache struct {
	client    *redis.Client
	tenantTTL time.Duration
	listTTL   time.Duration
}

// NewTenantCache wraps the given Redis client. Zero TTLs fall back to an hour
// for single tenants and thirty minutes for the list.
func NewTenantCache(client *redis.Client, tenantTTL, listTTL time.Duration) *TenantCache {
	if tenantTTL <= 0 {
		tenantTTL = time.Hour
	}
	if listTTL <= 0 {
		listTTL = 30 * time.Minute
	}
	return &TenantCache{client: client, tenantTTL: tenantTTL, listTTL: listTTL}
}

func (c *TenantCache) GetTenant(ctx context.Context, id string) (*domain.Tenant, error) {
	raw, err := c.client.Get(ctx, tenantKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get tenant: %w", err)
	}

	var t domain.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		// A corrupt entry behaves like a miss so the caller re-fetches.
		_ = c.client.Del(ctx, tenantKeyPrefix+id).Err()
		return nil, ports.ErrCacheMiss
	}
	return &t, nil
}

func (c *TenantCache) SetTenant(ctx context.Context, t *domain.Tenant) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("cache marshal tenant: %w", err)
	}
	return c.client.Set(ctx, tenantKeyPrefix+t.ID, raw, c.tenantTTL).Err()
}

func (c *TenantCache) InvalidateTenant(ctx context.Context, id string) error {
	return c.client.Del(ctx, tenantKeyPrefix+id).Err()
}

func (c *TenantCache) GetTenantList(ctx context.Context) ([]domain.Tenant, error) {
	raw, err := c.client.Get(ctx, tenantListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get tenant list: %w", err)
	}

	var tenants []domain.Tenant
	if err := json.Unmarshal(raw, &tenants); err != nil {
		_ = c.client.Del(ctx, tenantListKey).Err()
		return nil, ports.ErrCacheMiss
	}
	return tenants, nil
}

func (c *TenantCache) SetTenantList(ctx context.Context, tenants []domain.Tenant) error {
	raw, err := json.Marshal(tenants)
	if err != nil {
		return fmt.Errorf("cache marshal tenant list: %w", err)
	}
	return c.client.Set(ctx, tenantListKey, raw, c.listTTL).Err()
}

func (c *TenantCache) InvalidateTenantList(ctx context.Context) error {
	return c.client.Del(ctx, tenantListKey).Err()
}
