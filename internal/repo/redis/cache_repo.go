package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

const (
	organizationCachePrefix = "cache:organization:"
	defaultCacheTTL         = 5 * time.Minute
)

// CacheRepo keeps JSON snapshots of organizations read by id.
type CacheRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCacheRepo(client *goredis.Client, ttl time.Duration) *CacheRepo {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CacheRepo{client: client, ttl: ttl}
}

// GetOrganization reports false on a miss.
func (r *CacheRepo) GetOrganization(ctx context.Context, id uuid.UUID) (model.Organization, bool, error) {
	if r.client == nil {
		return model.Organization{}, false, nil
	}

	raw, err := r.client.Get(ctx, organizationCacheKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.Organization{}, false, nil
	}
	if err != nil {
		return model.Organization{}, false, fmt.Errorf("get cached organization: %w", err)
	}

	var org model.Organization
	if err := json.Unmarshal(raw, &org); err != nil {
		_ = r.client.Del(ctx, organizationCacheKey(id)).Err()
		return model.Organization{}, false, fmt.Errorf("decode cached organization: %w", err)
	}
	return org, true, nil
}

func (r *CacheRepo) SetOrganization(ctx context.Context, org model.Organization) error {
	if r.client == nil {
		return nil
	}
	raw, err := json.Marshal(org)
	if err != nil {
		return fmt.Errorf("encode organization: %w", err)
	}
	if err := r.client.Set(ctx, organizationCacheKey(org.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache organization: %w", err)
	}
	return nil
}

func (r *CacheRepo) InvalidateOrganization(ctx context.Context, id uuid.UUID) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, organizationCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate organization: %w", err)
	}
	return nil
}

func organizationCacheKey(id uuid.UUID) string {
	return organizationCachePrefix + id.String()
}
