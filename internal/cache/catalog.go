package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"profile-service/internal/models"
)

const catalogKey = "profile:badges:catalog"

// CatalogCache holds the badge catalog, which changes only at seed time.
type CatalogCache interface {
	// GetCatalog reports ok=false on a miss.
	GetCatalog(ctx context.Context) (badges []models.Badge, ok bool, err error)
	SetCatalog(ctx context.Context, badges []models.Badge) error
	Invalidate(ctx context.Context) error
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

type cachedBadge struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type redisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) CatalogCache {
	return &redisCatalogCache{client: client, ttl: ttl}
}

func (c *redisCatalogCache) GetCatalog(ctx context.Context) ([]models.Badge, bool, error) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cached []cachedBadge
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("corrupt catalog cache entry: %w", err)
	}
	badges := make([]models.Badge, 0, len(cached))
	for _, b := range cached {
		badges = append(badges, models.Badge{ID: b.ID, Code: b.Code, Name: b.Name, Description: b.Description})
	}
	return badges, true, nil
}

func (c *redisCatalogCache) SetCatalog(ctx context.Context, badges []models.Badge) error {
	cached := make([]cachedBadge, 0, len(badges))
	for _, b := range badges {
		cached = append(cached, cachedBadge{ID: b.ID, Code: b.Code, Name: b.Name, Description: b.Description})
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey, raw, c.ttl).Err()
}

func (c *redisCatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, catalogKey).Err()
}

type noopCatalogCache struct{}

// NewNoopCatalogCache always misses.
func NewNoopCatalogCache() CatalogCache { return noopCatalogCache{} }

func (noopCatalogCache) GetCatalog(context.Context) ([]models.Badge, bool, error) {
	return nil, false, nil
}

func (noopCatalogCache) SetCatalog(context.Context, []models.Badge) error { return nil }

func (noopCatalogCache) Invalidate(context.Context) error { return nil }
