package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lealre/ratebeer-backend/internal/logx"
	"github.com/redis/go-redis/v9"
)

const itemKeyPrefix = "catalog:item:"

// Cached is a read-through Redis cache in front of another Lookup. Only
// single item lookups are cached. A Redis failure never fails a lookup, the
// call just goes to the underlying Lookup.
type Cached struct {
	next  Lookup
	redis *redis.Client
	ttl   time.Duration
}

func NewCached(next Lookup, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{next: next, redis: client, ttl: ttl}
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func (c *Cached) GetItem(ctx context.Context, itemId int) (Item, error) {
	logger := logx.FromContext(ctx)
	key := itemKey(itemId)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var item Item
		if err := json.Unmarshal(data, &item); err == nil {
			return item, nil
		}
		logger.Printf("catalog cache: dropping undecodable entry %s", key)
	case !errors.Is(err, redis.Nil):
		logger.Printf("catalog cache: get %s: %v", key, err)
	}

	item, err := c.next.GetItem(ctx, itemId)
	if err != nil {
		return Item{}, err
	}

	data, err = json.Marshal(item)
	if err != nil {
		return item, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Printf("catalog cache: set %s: %v", key, err)
	}

	return item, nil
}

func (c *Cached) SearchItems(ctx context.Context, name string, page, perPage int) (SearchResponse, error) {
	return c.next.SearchItems(ctx, name, page, perPage)
}

func itemKey(itemId int) string {
	return fmt.Sprintf("%s%d", itemKeyPrefix, itemId)
}
