package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	dom "github.com/jchyng/todo-list/internal/domain"
)

// TodoCache caches per-owner todo snapshots in Redis: the list-view
// candidate set, calendar window fetches, and search results. Keys are
// namespaced by owner so invalidation never crosses users.
type TodoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(rdb *redis.Client, ttl time.Duration) *TodoCache {
	return &TodoCache{rdb: rdb, ttl: ttl}
}

func ownerPrefix(ownerID int64) string {
	return "todo:" + strconv.FormatInt(ownerID, 10) + ":"
}

func (c *TodoCache) get(ctx context.Context, key string) ([]dom.Todo, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []dom.Todo
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *TodoCache) set(ctx context.Context, key string, list []dom.Todo) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// GetList returns the cached list-view snapshot or nil on miss.
func (c *TodoCache) GetList(ctx context.Context, ownerID int64) ([]dom.Todo, error) {
	return c.get(ctx, ownerPrefix(ownerID)+"list")
}

// SetList stores the list-view snapshot.
func (c *TodoCache) SetList(ctx context.Context, ownerID int64, list []dom.Todo) error {
	return c.set(ctx, ownerPrefix(ownerID)+"list", list)
}

func windowKey(ownerID int64, start, end time.Time) string {
	return ownerPrefix(ownerID) + "window:" +
		strconv.FormatInt(start.Unix(), 10) + "-" + strconv.FormatInt(end.Unix(), 10)
}

// GetWindow returns the cached calendar window fetch or nil on miss.
func (c *TodoCache) GetWindow(ctx context.Context, ownerID int64, start, end time.Time) ([]dom.Todo, error) {
	return c.get(ctx, windowKey(ownerID, start, end))
}

// SetWindow stores a calendar window fetch.
func (c *TodoCache) SetWindow(ctx context.Context, ownerID int64, start, end time.Time, list []dom.Todo) error {
	return c.set(ctx, windowKey(ownerID, start, end), list)
}

// GetSearch returns the cached search result for query q, or nil on miss.
func (c *TodoCache) GetSearch(ctx context.Context, ownerID int64, q string) ([]dom.Todo, error) {
	return c.get(ctx, ownerPrefix(ownerID)+"search:"+normalizeQuery(q))
}

// SetSearch stores a search result.
func (c *TodoCache) SetSearch(ctx context.Context, ownerID int64, q string, list []dom.Todo) error {
	return c.set(ctx, ownerPrefix(ownerID)+"search:"+normalizeQuery(q), list)
}

// InvalidateOwner removes every cached snapshot the owner has (cache
// invalidation on write).
func (c *TodoCache) InvalidateOwner(ctx context.Context, ownerID int64) error {
	iter := c.rdb.Scan(ctx, 0, ownerPrefix(ownerID)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func normalizeQuery(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
