package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Entity kinds used for per-user invalidation keys.
const (
	KindCustomer = "customers"
	KindItem     = "items"
	KindQuote    = "quotes"
	KindInvoice  = "invoices"
)

// Cache signals list staleness to any read-side consumer by deleting the
// owning user's keys on every write. A nil *Cache (or one built without a
// redis address) is a no-op, so callers never have to branch.
type Cache struct {
	rdb *redis.Client
	log *logrus.Logger
}

func New(addr, password string, db int, log *logrus.Logger) *Cache {
	if addr == "" {
		return &Cache{log: log}
	}
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		log: log,
	}
}

func key(userID uint, kind string) string {
	return fmt.Sprintf("user:%d:%s", userID, kind)
}

// Invalidate drops the user's cached entries for the given kinds.
// Failures are logged, never surfaced: invalidation is advisory.
func (c *Cache) Invalidate(ctx context.Context, userID uint, kinds ...string) {
	if c == nil || c.rdb == nil || len(kinds) == 0 {
		return
	}
	keys := make([]string, 0, len(kinds))
	for _, k := range kinds {
		keys = append(keys, key(userID, k))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil && c.log != nil {
		c.log.WithFields(logrus.Fields{"user_id": userID, "keys": keys}).WithError(err).Warn("cache invalidation failed")
	}
}

// Close releases the underlying client, if any.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
