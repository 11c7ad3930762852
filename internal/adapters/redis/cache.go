package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func bookingLockKey(propertyID int64) string {
	return "booklock:" + strconv.FormatInt(propertyID, 10)
}

// AcquireBookingLock serializes create attempts for one property. The TTL is a
// crash guard; callers release explicitly after commit or rollback.
func (c *Cache) AcquireBookingLock(ctx context.Context, propertyID int64, ttl time.Duration) (bool, error) {
	res := c.client.SetNX(ctx, bookingLockKey(propertyID), "1", ttl)
	return res.Val(), res.Err()
}

func (c *Cache) ReleaseBookingLock(ctx context.Context, propertyID int64) error {
	return c.client.Del(ctx, bookingLockKey(propertyID)).Err()
}
