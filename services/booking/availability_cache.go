package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const availabilityKeyPrefix = "availability:"

// RedisAvailabilityCache keeps booked time lists in Redis for a short TTL.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(counselorID, date string) string {
	return fmt.Sprintf("%s%s:%s", availabilityKeyPrefix, counselorID, date)
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, counselorID, date string) ([]string, bool, error) {
	val, err := c.client.Get(ctx, availabilityKey(counselorID, date)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var times []string
	if err := json.Unmarshal([]byte(val), &times); err != nil {
		return nil, false, fmt.Errorf("corrupt availability entry: %w", err)
	}
	return times, true, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, counselorID, date string, times []string) error {
	if times == nil {
		times = []string{}
	}
	data, err := json.Marshal(times)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(counselorID, date), data, c.ttl).Err()
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, counselorID, date string) error {
	return c.client.Del(ctx, availabilityKey(counselorID, date)).Err()
}
