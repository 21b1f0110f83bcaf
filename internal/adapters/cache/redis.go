package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"meetapp/internal/domain"
)

const (
	keyPrefix     = "meetups:upcoming"
	generationKey = keyPrefix + ":gen"
	defaultTTL    = 30 * time.Second
)

// NewRedisClient connects to Redis and pings it with a short timeout.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// meetupListCache stores listing pages under a generation number.
// Invalidate bumps the generation, so older pages become unreachable and
// expire on their own TTL.
type meetupListCache struct {
	client redisClient
	ttl    time.Duration
}

// NewMeetupListCache returns a Redis backed domain.MeetupListCache.
func NewMeetupListCache(client redisClient, ttl time.Duration) domain.MeetupListCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &meetupListCache{client: client, ttl: ttl}
}

func (c *meetupListCache) Get(ctx context.Context, key string) (*domain.MeetupPage, bool, error) {
	full, err := c.key(ctx, key)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", full, err)
	}
	var page domain.MeetupPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", full, err)
	}
	return &page, true, nil
}

func (c *meetupListCache) Set(ctx context.Context, key string, page *domain.MeetupPage, maxAge time.Duration) error {
	full, err := c.key(ctx, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	ttl := c.ttl
	if maxAge > 0 && maxAge < ttl {
		ttl = maxAge
	}
	if err := c.client.Set(ctx, full, raw, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", full, err)
	}
	return nil
}

func (c *meetupListCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump listing generation: %w", err)
	}
	return nil
}

func (c *meetupListCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("get listing generation: %w", err)
	}
	return keyPrefix + ":" + strconv.FormatInt(gen, 10) + ":" + key, nil
}
