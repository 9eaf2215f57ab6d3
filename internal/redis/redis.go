package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

// ErrMiss is returned by Cache.Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Cache is the slice of redis the prayer-time cache needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

func InitRedis(redisAddress string, redisUsername string, redisPassword string) error {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis at %s: %w", redisAddress, err)
	}
	log.Info().Str("addr", redisAddress).Msg("connected to redis")
	return nil
}

type clientCache struct {
	rdb *redis.Client
}

// NewCache adapts a go-redis client. A nil client uses Rdb.
func NewCache(rdb *redis.Client) Cache {
	if rdb == nil {
		rdb = Rdb
	}
	return &clientCache{rdb: rdb}
}

func (c *clientCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (c *clientCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}
