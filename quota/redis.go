package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStoreConfig describes the Redis connection for a shared quota store.
type RedisStoreConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps quota counters in Redis hashes, one per caller, so
// several gateway instances share a single view of consumption. Usage is
// incremented with HIncrBy, which is atomic per caller.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(cfg RedisStoreConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "llmroute:quota"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Quota reads the caller's hash. Missing fields read as zero, so unknown
// callers report a zero quota.
func (s *RedisStore) Quota(ctx context.Context, callerID string) (Quota, error) {
	vals, err := s.client.HMGet(ctx, s.key(callerID), "used", "limit").Result()
	if err != nil {
		return Quota{}, fmt.Errorf("read quota hash: %w", err)
	}
	return Quota{
		Used:  parseField(vals[0]),
		Limit: parseField(vals[1]),
	}, nil
}

// Add increments the caller's usage counter.
func (s *RedisStore) Add(ctx context.Context, callerID string, tokens int64) error {
	if tokens <= 0 {
		return nil
	}
	if err := s.client.HIncrBy(ctx, s.key(callerID), "used", tokens).Err(); err != nil {
		return fmt.Errorf("increment quota usage: %w", err)
	}
	return nil
}

// SetLimit sets the caller's allowance.
func (s *RedisStore) SetLimit(ctx context.Context, callerID string, limit int64) error {
	if err := s.client.HSet(ctx, s.key(callerID), "limit", limit).Err(); err != nil {
		return fmt.Errorf("set quota limit: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(callerID string) string {
	return s.prefix + ":" + callerID
}

// parseField converts an HMGet result value to an int64. Redis returns hash
// fields as strings; missing fields come back nil.
func parseField(v any) int64 {
	str, ok := v.(string)
	if !ok {
		return 0
	}
	var n int64
	_, _ = fmt.Sscan(str, &n)
	return n
}
