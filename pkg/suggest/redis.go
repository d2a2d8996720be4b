package suggest

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each tenant set in a redis sorted set with all members
// at score 0, so ZRANGEBYLEX gives the prefix scan directly.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore wraps an existing redis client. keyPrefix defaults to
// "loupe:suggest".
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "loupe:suggest"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(tenantID, set string) string {
	return fmt.Sprintf("%s:%s:%s", s.keyPrefix, tenantID, set)
}

func (s *RedisStore) Add(ctx context.Context, tenantID, set string, terms ...string) error {
	if len(terms) == 0 {
		return nil
	}
	members := make([]redis.Z, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		members = append(members, redis.Z{Score: 0, Member: t})
	}
	if len(members) == 0 {
		return nil
	}
	return s.client.ZAdd(ctx, s.key(tenantID, set), members...).Err()
}

func (s *RedisStore) RangeByLex(ctx context.Context, tenantID, set, prefix string, limit int) ([]string, error) {
	if prefix == "" {
		return nil, nil
	}
	return s.client.ZRangeByLex(ctx, s.key(tenantID, set), &redis.ZRangeBy{
		Min:   "[" + prefix,
		Max:   "[" + prefix + "\xff",
		Count: int64(limit),
	}).Result()
}

func (s *RedisStore) Remove(ctx context.Context, tenantID, set string, terms ...string) error {
	if len(terms) == 0 {
		return nil
	}
	members := make([]interface{}, len(terms))
	for i, t := range terms {
		members[i] = t
	}
	return s.client.ZRem(ctx, s.key(tenantID, set), members...).Err()
}

func (s *RedisStore) DeleteTenant(ctx context.Context, tenantID string) error {
	keys := make([]string, 0, len(setPriorities))
	for _, sp := range setPriorities {
		keys = append(keys, s.key(tenantID, sp.Set))
	}
	return s.client.Del(ctx, keys...).Err()
}
