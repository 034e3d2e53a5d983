package services

import (
	"context"
	"time"

	"tripmate/pkg/cache"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tripmate/internal/utils"
)

// CacheService is the read-through cache the repositories consult before
// hitting mongo. Implementations must tolerate concurrent use.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type redisCacheService struct {
	redis *cache.RedisCache
}

func NewRedisCacheService(redis *cache.RedisCache) CacheService {
	return &redisCacheService{redis: redis}
}

func (s *redisCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.redis.Get(ctx, key, dest)
}

func (s *redisCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.redis.Set(ctx, key, value, expiration)
}

func (s *redisCacheService) Delete(ctx context.Context, keys ...string) error {
	return s.redis.Delete(ctx, keys...)
}

func ConversationCacheKey(id primitive.ObjectID) string {
	return utils.CacheConversationPrefix + id.Hex()
}

func CarpoolCacheKey(id primitive.ObjectID) string {
	return utils.CacheCarpoolPrefix + id.Hex()
}
