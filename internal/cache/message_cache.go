package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/noteduco342/OMCalendar-backend/internal/models"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const DefaultUnseenTTL = time.Minute

const unseenPattern = "unseen:*"

// Store is the key/value backend behind MessageCache. RedisCache implements it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

var _ Store = (*RedisCache)(nil)

// MessageCache holds each user's unseen message list. A nil MessageCache,
// or one without a Store, is a no-op.
type MessageCache struct {
	redis Store
	ttl   time.Duration
}

func NewMessageCache(redis Store, ttl time.Duration) *MessageCache {
	if ttl <= 0 {
		ttl = DefaultUnseenTTL
	}
	return &MessageCache{redis: redis, ttl: ttl}
}

func unseenKey(userID uint) string {
	return fmt.Sprintf("unseen:%d", userID)
}

func (mc *MessageCache) enabled() bool {
	return mc != nil && mc.redis != nil
}

func (mc *MessageCache) GetUnseen(ctx context.Context, userID uint) ([]models.MessageResponse, bool) {
	if !mc.enabled() {
		return nil, false
	}
	data, err := mc.redis.Get(ctx, unseenKey(userID))
	if err != nil || data == nil {
		return nil, false
	}

	var messages []models.MessageResponse
	if err := msgpack.Unmarshal(data, &messages); err != nil {
		return nil, false
	}
	return messages, true
}

func (mc *MessageCache) SetUnseen(ctx context.Context, userID uint, messages []models.MessageResponse) {
	if !mc.enabled() {
		return
	}
	data, err := msgpack.Marshal(messages)
	if err != nil {
		zap.L().Warn("unseen cache encode failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if err := mc.redis.Set(ctx, unseenKey(userID), data, mc.ttl); err != nil {
		zap.L().Warn("unseen cache write failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (mc *MessageCache) InvalidateUnseen(ctx context.Context, userIDs ...uint) {
	if !mc.enabled() || len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, unseenKey(id))
	}
	if err := mc.redis.Delete(ctx, keys...); err != nil {
		zap.L().Warn("unseen cache invalidate failed", zap.Uints("user_ids", userIDs), zap.Error(err))
	}
}

// InvalidateAllUnseen drops every cached unseen list.
func (mc *MessageCache) InvalidateAllUnseen(ctx context.Context) {
	if !mc.enabled() {
		return
	}
	if err := mc.redis.DeletePattern(ctx, unseenPattern); err != nil {
		zap.L().Warn("unseen cache flush failed", zap.Error(err))
	}
}
