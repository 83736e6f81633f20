package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/vet-manager/backend/internal/domain"
)

const (
	vetsGenerationKey   = "vets:generation"
	vetsCacheKeyPrefix  = "vets:all:"
	specialtiesCacheKey = "vets:specialties"
	daysCacheKey        = "vets:days"
)

// cacheStore 是 handler 用到的 redis 命令子集，*redis.Client 实现了它
type cacheStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// cached 优先从 redis 读取，未命中时调用 load 并写回缓存。
// 缓存不可用只记录日志，不影响请求本身。key 为空时直接调用 load。
func cached[T any](ctx context.Context, h *Handler, key string, load func(context.Context) (T, error)) (T, error) {
	if h.redisClient == nil || key == "" {
		return load(ctx)
	}

	timeout := time.Duration(h.config.Redis.OperationTimeout) * time.Second

	getCtx, cancel := context.WithTimeout(ctx, timeout)
	data, err := h.redisClient.Get(getCtx, key).Bytes()
	cancel()
	switch {
	case err == nil:
		var v T
		unmarshalErr := json.Unmarshal(data, &v)
		if unmarshalErr == nil {
			return v, nil
		}
		slog.Warn("缓存数据无法解析", "key", key, "error", unmarshalErr)
	case !errors.Is(err, redis.Nil):
		slog.Warn("读取缓存失败", "key", key, "error", err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	data, err = json.Marshal(v)
	if err != nil {
		slog.Warn("序列化缓存数据失败", "key", key, "error", err)
		return v, nil
	}

	setCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	expiration := time.Duration(h.config.Redis.CacheExpiration) * time.Second
	if err := h.redisClient.Set(setCtx, key, data, expiration).Err(); err != nil {
		slog.Warn("写入缓存失败", "key", key, "error", err)
	}

	return v, nil
}

// vetsCacheKey 返回当前代数下的兽医列表缓存键。
// 每次写入都会让代数加一，加载期间发生写入时旧数据只会写到已废弃的键上。
func (h *Handler) vetsCacheKey(ctx context.Context) string {
	if h.redisClient == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	generation, err := h.redisClient.Get(ctx, vetsGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("读取缓存代数失败", "key", vetsGenerationKey, "error", err)
		return ""
	}

	return fmt.Sprintf("%s%d", vetsCacheKeyPrefix, generation)
}

func (h *Handler) allVets(ctx context.Context) ([]*domain.Vet, error) {
	return cached(ctx, h, h.vetsCacheKey(ctx), h.repository.FindAllVets)
}

func (h *Handler) allSpecialties(ctx context.Context) ([]domain.Specialty, error) {
	return cached(ctx, h, specialtiesCacheKey, h.repository.FindSpecialties)
}

func (h *Handler) allDays(ctx context.Context) ([]domain.Day, error) {
	return cached(ctx, h, daysCacheKey, h.repository.FindDays)
}

// invalidateVets 在任何兽医数据写入后调用，旧代数的键随过期时间自然清除
func (h *Handler) invalidateVets(ctx context.Context) {
	if h.redisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Incr(ctx, vetsGenerationKey).Err(); err != nil {
		slog.Warn("清除缓存失败", "key", vetsGenerationKey, "error", err)
	}
}
