// Package cache はRedisでリポジトリの読み出しを包む。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"merkado/internal/domain/model"
	"merkado/internal/infra/logger"
	repo "merkado/internal/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type cachedStoreHoursRepository struct {
	next        repo.StoreHoursRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
	log         *zap.Logger
}

// Redisが落ちていてもDBから読めるようにする。書き込み後はキーを消す
func NewCachedStoreHoursRepository(next repo.StoreHoursRepository, redisClient *redis.Client, cacheTTL time.Duration, log *zap.Logger) repo.StoreHoursRepository {
	return &cachedStoreHoursRepository{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
		log:         log,
	}
}

func storeHoursKey(sellerID int64) string {
	return fmt.Sprintf("store_hours:%d", sellerID)
}

func (r *cachedStoreHoursRepository) ListBySellerID(ctx context.Context, sellerID int64) ([]model.StoreHours, error) {
	key := storeHoursKey(sellerID)

	val, err := r.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hours []model.StoreHours
		if err := json.Unmarshal(val, &hours); err == nil {
			return hours, nil
		}
		logger.Warn(ctx, r.log, "broken store hours cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		logger.Warn(ctx, r.log, "redis get failed", zap.String("key", key), zap.Error(err))
	}

	hours, err := r.next.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if hours == nil {
		hours = []model.StoreHours{}
	}

	if data, err := json.Marshal(hours); err == nil {
		if err := r.redisClient.Set(ctx, key, data, r.cacheTTL).Err(); err != nil {
			logger.Warn(ctx, r.log, "redis set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return hours, nil
}

func (r *cachedStoreHoursRepository) ReplaceForSeller(ctx context.Context, sellerID int64, hours []model.StoreHours) error {
	if err := r.next.ReplaceForSeller(ctx, sellerID, hours); err != nil {
		return err
	}

	key := storeHoursKey(sellerID)
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		logger.Warn(ctx, r.log, "redis del failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}
