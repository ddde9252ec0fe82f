package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
)

const (
	directoryKey = "directory:listings"
	directoryTTL = 5 * time.Minute
)

// DirectoryRedisCache holds the unfiltered directory listing that powers
// client-side suggestion indexes. Profile and service writes invalidate it.
type DirectoryRedisCache struct {
	cli    *redis.Client
	tracer trace.Tracer
	logger *logrus.Logger
}

func New(host, port string, tracer trace.Tracer, logger *logrus.Logger) *DirectoryRedisCache {
	redisAddress := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})

	return &DirectoryRedisCache{
		cli:    client,
		tracer: tracer,
		logger: logger,
	}
}

func (cache *DirectoryRedisCache) Ping() {
	val, _ := cache.cli.Ping().Result()
	cache.logger.Infof("redis ping: %s", val)
}

func (cache *DirectoryRedisCache) Post(ctx context.Context, listings []*domain.ProfileWithServices) error {
	_, span := cache.tracer.Start(ctx, "DirectoryCache.Post")
	defer span.End()

	value, err := json.Marshal(listings)
	if err != nil {
		return err
	}

	err = cache.cli.Set(directoryKey, value, directoryTTL).Err()
	if err != nil {
		span.SetStatus(codes.Error, "Error posting cached listings")
		cache.logger.Warnf("redis set error: %s", err)
	}
	return err
}

func (cache *DirectoryRedisCache) Get(ctx context.Context) ([]*domain.ProfileWithServices, error) {
	_, span := cache.tracer.Start(ctx, "DirectoryCache.Get")
	defer span.End()

	value, err := cache.cli.Get(directoryKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.SetStatus(codes.Error, "Error getting cached listings")
		return nil, err
	}

	var listings []*domain.ProfileWithServices
	if err := json.Unmarshal(value, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (cache *DirectoryRedisCache) Invalidate(ctx context.Context) error {
	_, span := cache.tracer.Start(ctx, "DirectoryCache.Invalidate")
	defer span.End()

	result := cache.cli.Del(directoryKey)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error deleting cached listings")
		cache.logger.Warnf("redis del error: %s", result.Err())
		return result.Err()
	}
	return nil
}
