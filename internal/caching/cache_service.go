package caching

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rentalhub/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rentalhub:"

type CacheService interface {
	// Public property reads
	GetProperty(ctx context.Context, propertyID uuid.UUID) (*models.Property, error)
	SetProperty(ctx context.Context, property *models.Property, ttl time.Duration) error
	GetPropertyList(ctx context.Context, filter models.PropertyFilter) ([]*models.Property, error)
	SetPropertyList(ctx context.Context, filter models.PropertyFilter, properties []*models.Property, ttl time.Duration) error
	InvalidateProperty(ctx context.Context, propertyID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	ResetRateLimit(ctx context.Context, key string) error

	// Generic string operations for token management and job de-duplication
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisClient accepts host:port or a redis:// URL.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if opts, err := redis.ParseURL(addr); err == nil {
			if password != "" {
				opts.Password = password
			}
			return redis.NewClient(opts)
		}
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisCacheService(client *redis.Client, logger *slog.Logger) CacheService {
	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		logger.Warn("redis ping failed on initialization", slog.String("error", pingErr.Error()))
	}
	return &redisCacheService{client: client, logger: logger}
}

func propertyKey(id uuid.UUID) string {
	return fmt.Sprintf("%sproperty:%s", keyPrefix, id)
}

// list keys embed a generation counter so one INCR drops every cached listing
func (r *redisCacheService) listKey(ctx context.Context, filter models.PropertyFilter) (string, error) {
	gen, err := r.client.Get(ctx, keyPrefix+"properties:gen").Result()
	if err != nil && err != redis.Nil {
		return "", err
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%sproperties:%s:%s", keyPrefix, gen, hex.EncodeToString(sum[:])), nil
}

func (r *redisCacheService) GetProperty(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	data, err := r.client.Get(ctx, propertyKey(propertyID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var property models.Property
	if err := json.Unmarshal(data, &property); err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *redisCacheService) SetProperty(ctx context.Context, property *models.Property, ttl time.Duration) error {
	data, err := json.Marshal(property)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, propertyKey(property.ID), data, ttl).Err()
}

func (r *redisCacheService) GetPropertyList(ctx context.Context, filter models.PropertyFilter) ([]*models.Property, error) {
	key, err := r.listKey(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var properties []*models.Property
	if err := json.Unmarshal(data, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

func (r *redisCacheService) SetPropertyList(ctx context.Context, filter models.PropertyFilter, properties []*models.Property, ttl time.Duration) error {
	key, err := r.listKey(ctx, filter)
	if err != nil {
		return err
	}
	if properties == nil {
		properties = []*models.Property{}
	}
	data, err := json.Marshal(properties)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) InvalidateProperty(ctx context.Context, propertyID uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, propertyKey(propertyID))
	pipe.Incr(ctx, keyPrefix+"properties:gen")
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("%sratelimit:%s", keyPrefix, key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) ResetRateLimit(ctx context.Context, key string) error {
	return r.client.Del(ctx, fmt.Sprintf("%sratelimit:%s", keyPrefix, key)).Err()
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) SetIfAbsent(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, keyPrefix+key, value, ttl).Result()
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
