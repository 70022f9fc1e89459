// Copyright (c) 2024-2026 SpeakWise
// Author: SpeakWise Engineering <engineering@speakwise.io>
//
// Licensed under GPL-2.0 with SpeakWise Additional Terms.
// See LICENSE.md or contact hello@speakwise.io for commercial usage.

package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gorm/caches/v4"
	"github.com/redis/go-redis/v9"
	"github.com/speakwise/pkg/commons"
	"github.com/speakwise/pkg/configs"
)

// RedisConnector hands out the shared redis client.
type RedisConnector interface {
	Client(ctx context.Context) *redis.Client
	Ping(ctx context.Context) error
	// Cacher adapts the client into a gorm query-cache backend with the
	// given entry TTL.
	Cacher(ttl time.Duration) caches.Cacher
	Close() error
}

type redisConnector struct {
	cfg    configs.RedisConfig
	logger commons.Logger
	client *redis.Client
}

func NewRedisConnector(cfg configs.RedisConfig, logger commons.Logger) RedisConnector {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	return &redisConnector{cfg: cfg, logger: logger, client: client}
}

func (c *redisConnector) Client(ctx context.Context) *redis.Client {
	return c.client
}

func (c *redisConnector) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *redisConnector) Cacher(ttl time.Duration) caches.Cacher {
	return &redisCacher{client: c.client, ttl: ttl}
}

func (c *redisConnector) Close() error {
	return c.client.Close()
}

// redisCacher implements caches.Cacher on top of go-redis.
type redisCacher struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisCacher) Get(ctx context.Context, key string, q *caches.Query[any]) (*caches.Query[any], error) {
	res, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := q.Unmarshal([]byte(res)); err != nil {
		return nil, err
	}
	return q, nil
}

func (c *redisCacher) Store(ctx context.Context, key string, val *caches.Query[any]) error {
	res, err := val.Marshal()
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, res, c.ttl).Err()
}

func (c *redisCacher) Invalidate(ctx context.Context) error {
	var (
		cursor uint64
		keys   []string
	)
	for {
		var batch []string
		var err error
		batch, cursor, err = c.client.Scan(ctx, cursor, fmt.Sprintf("%s*", caches.IdentifierPrefix), 0).Result()
		if err != nil {
			return err
		}
		keys = append(keys, batch...)
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
