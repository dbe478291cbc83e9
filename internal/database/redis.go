package database

import (
	"context"
	"fmt"
	"time"

	"supplestore_backend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// OpenRedis returns nil, nil when no address is configured; callers fall back to in-memory carts.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		utils.LogWarn("REDIS_ADDRESS not set; cart sessions are kept in process memory")
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 50,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	utils.LogInfo("Connected to redis", map[string]interface{}{"addr": addr})
	return client, nil
}
