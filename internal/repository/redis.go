package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"studiobook/internal/config"
	"studiobook/internal/models"

	"github.com/redis/go-redis/v9"
)

// Hash fields of a session key.
const (
	fieldStep = "step"
	fieldData = "data"
)

var errNilClient = errors.New("redis client is nil")

// RedisStateRepository keeps operator sessions in Redis so a bot restart
// does not drop a half-finished booking. Each session is a hash under
// <prefix>:session:<user id>; rate-limit counters live under
// <prefix>:ratelimit:<user id>.
type RedisStateRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient builds a client from config. It does not connect.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisStateRepository(client *redis.Client, prefix string, ttl time.Duration) *RedisStateRepository {
	return &RedisStateRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStateRepository) sessionKey(userID int64) string {
	return r.prefix + ":session:" + strconv.FormatInt(userID, 10)
}

func (r *RedisStateRepository) rateLimitKey(userID int64) string {
	return r.prefix + ":ratelimit:" + strconv.FormatInt(userID, 10)
}

// GetState returns nil when the operator has no session.
func (r *RedisStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	if r.client == nil {
		return nil, errNilClient
	}
	fields, err := r.client.HGetAll(ctx, r.sessionKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read session %d: %w", userID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	state := &models.UserState{UserID: userID, CurrentStep: fields[fieldStep]}
	if raw := fields[fieldData]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.TempData); err != nil {
			return nil, fmt.Errorf("decode session %d: %w", userID, err)
		}
	}
	return state, nil
}

// SetState replaces the whole session and restarts its TTL.
func (r *RedisStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	if r.client == nil {
		return errNilClient
	}
	data, err := json.Marshal(state.TempData)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", state.UserID, err)
	}

	key := r.sessionKey(state.UserID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fieldStep, state.CurrentStep, fieldData, string(data))
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write session %d: %w", state.UserID, err)
	}
	return nil
}

func (r *RedisStateRepository) ClearState(ctx context.Context, userID int64) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, r.sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear session %d: %w", userID, err)
	}
	return nil
}

// CheckRateLimit counts updates in a fixed window opened by the first one.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	key := r.rateLimitKey(userID)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("count updates of %d: %w", userID, err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("open rate window of %d: %w", userID, err)
		}
	}
	return count <= int64(limit), nil
}

// Ping checks the connection once at startup.
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errNilClient
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
