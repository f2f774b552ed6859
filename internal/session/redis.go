package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	commonerrors "hospital-assistant/internal/common/errors"
	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/models"
)

const redisKeyPrefix = "session:"

// RedisStore keeps each user's turns in a Redis list so multiple instances
// share conversation memory. The idle TTL rides on key expiry, the turn
// bound on LTRIM; the global capacity cap is left to Redis memory policy.
type RedisStore struct {
	client      *redis.Client
	idleTimeout time.Duration
	maxTurns    int
	log         logger.Logger
}

func NewRedisStore(client *redis.Client, opts Options, log logger.Logger) *RedisStore {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	return &RedisStore{
		client:      client,
		idleTimeout: opts.IdleTimeout,
		maxTurns:    opts.MaxTurns,
		log:         log,
	}
}

func (s *RedisStore) key(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) Append(ctx context.Context, userID string, turn models.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return commonerrors.NewSessionBackendFailedError(fmt.Errorf("marshal turn: %w", err))
	}

	key := s.key(userID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	pipe.Expire(ctx, key, s.idleTimeout)
	if _, err := pipe.Exec(ctx); err != nil {
		return commonerrors.NewSessionBackendFailedError(fmt.Errorf("append turn: %w", err))
	}
	return nil
}

func (s *RedisStore) Snapshot(ctx context.Context, userID string) ([]models.Turn, error) {
	key := s.key(userID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, commonerrors.NewSessionBackendFailedError(fmt.Errorf("read turns: %w", err))
	}
	// Reading counts as access.
	if len(raw) > 0 {
		if err := s.client.Expire(ctx, key, s.idleTimeout).Err(); err != nil {
			s.log.Warn("failed to refresh session ttl", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var t models.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			s.log.Warn("skipping undecodable turn", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return commonerrors.NewSessionBackendFailedError(fmt.Errorf("clear session: %w", err))
	}
	return nil
}

func (s *RedisStore) Size(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, commonerrors.NewSessionBackendFailedError(fmt.Errorf("count sessions: %w", err))
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
