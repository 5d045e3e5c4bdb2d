package lockstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/botforge/botforge/internal/config"
	domainagent "github.com/botforge/botforge/internal/domain/agent"
)

const lockTTL = 30 * time.Second

// RedisLockStore implements agent.LockStore over a keyed Redis backend using
// redsync mutexes, so conversation locks hold across worker processes.
type RedisLockStore struct {
	client redis.UniversalClient
	rs     *redsync.Redsync
}

var _ domainagent.LockStore = (*RedisLockStore)(nil)

// New connects to the configured lock backend and verifies it with a ping.
func New(cfg config.LockStoreConfig) (*RedisLockStore, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("lock store URL must be provided")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Addr()},
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to lock store: %w", err)
	}

	log.Info().Str("addr", cfg.Addr()).Msg("connected to external lock store")
	return &RedisLockStore{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
	}, nil
}

// WithLock runs fn while holding the distributed conversation lock.
func (s *RedisLockStore) WithLock(ctx context.Context, bot, conversationID string, fn func() error) error {
	mutex := s.rs.NewMutex(domainagent.LockKey(bot, conversationID), redsync.WithExpiry(lockTTL))

	if err := mutex.LockContext(ctx); err != nil {
		return err
	}
	defer func() {
		if _, err := mutex.Unlock(); err != nil {
			log.Error().Err(err).Str("bot", bot).Msg("failed to release conversation lock")
		}
	}()

	return fn()
}

// Close releases the underlying Redis connection.
func (s *RedisLockStore) Close() error {
	return s.client.Close()
}
