package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aurahq/aura-backend/internal/platform/logger"
)

// liveScoreTTL outlives one full scoring day so a stalled pipeline keeps
// serving yesterday's snapshot instead of nothing.
const liveScoreTTL = 26 * time.Hour

type LiveScoreCache interface {
	PublishLiveScore(ctx context.Context, userID uuid.UUID, payload []byte) error
	GetLiveScore(ctx context.Context, userID uuid.UUID) ([]byte, error)
	Close() error
}

type liveScoreCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewLiveScoreCache(log *logger.Logger) (LiveScoreCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_KEY_PREFIX"))
	if prefix == "" {
		prefix = "live_score"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &liveScoreCache{
		log:    log.With("service", "LiveScoreCache"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (c *liveScoreCache) key(userID uuid.UUID) string {
	return c.prefix + ":" + userID.String()
}

func (c *liveScoreCache) PublishLiveScore(ctx context.Context, userID uuid.UUID, payload []byte) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("live score cache not initialized")
	}
	return c.rdb.Set(ctx, c.key(userID), payload, liveScoreTTL).Err()
}

// GetLiveScore returns nil with no error on a cache miss.
func (c *liveScoreCache) GetLiveScore(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("live score cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *liveScoreCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
