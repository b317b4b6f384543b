package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes. The per-user set backs List; members are pruned lazily
// when their session key has expired away.
const (
	sessionKeyPrefix = "session:"
	userSetKeyPrefix = "user_sessions:"
	stateKeyPrefix   = "oauth_state:"
)

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string // empty for no auth
	DB       int
}

// RedisStore is a Redis-backed session store for production deployments.
// Expiration is enforced by Redis TTLs, so an expired session usually
// reads as missing rather than ErrExpired.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client; the caller owns it.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	// TTL and ExpiresAt can disagree by a moment near the boundary.
	if sess.IsExpired() {
		_ = s.Delete(ctx, sessionID)
		return nil, ErrExpired
	}
	return &sess, nil
}

func (s *RedisStore) Set(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+sess.ID, data, ttl)
	if userID := sess.UserID(); userID != "" {
		pipe.SAdd(ctx, userSetKeyPrefix+userID, sess.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	// Look up the owner first so the user set stays in sync.
	sess, err := s.rawGet(ctx, sessionID)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+sessionID)
	if sess != nil {
		if userID := sess.UserID(); userID != "" {
			pipe.SRem(ctx, userSetKeyPrefix+userID, sessionID)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, userID string) ([]*Session, error) {
	setKey := userSetKeyPrefix + userID
	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}

	out := make([]*Session, 0, len(ids))
	var dead []any
	for _, id := range ids {
		sess, err := s.rawGet(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess == nil || sess.IsExpired() {
			dead = append(dead, id)
			continue
		}
		out = append(out, sess)
	}
	if len(dead) > 0 {
		_ = s.client.SRem(ctx, setKey, dead...).Err()
	}
	sortSessions(out)
	return out, nil
}

// Cleanup is a no-op; Redis TTLs remove expired sessions.
func (s *RedisStore) Cleanup(ctx context.Context) error { return nil }

// Close releases the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

// rawGet fetches and decodes without the expiry translation Get does.
func (s *RedisStore) rawGet(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &sess, nil
}

var _ Store = (*RedisStore)(nil)

// =============================================================================
// OAuth state tokens
// =============================================================================

// RedisStateStore keeps OAuth state tokens in Redis so the callback can
// land on any replica.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore wraps an existing client; the caller owns it.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Generate(ctx context.Context, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, stateKeyPrefix+state, "1", ttl).Err(); err != nil {
		return "", fmt.Errorf("store state token: %w", err)
	}
	return state, nil
}

func (s *RedisStateStore) Validate(ctx context.Context, state string) (bool, error) {
	// GETDEL makes validation single-use atomically.
	err := s.client.GetDel(ctx, stateKeyPrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("validate state token: %w", err)
	}
	return true, nil
}

// Cleanup is a no-op; Redis TTLs remove expired tokens.
func (s *RedisStateStore) Cleanup(ctx context.Context) error { return nil }

var _ StateStore = (*RedisStateStore)(nil)
