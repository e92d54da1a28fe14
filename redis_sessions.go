package guard

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const (
	defaultSessionPrefix = "guard:session:"
	fieldUserID          = "user_id"
	fieldUsername        = "username"
	fieldRole            = "role"
)

// RedisSessions stores opaque server side sessions in Redis hashes.
// The session id is the credential clients carry.
type RedisSessions struct {
	client     redis.UniversalClient
	prefix     string
	maxRetries uint64
	retryBase  time.Duration
	logger     Logger
}

var _ SessionResolver = (*RedisSessions)(nil)

// RedisOption configures RedisSessions
type RedisOption func(*RedisSessions)

// WithKeyPrefix sets the key prefix for session hashes
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisSessions) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetry configures retries for transient Redis errors
func WithRetry(maxRetries uint64, base time.Duration) RedisOption {
	return func(s *RedisSessions) {
		s.maxRetries = maxRetries
		if base > 0 {
			s.retryBase = base
		}
	}
}

// WithRedisLogger sets the logger
func WithRedisLogger(logger Logger) RedisOption {
	return func(s *RedisSessions) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRedisSessions creates a Redis backed session resolver
func NewRedisSessions(client redis.UniversalClient, opts ...RedisOption) *RedisSessions {
	s := &RedisSessions{
		client:     client,
		prefix:     defaultSessionPrefix,
		maxRetries: 2,
		retryBase:  25 * time.Millisecond,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSessions) key(id string) string {
	return s.prefix + id
}

// Create stores a session for user and returns its id
func (s *RedisSessions) Create(ctx context.Context, user *User, ttl time.Duration) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("user with an ID is required", errors.CategoryBadInput)
	}

	id := uuid.NewString()
	key := s.key(id)

	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]any{
				fieldUserID:   user.ID,
				fieldUsername: user.Username,
				fieldRole:     user.Role,
			})
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Resolve loads the session with the given id
func (s *RedisSessions) Resolve(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrNoCredential
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	var fields map[string]string
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		fields, err = s.client.HGetAll(ctx, s.key(id)).Result()
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 || fields[fieldUserID] == "" {
		return nil, ErrSessionNotFound
	}

	return &User{
		ID:       fields[fieldUserID],
		Username: fields[fieldUsername],
		Role:     fields[fieldRole],
	}, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *RedisSessions) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.do(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, s.key(id)).Err()
	})
}

func (s *RedisSessions) do(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.logger.Debug("redis session call failed, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, ErrSessionStoreUnavailable.Category, ErrSessionStoreUnavailable.Message).
			WithTextCode(ErrSessionStoreUnavailable.TextCode).
			WithCode(ErrSessionStoreUnavailable.Code)
	}
	return nil
}
