package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, token model.SessionToken, data []byte) error {
	// Refresh the marker TTL alongside the profile so both expire together
	pipe := s.client.Pipeline()
	pipe.Set(ctx, profileKey(token), data, s.cfg.SessionTTL)
	if s.cfg.SessionTTL > 0 {
		pipe.Expire(ctx, authenticatedKey(token), s.cfg.SessionTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetProfile(ctx context.Context, token model.SessionToken) ([]byte, error) {
	data, err := s.client.Get(ctx, profileKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Storage) DeleteProfile(ctx context.Context, token model.SessionToken) error {
	return s.client.Del(ctx, profileKey(token)).Err()
}

// Authentication marker operations

func (s *Storage) SetAuthenticated(ctx context.Context, token model.SessionToken) error {
	return s.client.Set(ctx, authenticatedKey(token), "true", s.cfg.SessionTTL).Err()
}

func (s *Storage) IsAuthenticated(ctx context.Context, token model.SessionToken) (bool, error) {
	val, err := s.client.Get(ctx, authenticatedKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val == "true", nil
}

func (s *Storage) ClearAuthenticated(ctx context.Context, token model.SessionToken) error {
	return s.client.Del(ctx, authenticatedKey(token)).Err()
}

// Touch resets the TTL of both session keys
func (s *Storage) Touch(ctx context.Context, token model.SessionToken) error {
	if s.cfg.SessionTTL <= 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	pipe.Expire(ctx, profileKey(token), s.cfg.SessionTTL)
	pipe.Expire(ctx, authenticatedKey(token), s.cfg.SessionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteSession(ctx context.Context, token model.SessionToken) error {
	return s.client.Del(ctx, profileKey(token), authenticatedKey(token)).Err()
}
