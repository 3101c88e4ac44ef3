package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound is returned when no confirmation code is pending for a user.
var ErrCodeNotFound = errors.New("confirmation code not found")

// ConfirmationStore keeps bcrypt hashes of pending confirmation codes.
// Codes expire on their own via the key TTL.
type ConfirmationStore interface {
	Save(ctx context.Context, userID, codeHash string, ttl time.Duration) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

type redisConfirmationStore struct {
	client *redis.Client
}

// NewConfirmationStore connects to Redis and verifies the connection.
func NewConfirmationStore(redisURL, password string) (ConfirmationStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisConfirmationStore{client: rdb}, nil
}

func confirmationKey(userID string) string {
	return fmt.Sprintf("confirmation:user:%s", userID)
}

func (s *redisConfirmationStore) Save(ctx context.Context, userID, codeHash string, ttl time.Duration) error {
	return s.client.Set(ctx, confirmationKey(userID), codeHash, ttl).Err()
}

func (s *redisConfirmationStore) Get(ctx context.Context, userID string) (string, error) {
	val, err := s.client.Get(ctx, confirmationKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", err
	}
	return val, nil
}

func (s *redisConfirmationStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, confirmationKey(userID)).Err()
}
