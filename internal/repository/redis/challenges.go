package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/arklim/face-auth-service/internal/repository"
)

// ChallengeStore keeps single-use face-verification challenges in Redis.
// Keys hold the account identifier and expire with the challenge TTL, so an
// abandoned login never leaves a usable token behind.
type ChallengeStore struct {
	client *redis.Client
	prefix string
}

// NewChallengeStore constructs a Redis-backed challenge store.
func NewChallengeStore(client *redis.Client, prefix string) *ChallengeStore {
	if prefix == "" {
		prefix = "faceauth:challenge"
	}
	return &ChallengeStore{client: client, prefix: prefix}
}

func (s *ChallengeStore) key(tokenHash string) string {
	return fmt.Sprintf("%s:%s", s.prefix, tokenHash)
}

// Put stores the challenge under the token hash with the provided TTL.
func (s *ChallengeStore) Put(ctx context.Context, tokenHash, accountID string, ttl time.Duration) error {
	if tokenHash == "" || accountID == "" {
		return fmt.Errorf("token hash and account id are required")
	}
	if ttl <= 0 {
		return fmt.Errorf("challenge ttl must be positive")
	}

	if err := s.client.Set(ctx, s.key(tokenHash), accountID, ttl).Err(); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}

	return nil
}

// Consume atomically fetches and deletes the challenge. A missing or expired
// entry surfaces as repository.ErrNotFound.
func (s *ChallengeStore) Consume(ctx context.Context, tokenHash string) (string, error) {
	accountID, err := s.client.GetDel(ctx, s.key(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("consume challenge: %w", err)
	}

	return accountID, nil
}
