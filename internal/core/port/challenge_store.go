package port

import (
	"context"
	"time"
)

// ChallengeStore persists single-use face-verification challenges issued
// after a successful password step. Only a hash of the challenge token is
// stored; Consume must atomically fetch and delete the entry so a token can
// never be presented twice.
type ChallengeStore interface {
	Put(ctx context.Context, tokenHash, accountID string, ttl time.Duration) error
	Consume(ctx context.Context, tokenHash string) (accountID string, err error)
}
