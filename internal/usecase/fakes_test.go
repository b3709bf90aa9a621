package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/repository"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.Account // keyed by id
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]domain.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicate
		}
	}

	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.Email == email {
			copied := account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) SetTemplate(_ context.Context, id string, storedTemplate string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	decoded, err := domain.DecodeTemplate(storedTemplate)
	if err != nil {
		return nil, err
	}

	account.FaceTemplate = decoded
	account.UpdatedAt = time.Now().UTC()
	r.accounts[id] = account

	return &account, nil
}

type challengeEntry struct {
	accountID string
	expiresAt time.Time
}

type fakeChallengeStore struct {
	mu      sync.Mutex
	entries map[string]challengeEntry
}

func newFakeChallengeStore() *fakeChallengeStore {
	return &fakeChallengeStore{entries: make(map[string]challengeEntry)}
}

func (s *fakeChallengeStore) Put(_ context.Context, tokenHash, accountID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[tokenHash] = challengeEntry{
		accountID: accountID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *fakeChallengeStore) Consume(_ context.Context, tokenHash string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[tokenHash]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(s.entries, tokenHash)

	if time.Now().After(entry.expiresAt) {
		return "", repository.ErrNotFound
	}
	return entry.accountID, nil
}

type fakePublisher struct {
	mu         sync.Mutex
	registered []domain.AccountRegisteredEvent
	enrolled   []domain.TemplateEnrolledEvent
}

func (p *fakePublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *fakePublisher) PublishTemplateEnrolled(_ context.Context, event domain.TemplateEnrolledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enrolled = append(p.enrolled, event)
	return nil
}
