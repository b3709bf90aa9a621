package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/core/port"
	"github.com/arklim/face-auth-service/internal/infra/config"
	"github.com/arklim/face-auth-service/internal/infra/logger"
	"github.com/arklim/face-auth-service/internal/infra/security"
	"github.com/arklim/face-auth-service/internal/repository"
)

var (
	// ErrEmailAlreadyRegistered indicates an account with the given email already exists.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidEmail indicates the provided email address is not syntactically valid.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrPasswordPolicyViolation wraps the specific policy rule the password failed.
	ErrPasswordPolicyViolation = errors.New("password does not meet policy requirements")
)

// RegistrationService creates new accounts with hashed passwords.
type RegistrationService struct {
	accounts     port.AccountRepository
	events       port.EventPublisher
	policy       config.PasswordSettings
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(accounts port.AccountRepository, events port.EventPublisher, policy config.PasswordSettings, storeTimeout time.Duration, log *zap.Logger) *RegistrationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistrationService{
		accounts:     accounts,
		events:       events,
		policy:       policy,
		storeTimeout: storeTimeout,
		logger:       log,
	}
}

// Register creates a new account. Email uniqueness is enforced by the store's
// unique constraint, so two concurrent registrations of the same email cannot
// both succeed; the loser surfaces ErrEmailAlreadyRegistered.
func (s *RegistrationService) Register(ctx context.Context, email, password string) (*domain.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	validator := security.PolicyPasswordValidator(s.policy.MinLength, s.policy.MinScore, email)
	if err := validator.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	storeCtx, cancel := s.boundStoreContext(ctx)
	defer cancel()

	if err := s.accounts.Create(storeCtx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account registered",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	s.publishRegistered(ctx, &account)

	return &account, nil
}

// publishRegistered emits the registration event best-effort; a broker outage
// must not fail an already committed registration.
func (s *RegistrationService) publishRegistered(ctx context.Context, account *domain.Account) {
	if s.events == nil {
		return
	}

	event := domain.AccountRegisteredEvent{
		EventID:      uuid.NewString(),
		AccountID:    account.ID,
		Email:        account.Email,
		RegisteredAt: account.CreatedAt,
	}

	if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
		s.logger.Warn("failed to publish registration event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}
}

func (s *RegistrationService) boundStoreContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}
