package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/core/port"
	"github.com/arklim/face-auth-service/internal/infra/config"
	"github.com/arklim/face-auth-service/internal/repository"
)

// ErrEmptyTemplate indicates an enrollment request carried no descriptor values.
var ErrEmptyTemplate = errors.New("face template must not be empty")

// EnrollmentService stores face templates for accounts. Re-enrolling replaces
// the previous template in full.
type EnrollmentService struct {
	accounts     port.AccountRepository
	events       port.EventPublisher
	face         config.FaceSettings
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(accounts port.AccountRepository, events port.EventPublisher, face config.FaceSettings, storeTimeout time.Duration, log *zap.Logger) *EnrollmentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EnrollmentService{
		accounts:     accounts,
		events:       events,
		face:         face,
		storeTimeout: storeTimeout,
		logger:       log,
	}
}

// Enroll encodes the descriptor and persists it as the account's face
// template. A descriptor whose length differs from the configured extractor
// dimension is stored as-is with a warning; it only becomes a hard failure
// when matched against a candidate of a different length.
func (s *EnrollmentService) Enroll(ctx context.Context, accountID string, descriptor domain.Descriptor) (*domain.Account, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", ErrValidation)
	}
	if len(descriptor) == 0 {
		return nil, ErrEmptyTemplate
	}

	if s.face.Dimension > 0 && len(descriptor) != s.face.Dimension {
		s.logger.Warn("enrolling descriptor with unexpected dimension",
			zap.String("account_id", accountID),
			zap.Int("dimension", len(descriptor)),
			zap.Int("expected", s.face.Dimension),
		)
	}

	encoded, err := domain.EncodeTemplate(descriptor)
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}

	storeCtx, cancel := s.boundStoreContext(ctx)
	defer cancel()

	account, err := s.accounts.SetTemplate(storeCtx, accountID, encoded)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("store template: %w", err)
	}

	s.logger.Info("face template enrolled",
		zap.String("account_id", account.ID),
		zap.Int("dimension", len(descriptor)),
	)

	s.publishEnrolled(ctx, account, len(descriptor))

	return account, nil
}

func (s *EnrollmentService) publishEnrolled(ctx context.Context, account *domain.Account, dimension int) {
	if s.events == nil {
		return
	}

	event := domain.TemplateEnrolledEvent{
		EventID:    uuid.NewString(),
		AccountID:  account.ID,
		Dimension:  dimension,
		EnrolledAt: account.UpdatedAt,
	}

	if err := s.events.PublishTemplateEnrolled(ctx, event); err != nil {
		s.logger.Warn("failed to publish enrollment event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}
}

func (s *EnrollmentService) boundStoreContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}
