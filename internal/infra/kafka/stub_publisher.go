package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/core/port"
	"github.com/arklim/face-auth-service/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountRegistered logs faceauth.account.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"account_id":    event.AccountID,
		"email":         logger.MaskEmail(event.Email),
		"registered_at": event.RegisteredAt,
		"metadata":      event.Metadata,
	}
	p.logEvent(eventTypeAccountRegistered, event.AccountID, event.RegisteredAt, payload)
	return nil
}

// PublishTemplateEnrolled logs faceauth.template.enrolled events.
func (p *StubPublisher) PublishTemplateEnrolled(_ context.Context, event domain.TemplateEnrolledEvent) error {
	payload := map[string]any{
		"account_id":  event.AccountID,
		"dimension":   event.Dimension,
		"enrolled_at": event.EnrolledAt,
		"metadata":    event.Metadata,
	}
	p.logEvent(eventTypeTemplateEnrolled, event.AccountID, event.EnrolledAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
