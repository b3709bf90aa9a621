package port

import (
	"context"

	"github.com/arklim/face-auth-service/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishTemplateEnrolled(ctx context.Context, event domain.TemplateEnrolledEvent) error
}
