package port

import (
	"context"

	"github.com/arklim/face-auth-service/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
//
// Create must rely on a store-enforced uniqueness guarantee for the email
// column and surface a duplicate as repository.ErrDuplicate; a look-up
// followed by an insert is not an acceptable substitute.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	SetTemplate(ctx context.Context, id string, storedTemplate string) (*domain.Account, error)
}
