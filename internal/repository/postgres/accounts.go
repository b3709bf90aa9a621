package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/repository"
)

const uniqueViolationCode = "23505"

var accountColumns = []string{
	"id",
	"email",
	"password_hash",
	"face_template",
	"created_at",
	"updated_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new account row. The unique index on email provides the
// atomic duplicate check; a violation surfaces as repository.ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	stmt, args, err := r.builder.Insert("faceauth.accounts").
		Columns("id", "email", "password_hash", "created_at", "updated_at").
		Values(account.ID, account.Email, account.PasswordHash, account.CreatedAt, account.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves an account by its exact email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// SetTemplate stores the encoded face template and returns the updated row.
func (r *AccountRepository) SetTemplate(ctx context.Context, id string, storedTemplate string) (*domain.Account, error) {
	stmt, args, err := r.builder.Update("faceauth.accounts").
		Set("face_template", storedTemplate).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update template sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update template: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) getOne(ctx context.Context, pred squirrel.Eq) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("faceauth.accounts").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return account, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account  domain.Account
		template sql.NullString
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&template,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if template.Valid && template.String != "" {
		decoded, err := domain.DecodeTemplate(template.String)
		if err != nil {
			return nil, err
		}
		account.FaceTemplate = decoded
	}

	return &account, nil
}

func columnList() string {
	list := ""
	for i, col := range accountColumns {
		if i > 0 {
			list += ", "
		}
		list += col
	}
	return list
}
