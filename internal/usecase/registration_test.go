package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arklim/face-auth-service/internal/infra/config"
	"github.com/arklim/face-auth-service/internal/infra/security"
)

func strictPasswordPolicy() config.PasswordSettings {
	return config.PasswordSettings{MinLength: 8, MinScore: 2}
}

func TestRegister_CreatesAccount(t *testing.T) {
	fastArgon2(t)

	repo := newFakeAccountRepo()
	publisher := &fakePublisher{}
	svc := NewRegistrationService(repo, publisher, config.PasswordSettings{}, time.Second, nil)

	account, err := svc.Register(context.Background(), "alice@example.com", "tr0ub4dor-horse")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if account.ID == "" {
		t.Fatalf("expected generated account id")
	}
	if account.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", account.Email)
	}
	if account.HasFaceTemplate() {
		t.Fatalf("new account must not have a face template")
	}

	ok, err := security.VerifyPassword("tr0ub4dor-horse", account.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("stored hash does not verify the original password: ok=%v err=%v", ok, err)
	}

	if len(publisher.registered) != 1 {
		t.Fatalf("expected one registration event, got %d", len(publisher.registered))
	}
	if publisher.registered[0].AccountID != account.ID {
		t.Fatalf("event references wrong account")
	}
}

func TestRegister_ShortPasswordAcceptedByDefault(t *testing.T) {
	fastArgon2(t)

	repo := newFakeAccountRepo()
	svc := NewRegistrationService(repo, nil, config.PasswordSettings{}, time.Second, nil)

	// The default policy only requires a non-empty password; a seven-character
	// secret registers fine unless a deployment opts into stricter rules.
	account, err := svc.Register(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if account.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", account.Email)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	fastArgon2(t)

	repo := newFakeAccountRepo()
	svc := NewRegistrationService(repo, nil, config.PasswordSettings{}, time.Second, nil)

	if _, err := svc.Register(context.Background(), "alice@example.com", "tr0ub4dor-horse"); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	if _, err := svc.Register(context.Background(), "alice@example.com", "another-g00d-pass"); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewRegistrationService(repo, nil, config.PasswordSettings{}, time.Second, nil)

	for _, email := range []string{"", "   ", "not-an-email", "trailing@"} {
		if _, err := svc.Register(context.Background(), email, "tr0ub4dor-horse"); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected ErrInvalidEmail for %q, got %v", email, err)
		}
	}
}

func TestRegister_EmptyPassword(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewRegistrationService(repo, nil, config.PasswordSettings{}, time.Second, nil)

	if _, err := svc.Register(context.Background(), "alice@example.com", ""); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation for empty password, got %v", err)
	}
}

func TestRegister_StrictPolicyRejectsWeak(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewRegistrationService(repo, nil, strictPasswordPolicy(), time.Second, nil)

	if _, err := svc.Register(context.Background(), "alice@example.com", "short"); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation for short password, got %v", err)
	}

	if _, err := svc.Register(context.Background(), "alice@example.com", "password"); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation for guessable password, got %v", err)
	}
}

func TestRegister_StrictPolicyRejectsPasswordMatchingEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewRegistrationService(repo, nil, strictPasswordPolicy(), time.Second, nil)

	if _, err := svc.Register(context.Background(), "alice@example.com", "alice@example.com"); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected password equal to the email to be rejected, got %v", err)
	}
}
