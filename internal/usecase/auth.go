package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/core/port"
	"github.com/arklim/face-auth-service/internal/infra/config"
	"github.com/arklim/face-auth-service/internal/infra/logger"
	"github.com/arklim/face-auth-service/internal/infra/security"
	"github.com/arklim/face-auth-service/internal/repository"
)

const (
	defaultMatchThreshold = 0.6
	defaultChallengeTTL   = 2 * time.Minute
	challengeTokenBytes   = 32
)

var (
	// ErrValidation indicates a missing or malformed request input. The HTTP
	// boundary maps it to 400.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	// Unknown emails and wrong passwords surface identically through this error.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidChallenge indicates the face-verification challenge is unknown,
	// expired, or already consumed.
	ErrInvalidChallenge = errors.New("invalid or expired verification challenge")
	// ErrNoTemplateEnrolled indicates the account has no face template to match against.
	ErrNoTemplateEnrolled = errors.New("no face template enrolled")
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// AuthService sequences the password step and the optional face-verification
// step into a single authentication outcome.
type AuthService struct {
	accounts     port.AccountRepository
	challenges   port.ChallengeStore
	face         config.FaceSettings
	storeTimeout time.Duration
	logger       *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(accounts port.AccountRepository, challenges port.ChallengeStore, face config.FaceSettings, storeTimeout time.Duration, log *zap.Logger) *AuthService {
	if face.MatchThreshold <= 0 {
		face.MatchThreshold = defaultMatchThreshold
	}
	if face.ChallengeTTL <= 0 {
		face.ChallengeTTL = defaultChallengeTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		accounts:     accounts,
		challenges:   challenges,
		face:         face,
		storeTimeout: storeTimeout,
		logger:       log,
	}
}

// LoginResult carries the outcome of the password step.
type LoginResult struct {
	Account                  domain.Account
	RequiresFaceVerification bool
	ChallengeToken           string
	ChallengeExpiresAt       time.Time
}

// Login validates the email/password pair. When the account has a face
// template enrolled, the flow pauses and a single-use challenge token is
// issued; the caller must present it to VerifyFace to finish authenticating.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return LoginResult{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if password == "" {
		return LoginResult{}, fmt.Errorf("%w: password is required", ErrValidation)
	}

	account, err := s.getByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		// A malformed stored hash fails closed: the caller sees the same
		// generic rejection as a wrong password.
		s.logger.Error("stored password hash is invalid",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
		return LoginResult{}, ErrInvalidCredentials
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	result := LoginResult{Account: *account}
	if !account.HasFaceTemplate() {
		return result, nil
	}

	token, expiresAt, err := s.issueChallenge(ctx, account.ID)
	if err != nil {
		return LoginResult{}, err
	}

	result.RequiresFaceVerification = true
	result.ChallengeToken = token
	result.ChallengeExpiresAt = expiresAt

	return result, nil
}

// VerifyResult carries the outcome of the face-verification step.
type VerifyResult struct {
	AccountID string
	Verified  bool
	Distance  float64
	Threshold float64
}

// VerifyFace consumes the challenge issued by Login and matches the candidate
// descriptor against the stored template at the configured threshold. The
// account identity comes from the challenge, never from the caller. A failed
// match is a regular result, not an error.
func (s *AuthService) VerifyFace(ctx context.Context, challengeToken string, candidate domain.Descriptor) (VerifyResult, error) {
	challengeToken = strings.TrimSpace(challengeToken)
	if challengeToken == "" {
		return VerifyResult{}, fmt.Errorf("%w: challenge token is required", ErrValidation)
	}
	if len(candidate) == 0 {
		return VerifyResult{}, fmt.Errorf("%w: descriptor is required", ErrValidation)
	}

	accountID, err := s.consumeChallenge(ctx, challengeToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return VerifyResult{}, ErrInvalidChallenge
		}
		return VerifyResult{}, fmt.Errorf("consume challenge: %w", err)
	}

	account, err := s.getByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return VerifyResult{}, ErrAccountNotFound
		}
		return VerifyResult{}, fmt.Errorf("lookup account: %w", err)
	}

	if !account.HasFaceTemplate() {
		return VerifyResult{}, ErrNoTemplateEnrolled
	}

	matched, distance, err := domain.Matches(candidate, account.FaceTemplate, s.face.MatchThreshold)
	if err != nil {
		return VerifyResult{}, err
	}

	if !matched {
		s.logger.Info("face verification rejected",
			zap.String("account_id", account.ID),
			zap.Float64("distance", distance),
			zap.Float64("threshold", s.face.MatchThreshold),
		)
	}

	return VerifyResult{
		AccountID: account.ID,
		Verified:  matched,
		Distance:  distance,
		Threshold: s.face.MatchThreshold,
	}, nil
}

func (s *AuthService) issueChallenge(ctx context.Context, accountID string) (string, time.Time, error) {
	raw, err := security.GenerateSecureToken(challengeTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate challenge token: %w", err)
	}

	ttl := s.face.ChallengeTTL
	storeCtx, cancel := s.boundStoreContext(ctx)
	defer cancel()

	if err := s.challenges.Put(storeCtx, security.HashToken(raw), accountID, ttl); err != nil {
		return "", time.Time{}, fmt.Errorf("store challenge: %w", err)
	}

	s.logger.Debug("face verification challenge issued",
		zap.String("account_id", accountID),
		zap.String("token", logger.MaskString(raw)),
		zap.Duration("ttl", ttl),
	)

	return raw, time.Now().UTC().Add(ttl), nil
}

func (s *AuthService) consumeChallenge(ctx context.Context, raw string) (string, error) {
	storeCtx, cancel := s.boundStoreContext(ctx)
	defer cancel()

	return s.challenges.Consume(storeCtx, security.HashToken(raw))
}

func (s *AuthService) getByEmail(ctx context.Context, email string) (*domain.Account, error) {
	storeCtx, cancel := s.boundStoreContext(ctx)
	defer cancel()

	return s.accounts.GetByEmail(storeCtx, email)
}

func (s *AuthService) getByID(ctx context.Context, id string) (*domain.Account, error) {
	storeCtx, cancel := s.boundStoreContext(ctx)
	defer cancel()

	return s.accounts.GetByID(storeCtx, id)
}

// boundStoreContext caps store round trips so one stalled backend call cannot
// hold an authentication attempt open indefinitely.
func (s *AuthService) boundStoreContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}
