package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/face-auth-service/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// AccountSummary is the external view of an account. Credential material
// (password hash, face template) is deliberately absent from the type, so it
// cannot leak through serialization.
type AccountSummary struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FaceEnrolled bool      `json:"face_enrolled"`
	CreatedAt    time.Time `json:"created_at"`
}

func newAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:           account.ID,
		Email:        account.Email,
		FaceEnrolled: account.HasFaceTemplate(),
		CreatedAt:    account.CreatedAt,
	}
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse contains the freshly created account.
type RegisterResponse struct {
	Account AccountSummary `json:"account"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the response for a fully authenticated login,
// returned when the account has no face template enrolled.
type LoginResponse struct {
	Authenticated bool           `json:"authenticated"`
	Account       AccountSummary `json:"account"`
}

// LoginChallengeResponse is returned when the password step succeeded but face
// verification is still required. The challenge token is single use.
type LoginChallengeResponse struct {
	Authenticated            bool           `json:"authenticated"`
	RequiresFaceVerification bool           `json:"requires_face_verification"`
	ChallengeToken           string         `json:"challenge_token"`
	ChallengeExpiresAt       time.Time      `json:"challenge_expires_at"`
	Account                  AccountSummary `json:"account"`
}

// VerifyFaceRequest carries the challenge token and the candidate descriptor.
type VerifyFaceRequest struct {
	ChallengeToken string    `json:"challenge_token" binding:"required"`
	Descriptor     []float64 `json:"descriptor" binding:"required"`
}

// VerifyFaceResponse reports the matching outcome. Verified false with a 200
// status is a legitimate result: the challenge was valid but the face did not
// match.
type VerifyFaceResponse struct {
	Verified  bool    `json:"verified"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	AccountID string  `json:"account_id"`
	Message   string  `json:"message"`
}

// EnrollRequest carries the descriptor to store as the account's template.
type EnrollRequest struct {
	AccountID  string    `json:"account_id" binding:"required"`
	Descriptor []float64 `json:"descriptor" binding:"required"`
}

// EnrollResponse confirms enrollment and echoes the stored dimension.
type EnrollResponse struct {
	Account   AccountSummary `json:"account"`
	Dimension int            `json:"dimension"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
