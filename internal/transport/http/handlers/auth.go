package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/usecase"
)

// AuthHandler exposes the login and face-verification endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler builds an AuthHandler with the provided service.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.Login)
	r.POST("/face/verify", h.VerifyFace)
}

// Login godoc
// @Summary Authenticate with email and password
// @Description Validates credentials. Accounts with an enrolled face template receive a single-use challenge token and must complete face verification.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Unknown email and wrong password share one response so the endpoint
		// cannot be used to probe which emails are registered.
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "invalid login payload"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
		}, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if result.RequiresFaceVerification {
		c.JSON(http.StatusOK, LoginChallengeResponse{
			Authenticated:            false,
			RequiresFaceVerification: true,
			ChallengeToken:           result.ChallengeToken,
			ChallengeExpiresAt:       result.ChallengeExpiresAt,
			Account:                  newAccountSummary(result.Account),
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Authenticated: true,
		Account:       newAccountSummary(result.Account),
	})
}

// VerifyFace godoc
// @Summary Complete face verification
// @Description Consumes a login challenge token and matches the submitted descriptor against the enrolled template. A non-matching face returns 200 with verified=false.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyFaceRequest true "Verification request"
// @Success 200 {object} VerifyFaceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/face/verify [post]
func (h *AuthHandler) VerifyFace(c *gin.Context) {
	var req VerifyFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	if len(req.Descriptor) == 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "descriptor is required"))
		return
	}

	result, err := h.auth.VerifyFace(c.Request.Context(), req.ChallengeToken, domain.Descriptor(req.Descriptor))
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "descriptor dimension does not match enrolled template"))
			return
		}
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "invalid verification payload"},
			{Err: usecase.ErrInvalidChallenge, Status: http.StatusUnauthorized, Message: "challenge is invalid or has expired"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrNoTemplateEnrolled, Status: http.StatusBadRequest, Message: "no face template enrolled for this account"},
		}, http.StatusInternalServerError, "failed to verify face")
		return
	}

	// The mismatch message is deliberately different from the password one.
	message := "face verified"
	if !result.Verified {
		message = "face does not match the enrolled template"
	}

	c.JSON(http.StatusOK, VerifyFaceResponse{
		Verified:  result.Verified,
		Distance:  result.Distance,
		Threshold: result.Threshold,
		AccountID: result.AccountID,
		Message:   message,
	})
}
