package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/face-auth-service/internal/core/domain"
	"github.com/arklim/face-auth-service/internal/usecase"
)

// EnrollmentHandler exposes the face template enrollment endpoint.
type EnrollmentHandler struct {
	enrollment *usecase.EnrollmentService
}

// NewEnrollmentHandler builds an EnrollmentHandler with the provided service.
func NewEnrollmentHandler(enrollment *usecase.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollment: enrollment}
}

// RegisterRoutes binds enrollment endpoints.
func (h *EnrollmentHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/face/enroll", h.Enroll)
}

// Enroll godoc
// @Summary Enroll a face template
// @Description Stores the submitted descriptor as the account's face template, replacing any previous one.
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param request body EnrollRequest true "Enrollment request"
// @Success 200 {object} EnrollResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/face/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid enrollment payload"))
		return
	}

	if len(req.Descriptor) == 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "descriptor must not be empty"))
		return
	}

	account, err := h.enrollment.Enroll(c.Request.Context(), req.AccountID, domain.Descriptor(req.Descriptor))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "invalid enrollment payload"},
			{Err: usecase.ErrEmptyTemplate, Status: http.StatusBadRequest, Message: "descriptor must not be empty"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to enroll face template")
		return
	}

	c.JSON(http.StatusOK, EnrollResponse{
		Account:   newAccountSummary(*account),
		Dimension: len(req.Descriptor),
	})
}
