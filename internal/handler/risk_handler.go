package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/careloop/scheduling-api/internal/dto"
	"github.com/careloop/scheduling-api/internal/models"
	appErrors "github.com/careloop/scheduling-api/pkg/errors"
	"github.com/careloop/scheduling-api/pkg/response"
)

type riskService interface {
	BatchAssess(ctx context.Context, items []dto.RiskComputeItem) map[string]models.RiskAssessment
	Cached(appointmentID string) (models.RiskAssessment, bool)
	Invalidate(appointmentID string)
}

// RiskHandler wires the risk assessment cache to HTTP endpoints.
type RiskHandler struct {
	service   riskService
	validator *validator.Validate
}

// NewRiskHandler constructs the handler.
func NewRiskHandler(service riskService) *RiskHandler {
	return &RiskHandler{service: service, validator: validator.New()}
}

// Get godoc
// @Summary Read the cached risk assessment for an appointment
// @Tags Risk
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /risk/appointments/{id} [get]
func (h *RiskHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "appointment id is required"))
		return
	}
	assessment, ok := h.service.Cached(id)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no fresh risk assessment for this appointment"))
		return
	}
	response.JSON(c, http.StatusOK, assessment)
}

// Batch godoc
// @Summary Compute risk assessments for a batch of appointments
// @Tags Risk
// @Accept json
// @Produce json
// @Param request body dto.BatchRiskRequest true "Batch items"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /risk/batch [post]
func (h *RiskHandler) Batch(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.BatchRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch risk request"))
		return
	}
	assessments := h.service.BatchAssess(c.Request.Context(), req.Items)
	response.JSON(c, http.StatusOK, dto.BatchRiskResponse{Assessments: assessments})
}

// Delete godoc
// @Summary Invalidate the cached risk assessment for an appointment
// @Tags Risk
// @Param id path string true "Appointment ID"
// @Success 204
// @Router /risk/appointments/{id} [delete]
func (h *RiskHandler) Delete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "appointment id is required"))
		return
	}
	h.service.Invalidate(id)
	response.NoContent(c)
}
