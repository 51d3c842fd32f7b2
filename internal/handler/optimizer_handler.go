package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careloop/scheduling-api/internal/dto"
	appErrors "github.com/careloop/scheduling-api/pkg/errors"
	"github.com/careloop/scheduling-api/pkg/response"
)

type optimizerService interface {
	Optimize(ctx context.Context, req *dto.OptimizeScheduleRequest) (*dto.OptimizeScheduleResponse, error)
}

// OptimizerHandler wires the schedule optimizer to HTTP endpoints.
type OptimizerHandler struct {
	service optimizerService
}

// NewOptimizerHandler constructs the handler.
func NewOptimizerHandler(service optimizerService) *OptimizerHandler {
	return &OptimizerHandler{service: service}
}

// Optimize godoc
// @Summary Run a schedule optimization pass
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param request body dto.OptimizeScheduleRequest true "Optimization input"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/optimize [post]
func (h *OptimizerHandler) Optimize(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	var req dto.OptimizeScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.service.Optimize(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
