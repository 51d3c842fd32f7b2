package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careloop/scheduling-api/internal/dto"
	"github.com/careloop/scheduling-api/internal/models"
	"github.com/careloop/scheduling-api/internal/service"
	appErrors "github.com/careloop/scheduling-api/pkg/errors"
	"github.com/careloop/scheduling-api/pkg/response"
)

type capacityPlanner interface {
	Plan(ctx context.Context, req *dto.CapacityPlanRequest) (*models.ProviderCapacityPlan, error)
	InvalidateProvider(ctx context.Context, providerID string) error
}

type capacityExporter interface {
	Render(plan *models.ProviderCapacityPlan, format service.ExportFormat) (*service.ExportRendering, error)
	Archive(plan *models.ProviderCapacityPlan, format service.ExportFormat) (*service.ArchivedExport, error)
	OpenArchived(token string) (*service.ExportRendering, error)
}

// CapacityHandler wires the capacity planner to HTTP endpoints.
type CapacityHandler struct {
	planner  capacityPlanner
	exporter capacityExporter
}

// NewCapacityHandler constructs the handler.
func NewCapacityHandler(planner capacityPlanner, exporter capacityExporter) *CapacityHandler {
	return &CapacityHandler{planner: planner, exporter: exporter}
}

// Plan godoc
// @Summary Compute a provider capacity plan
// @Tags Capacity
// @Produce json
// @Param providerId query string true "Provider ID"
// @Param dateFrom query string false "History window start (YYYY-MM-DD)"
// @Param dateTo query string false "History window end (YYYY-MM-DD)"
// @Param targetUtilization query number false "Target utilization (0,1]"
// @Param riskTolerance query string false "Risk tolerance (low|medium|high)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /capacity/plan [get]
func (h *CapacityHandler) Plan(c *gin.Context) {
	if h.planner == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	req, err := h.parsePlanRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	plan, err := h.planner.Plan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan)
}

// Refresh godoc
// @Summary Drop cached plans and patterns for a provider
// @Tags Capacity
// @Produce json
// @Param providerId query string true "Provider ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /capacity/plan [delete]
func (h *CapacityHandler) Refresh(c *gin.Context) {
	if h.planner == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	providerID := strings.TrimSpace(c.Query("providerId"))
	if providerID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "providerId is required"))
		return
	}
	if err := h.planner.InvalidateProvider(c.Request.Context(), providerID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export godoc
// @Summary Export a provider capacity plan as CSV or PDF
// @Tags Capacity
// @Produce text/csv
// @Produce application/pdf
// @Param providerId query string true "Provider ID"
// @Param format query string true "Export format (csv|pdf)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /capacity/plan/export [get]
func (h *CapacityHandler) Export(c *gin.Context) {
	if h.planner == nil || h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	req, err := h.parsePlanRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if format == "" {
		format = service.ExportFormatCSV
	}
	plan, err := h.planner.Plan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("archive") == "true" {
		archived, err := h.exporter.Archive(plan, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, archived)
		return
	}
	rendering, err := h.exporter.Render(plan, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendering.Filename))
	c.Data(http.StatusOK, rendering.ContentType, rendering.Payload)
}

// Download godoc
// @Summary Download a previously archived capacity plan export
// @Tags Capacity
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /capacity/exports/{token} [get]
func (h *CapacityHandler) Download(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "download token is required"))
		return
	}
	rendering, err := h.exporter.OpenArchived(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendering.Filename))
	c.Data(http.StatusOK, rendering.ContentType, rendering.Payload)
}

func (h *CapacityHandler) parsePlanRequest(c *gin.Context) (*dto.CapacityPlanRequest, error) {
	req := &dto.CapacityPlanRequest{
		ProviderID:    strings.TrimSpace(c.Query("providerId")),
		RiskTolerance: models.RiskTolerance(strings.ToLower(strings.TrimSpace(c.Query("riskTolerance")))),
	}
	if req.ProviderID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "providerId is required")
	}
	if raw := strings.TrimSpace(c.Query("targetUtilization")); raw != "" {
		target, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "targetUtilization must be a number")
		}
		req.TargetUtilization = target
	}
	from, err := parseDateQuery(c, "dateFrom")
	if err != nil {
		return nil, err
	}
	to, err := parseDateQuery(c, "dateTo")
	if err != nil {
		return nil, err
	}
	req.DateFrom = from
	req.DateTo = to
	return req, nil
}

func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must use the YYYY-MM-DD format", name))
	}
	return &parsed, nil
}
