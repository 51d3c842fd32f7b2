package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/scheduling-api/internal/dto"
	"github.com/careloop/scheduling-api/internal/models"
	"github.com/careloop/scheduling-api/internal/service"
)

type fakeCapacityPlanner struct {
	plan        *models.ProviderCapacityPlan
	err         error
	lastReq     *dto.CapacityPlanRequest
	invalidated string
}

func (f *fakeCapacityPlanner) Plan(_ context.Context, req *dto.CapacityPlanRequest) (*models.ProviderCapacityPlan, error) {
	f.lastReq = req
	return f.plan, f.err
}

func (f *fakeCapacityPlanner) InvalidateProvider(_ context.Context, providerID string) error {
	f.invalidated = providerID
	return f.err
}

type fakeCapacityExporter struct {
	rendering  *service.ExportRendering
	archived   *service.ArchivedExport
	err        error
	lastFormat service.ExportFormat
	lastToken  string
}

func (f *fakeCapacityExporter) Render(_ *models.ProviderCapacityPlan, format service.ExportFormat) (*service.ExportRendering, error) {
	f.lastFormat = format
	return f.rendering, f.err
}

func (f *fakeCapacityExporter) Archive(_ *models.ProviderCapacityPlan, format service.ExportFormat) (*service.ArchivedExport, error) {
	f.lastFormat = format
	return f.archived, f.err
}

func (f *fakeCapacityExporter) OpenArchived(token string) (*service.ExportRendering, error) {
	f.lastToken = token
	return f.rendering, f.err
}

func capacityTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func TestCapacityHandlerPlanRequiresProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCapacityHandler(&fakeCapacityPlanner{}, &fakeCapacityExporter{})

	c, rec := capacityTestContext("/capacity/plan")

	handler.Plan(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCapacityHandlerPlanParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	planner := &fakeCapacityPlanner{plan: &models.ProviderCapacityPlan{ProviderID: "prov-1"}}
	handler := NewCapacityHandler(planner, &fakeCapacityExporter{})

	c, rec := capacityTestContext("/capacity/plan?providerId=prov-1&targetUtilization=0.85&riskTolerance=HIGH&dateFrom=2026-01-01&dateTo=2026-03-01")

	handler.Plan(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, planner.lastReq)
	assert.Equal(t, "prov-1", planner.lastReq.ProviderID)
	assert.InDelta(t, 0.85, planner.lastReq.TargetUtilization, 1e-9)
	assert.Equal(t, models.ToleranceHigh, planner.lastReq.RiskTolerance)
	require.NotNil(t, planner.lastReq.DateFrom)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *planner.lastReq.DateFrom)
}

func TestCapacityHandlerPlanRejectsBadTarget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCapacityHandler(&fakeCapacityPlanner{}, &fakeCapacityExporter{})

	c, rec := capacityTestContext("/capacity/plan?providerId=prov-1&targetUtilization=lots")

	handler.Plan(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCapacityHandlerPlanRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCapacityHandler(&fakeCapacityPlanner{}, &fakeCapacityExporter{})

	c, rec := capacityTestContext("/capacity/plan?providerId=prov-1&dateFrom=01-02-2026")

	handler.Plan(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCapacityHandlerRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	planner := &fakeCapacityPlanner{}
	handler := NewCapacityHandler(planner, &fakeCapacityExporter{})

	c, rec := capacityTestContext("/capacity/plan?providerId=prov-1")

	handler.Refresh(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "prov-1", planner.invalidated)
}

func TestCapacityHandlerRefreshRequiresProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCapacityHandler(&fakeCapacityPlanner{}, &fakeCapacityExporter{})

	c, rec := capacityTestContext("/capacity/plan")

	handler.Refresh(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCapacityHandlerExportDefaultsToCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &fakeCapacityExporter{
		rendering: &service.ExportRendering{
			Payload:     []byte("Provider ID,prov-1\n"),
			ContentType: "text/csv",
			Filename:    "capacity-plan-prov-1.csv",
		},
	}
	handler := NewCapacityHandler(&fakeCapacityPlanner{plan: &models.ProviderCapacityPlan{ProviderID: "prov-1"}}, exporter)

	c, rec := capacityTestContext("/capacity/plan/export?providerId=prov-1")

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatCSV, exporter.lastFormat)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "capacity-plan-prov-1.csv")
	assert.Contains(t, rec.Body.String(), "prov-1")
}

func TestCapacityHandlerExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &fakeCapacityExporter{
		rendering: &service.ExportRendering{
			Payload:     []byte("%PDF-1.4"),
			ContentType: "application/pdf",
			Filename:    "capacity-plan-prov-1.pdf",
		},
	}
	handler := NewCapacityHandler(&fakeCapacityPlanner{plan: &models.ProviderCapacityPlan{ProviderID: "prov-1"}}, exporter)

	c, rec := capacityTestContext("/capacity/plan/export?providerId=prov-1&format=PDF")

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatPDF, exporter.lastFormat)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}

func TestCapacityHandlerExportArchive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &fakeCapacityExporter{
		archived: &service.ArchivedExport{
			Token:     "tok.123",
			Filename:  "capacity_plan_prov-1.csv",
			ExpiresAt: time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC),
		},
	}
	handler := NewCapacityHandler(&fakeCapacityPlanner{plan: &models.ProviderCapacityPlan{ProviderID: "prov-1"}}, exporter)

	c, rec := capacityTestContext("/capacity/plan/export?providerId=prov-1&archive=true")

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tok.123")
}

func TestCapacityHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &fakeCapacityExporter{
		rendering: &service.ExportRendering{
			Payload:     []byte("Provider ID,prov-1\n"),
			ContentType: "text/csv",
			Filename:    "capacity_plan_prov-1.csv",
		},
	}
	handler := NewCapacityHandler(&fakeCapacityPlanner{}, exporter)

	c, rec := capacityTestContext("/capacity/exports/tok.123")
	c.Params = gin.Params{{Key: "token", Value: "tok.123"}}

	handler.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok.123", exporter.lastToken)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
}

func TestCapacityHandlerExportRendererError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCapacityHandler(
		&fakeCapacityPlanner{plan: &models.ProviderCapacityPlan{ProviderID: "prov-1"}},
		&fakeCapacityExporter{err: assert.AnError},
	)

	c, rec := capacityTestContext("/capacity/plan/export?providerId=prov-1&format=xlsx")

	handler.Export(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
