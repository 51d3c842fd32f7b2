package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/scheduling-api/internal/dto"
	"github.com/careloop/scheduling-api/internal/models"
)

type fakeRiskSrv struct {
	cached      map[string]models.RiskAssessment
	batchResp   map[string]models.RiskAssessment
	invalidated []string
	lastBatch   []dto.RiskComputeItem
}

func (f *fakeRiskSrv) BatchAssess(_ context.Context, items []dto.RiskComputeItem) map[string]models.RiskAssessment {
	f.lastBatch = items
	return f.batchResp
}

func (f *fakeRiskSrv) Cached(appointmentID string) (models.RiskAssessment, bool) {
	assessment, ok := f.cached[appointmentID]
	return assessment, ok
}

func (f *fakeRiskSrv) Invalidate(appointmentID string) {
	f.invalidated = append(f.invalidated, appointmentID)
}

func riskTestContext(method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func TestRiskHandlerGetHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRiskHandler(&fakeRiskSrv{
		cached: map[string]models.RiskAssessment{
			"apt-1": {
				AppointmentID: "apt-1",
				RiskScore:     0.42,
				RiskLevel:     models.RiskMedium,
				Timestamp:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			},
		},
	})

	c, rec := riskTestContext(http.MethodGet, "/risk/appointments/apt-1", "")
	c.Params = gin.Params{{Key: "id", Value: "apt-1"}}

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "apt-1", envelope.Data["appointmentId"])
	assert.Equal(t, 0.42, envelope.Data["riskScore"])
	assert.Equal(t, "medium", envelope.Data["riskLevel"])
}

func TestRiskHandlerGetMiss(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRiskHandler(&fakeRiskSrv{})

	c, rec := riskTestContext(http.MethodGet, "/risk/appointments/apt-9", "")
	c.Params = gin.Params{{Key: "id", Value: "apt-9"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRiskHandlerGetMissingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRiskHandler(&fakeRiskSrv{})

	c, rec := riskTestContext(http.MethodGet, "/risk/appointments/", "")

	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRiskHandlerBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRiskSrv{
		batchResp: map[string]models.RiskAssessment{
			"apt-1": {AppointmentID: "apt-1", RiskScore: 0.8, RiskLevel: models.RiskHigh},
		},
	}
	handler := NewRiskHandler(srv)

	body := `{"items":[{"appointmentId":"apt-1","features":{"appointmentHour":8,"priorNoShowRate":0.3}}]}`
	c, rec := riskTestContext(http.MethodPost, "/risk/batch", body)

	handler.Batch(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, srv.lastBatch, 1)
	assert.Equal(t, "apt-1", srv.lastBatch[0].AppointmentID)
	assert.Equal(t, 8, srv.lastBatch[0].Features.AppointmentHour)
}

func TestRiskHandlerBatchRejectsEmptyItems(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRiskHandler(&fakeRiskSrv{})

	c, rec := riskTestContext(http.MethodPost, "/risk/batch", `{"items":[]}`)

	handler.Batch(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRiskHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeRiskSrv{}
	handler := NewRiskHandler(srv)

	c, rec := riskTestContext(http.MethodDelete, "/risk/appointments/apt-1", "")
	c.Params = gin.Params{{Key: "id", Value: "apt-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"apt-1"}, srv.invalidated)
}
