package service

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/scheduling-api/internal/models"
	"github.com/careloop/scheduling-api/pkg/storage"
)

func samplePlan() *models.ProviderCapacityPlan {
	return &models.ProviderCapacityPlan{
		ProviderID:          "prov-1",
		RecommendedCapacity: 36,
		Overbooking: models.OverbookingStrategy{
			Enabled:     true,
			Percentage:  0.2,
			TargetHours: []int{8},
		},
		RiskMitigation: models.RiskMitigation{
			HighRiskHours:      []int{8, 15},
			RecommendedActions: []string{"Send additional reminders"},
		},
		Forecast: models.UtilizationForecast{
			Expected:    0.9,
			Optimistic:  0.95,
			Pessimistic: 0.7,
		},
		GeneratedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestCapacityExportCSV(t *testing.T) {
	svc := NewCapacityExportService(nil, nil)

	rendering, err := svc.Render(samplePlan(), ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", rendering.ContentType)
	assert.True(t, strings.HasSuffix(rendering.Filename, ".csv"))

	body := string(rendering.Payload)
	assert.Contains(t, body, "Provider ID,prov-1")
	assert.Contains(t, body, "Recommended Capacity (slots/day),36")
	assert.Contains(t, body, "08:00")
	assert.Contains(t, body, "15:00")
}

func TestCapacityExportPDF(t *testing.T) {
	svc := NewCapacityExportService(nil, nil)

	rendering, err := svc.Render(samplePlan(), ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", rendering.ContentType)
	assert.True(t, strings.HasSuffix(rendering.Filename, ".pdf"))
	assert.True(t, bytes.HasPrefix(rendering.Payload, []byte("%PDF")))
}

func TestCapacityExportArchiveRoundTrip(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewCapacityExportService(nil, nil).WithArchive(store, signer)

	archived, err := svc.Archive(samplePlan(), ExportFormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(archived.Filename, ".csv"))
	assert.True(t, archived.ExpiresAt.After(time.Now()))

	rendering, err := svc.OpenArchived(archived.Token)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", rendering.ContentType)
	assert.Contains(t, string(rendering.Payload), "Provider ID,prov-1")
}

func TestCapacityExportArchiveRejectsBadToken(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewCapacityExportService(nil, nil).WithArchive(store, storage.NewSignedURLSigner("test-secret", time.Hour))

	_, err = svc.OpenArchived("not.a.valid.token")
	assert.Error(t, err)
}

func TestCapacityExportArchiveUnconfigured(t *testing.T) {
	svc := NewCapacityExportService(nil, nil)
	_, err := svc.Archive(samplePlan(), ExportFormatCSV)
	assert.Error(t, err)
}

func TestCapacityExportUnsupportedFormat(t *testing.T) {
	svc := NewCapacityExportService(nil, nil)
	_, err := svc.Render(samplePlan(), ExportFormat("xlsx"))
	assert.Error(t, err)
}

func TestCapacityExportNilPlan(t *testing.T) {
	svc := NewCapacityExportService(nil, nil)
	_, err := svc.Render(nil, ExportFormatCSV)
	assert.Error(t, err)
}
