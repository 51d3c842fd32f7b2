package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/scheduling-api/internal/models"
)

type stubOutcomes struct {
	hourly  []models.HourlyOutcome
	summary *models.ProviderOutcomeSummary
	err     error
}

func (s *stubOutcomes) HourlyOutcomes(context.Context, models.OutcomeFilter) ([]models.HourlyOutcome, error) {
	return s.hourly, s.err
}

func (s *stubOutcomes) ProviderSummary(context.Context, models.OutcomeFilter) (*models.ProviderOutcomeSummary, error) {
	return s.summary, s.err
}

func TestPatternServiceBuildsPatterns(t *testing.T) {
	outcomes := &stubOutcomes{
		hourly: []models.HourlyOutcome{
			{Hour: 8, Total: 120, NoShows: 30, NoShowRate: 0.25},
			{Hour: 9, Total: 200, NoShows: 20, NoShowRate: 0.10},
			{Hour: 10, Total: 180, NoShows: 18, NoShowRate: 0.10},
			{Hour: 11, Total: 150, NoShows: 15, NoShowRate: 0.10},
			{Hour: 14, Total: 90, NoShows: 20, NoShowRate: 0.22},
			{Hour: 15, Total: 160, NoShows: 24, NoShowRate: 0.15},
		},
		summary: &models.ProviderOutcomeSummary{
			ProviderID:               "prov-1",
			TotalAppointments:        900,
			TotalNoShows:             127,
			AverageNoShowRate:        0.14,
			AverageDailyAppointments: 28,
		},
	}
	svc := NewPatternService(outcomes, nil, 0, nil)

	patterns, err := svc.Patterns(context.Background(), "prov-1", nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, patterns.NoShowRateByHour[8], 1e-9)
	assert.InDelta(t, 0.14, patterns.AverageNoShowRate, 1e-9)
	assert.InDelta(t, 28.0, patterns.AverageDailyAppointments, 1e-9)

	// Top-4 by volume: 9 (200), 10 (180), 15 (160), 11 (150), ascending.
	assert.Equal(t, []int{9, 10, 11, 15}, patterns.PeakHours)
}

func TestPatternServicePropagatesErrors(t *testing.T) {
	svc := NewPatternService(&stubOutcomes{err: errors.New("db down")}, nil, 0, nil)

	_, err := svc.Patterns(context.Background(), "prov-1", nil, nil)
	assert.Error(t, err)
}

func TestPatternServiceFewerThanFourHours(t *testing.T) {
	outcomes := &stubOutcomes{
		hourly: []models.HourlyOutcome{
			{Hour: 9, Total: 10, NoShowRate: 0.1},
			{Hour: 10, Total: 20, NoShowRate: 0.2},
		},
		summary: &models.ProviderOutcomeSummary{AverageNoShowRate: 0.15},
	}
	svc := NewPatternService(outcomes, nil, 0, nil)

	patterns, err := svc.Patterns(context.Background(), "prov-1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 10}, patterns.PeakHours)
}
