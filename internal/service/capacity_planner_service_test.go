package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/scheduling-api/internal/dto"
	"github.com/careloop/scheduling-api/internal/models"
	appErrors "github.com/careloop/scheduling-api/pkg/errors"
)

type stubPatternLoader struct {
	patterns *models.HistoricalPatterns
	err      error
}

func (s *stubPatternLoader) Patterns(context.Context, string, *time.Time, *time.Time) (*models.HistoricalPatterns, error) {
	return s.patterns, s.err
}

func newTestPlanner(loader PatternLoader) *CapacityPlannerService {
	return NewCapacityPlannerService(loader, nil, nil, CapacityPlannerConfig{BaselineSlots: 32, DefaultTarget: 0.75})
}

func TestCapacityPlanRecommendedCapacity(t *testing.T) {
	loader := &stubPatternLoader{patterns: &models.HistoricalPatterns{
		NoShowRateByHour:         map[int]float64{9: 0.1},
		AverageNoShowRate:        0.1,
		AverageDailyAppointments: 30,
	}}
	planner := newTestPlanner(loader)

	plan, err := planner.Plan(context.Background(), &dto.CapacityPlanRequest{
		ProviderID:        "prov-1",
		TargetUtilization: 0.9,
		RiskTolerance:     models.ToleranceHigh,
	})
	require.NoError(t, err)

	// 30 x (0.9/0.75) x 1.1 = 39.6, rounded to 40.
	assert.Equal(t, 40, plan.RecommendedCapacity)
}

func TestCapacityPlanOverbookingGate(t *testing.T) {
	patterns := &models.HistoricalPatterns{
		AverageNoShowRate:        0.2,
		AverageDailyAppointments: 20,
		NoShowRateByHour:         map[int]float64{},
	}

	cases := []struct {
		name      string
		target    float64
		tolerance models.RiskTolerance
		enabled   bool
		pct       float64
	}{
		{"low tolerance blocks overbooking", 0.9, models.ToleranceLow, false, 0.1},
		{"modest target blocks overbooking", 0.8, models.ToleranceHigh, false, 0.3},
		{"medium tolerance aggressive target", 0.85, models.ToleranceMedium, true, 0.2},
		{"high tolerance aggressive target", 0.9, models.ToleranceHigh, true, 0.3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			planner := newTestPlanner(&stubPatternLoader{patterns: patterns})
			plan, err := planner.Plan(context.Background(), &dto.CapacityPlanRequest{
				ProviderID:        "prov-1",
				TargetUtilization: tc.target,
				RiskTolerance:     tc.tolerance,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.enabled, plan.Overbooking.Enabled)
			assert.InDelta(t, tc.pct, plan.Overbooking.Percentage, 1e-9)
		})
	}
}

func TestCapacityPlanForecastBounds(t *testing.T) {
	patterns := &models.HistoricalPatterns{
		AverageNoShowRate:        0.2,
		AverageDailyAppointments: 20,
		NoShowRateByHour:         map[int]float64{},
	}
	planner := newTestPlanner(&stubPatternLoader{patterns: patterns})

	plan, err := planner.Plan(context.Background(), &dto.CapacityPlanRequest{
		ProviderID:        "prov-1",
		TargetUtilization: 0.9,
		RiskTolerance:     models.ToleranceHigh,
	})
	require.NoError(t, err)

	// Overbook impact 0.3: expected 0.9+0.15 capped at 0.95, optimistic
	// 0.9+0.3 capped at 1.0, pessimistic 0.9-0.1.
	assert.InDelta(t, 0.95, plan.Forecast.Expected, 1e-9)
	assert.InDelta(t, 1.0, plan.Forecast.Optimistic, 1e-9)
	assert.InDelta(t, 0.8, plan.Forecast.Pessimistic, 1e-9)
}

func TestCapacityPlanPessimisticFloor(t *testing.T) {
	patterns := &models.HistoricalPatterns{
		AverageNoShowRate:        0.1,
		AverageDailyAppointments: 20,
		NoShowRateByHour:         map[int]float64{},
	}
	planner := newTestPlanner(&stubPatternLoader{patterns: patterns})

	plan, err := planner.Plan(context.Background(), &dto.CapacityPlanRequest{
		ProviderID:        "prov-1",
		TargetUtilization: 0.55,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, plan.Forecast.Pessimistic, 1e-9)
}

func TestCapacityPlanHighRiskHours(t *testing.T) {
	patterns := &models.HistoricalPatterns{
		NoShowRateByHour:         map[int]float64{8: 0.3, 9: 0.1, 15: 0.25, 16: 0.12},
		AverageNoShowRate:        0.15,
		AverageDailyAppointments: 25,
	}
	planner := newTestPlanner(&stubPatternLoader{patterns: patterns})

	plan, err := planner.Plan(context.Background(), &dto.CapacityPlanRequest{
		ProviderID:        "prov-1",
		TargetUtilization: 0.9,
		RiskTolerance:     models.ToleranceHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, []int{8, 15}, plan.RiskMitigation.HighRiskHours)
	assert.Equal(t, []int{8, 15}, plan.Overbooking.TargetHours)
	assert.NotEmpty(t, plan.RiskMitigation.RecommendedActions)
}

func TestCapacityPlanDegradesWhenHistoryFails(t *testing.T) {
	planner := newTestPlanner(&stubPatternLoader{err: errors.New("db down")})

	plan, err := planner.Plan(context.Background(), &dto.CapacityPlanRequest{ProviderID: "prov-1"})
	require.NoError(t, err)

	// Baseline 32 at the default 0.75 target with medium tolerance.
	assert.Equal(t, 32, plan.RecommendedCapacity)
	assert.False(t, plan.Overbooking.Enabled)
}

type recordingCacheRepo struct {
	deleted []string
}

func (r *recordingCacheRepo) Get(context.Context, string, interface{}) error {
	return appErrors.ErrCacheMiss
}

func (r *recordingCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (r *recordingCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	r.deleted = append(r.deleted, pattern)
	return nil
}

func TestCapacityPlanInvalidateProvider(t *testing.T) {
	repo := &recordingCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	planner := NewCapacityPlannerService(&stubPatternLoader{}, cache, nil, CapacityPlannerConfig{})

	require.NoError(t, planner.InvalidateProvider(context.Background(), "prov-1"))

	// Plans and the patterns they derive from are dropped together.
	assert.Equal(t, []string{"capacity:prov-1:*", "patterns:prov-1:*"}, repo.deleted)
}

func TestCapacityPlanInvalidateProviderRequiresID(t *testing.T) {
	planner := newTestPlanner(nil)
	assert.Error(t, planner.InvalidateProvider(context.Background(), ""))
}

func TestCapacityPlanValidation(t *testing.T) {
	planner := newTestPlanner(&stubPatternLoader{patterns: &models.HistoricalPatterns{}})

	_, err := planner.Plan(context.Background(), &dto.CapacityPlanRequest{})
	assert.Error(t, err)

	_, err = planner.Plan(context.Background(), &dto.CapacityPlanRequest{ProviderID: "p", TargetUtilization: 1.4})
	assert.Error(t, err)

	_, err = planner.Plan(context.Background(), nil)
	assert.Error(t, err)
}
