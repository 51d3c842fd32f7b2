package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careloop/scheduling-api/internal/dto"
	"github.com/careloop/scheduling-api/internal/models"
	appErrors "github.com/careloop/scheduling-api/pkg/errors"
)

// CapacityPlannerConfig tunes the planner.
type CapacityPlannerConfig struct {
	BaselineSlots int
	DefaultTarget float64
	CacheTTL      time.Duration
}

// CapacityPlannerService derives per-provider staffing guidance from
// historical no-show patterns: recommended daily capacity, an overbooking
// strategy and a 3-point utilization forecast.
type CapacityPlannerService struct {
	patterns  PatternLoader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger

	baselineSlots int
	defaultTarget float64
	cacheTTL      time.Duration
	now           func() time.Time
}

// NewCapacityPlannerService constructs the planner.
func NewCapacityPlannerService(patterns PatternLoader, cache *CacheService, logger *zap.Logger, cfg CapacityPlannerConfig) *CapacityPlannerService {
	if cfg.BaselineSlots <= 0 {
		cfg.BaselineSlots = 32
	}
	if cfg.DefaultTarget <= 0 || cfg.DefaultTarget > 1 {
		cfg.DefaultTarget = 0.75
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityPlannerService{
		patterns:      patterns,
		cache:         cache,
		validator:     validator.New(),
		logger:        logger,
		baselineSlots: cfg.BaselineSlots,
		defaultTarget: cfg.DefaultTarget,
		cacheTTL:      cfg.CacheTTL,
		now:           time.Now,
	}
}

// Plan computes the capacity plan for a provider. History failures degrade
// to baseline defaults; only malformed input errors out.
func (s *CapacityPlannerService) Plan(ctx context.Context, req *dto.CapacityPlanRequest) (*models.ProviderCapacityPlan, error) {
	if req == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capacity plan request")
	}

	target := req.TargetUtilization
	if target <= 0 {
		target = s.defaultTarget
	}
	tolerance := req.RiskTolerance
	if tolerance == "" {
		tolerance = models.ToleranceMedium
	}

	cacheKey := capacityCacheKey(req.ProviderID, target, tolerance, req.DateFrom, req.DateTo)
	if s.cache != nil {
		var cached models.ProviderCapacityPlan
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	patterns := s.loadPatterns(ctx, req)

	plan := s.buildPlan(req.ProviderID, target, tolerance, patterns)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, plan, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache capacity plan", zap.String("provider_id", req.ProviderID), zap.Error(err))
		}
	}
	return plan, nil
}

// InvalidateProvider drops every cached plan for the provider together
// with the historical patterns the plans are derived from. Call it after
// the provider's outcome history changes so the next plan recomputes.
func (s *CapacityPlannerService) InvalidateProvider(ctx context.Context, providerID string) error {
	if providerID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "providerId is required")
	}
	for _, pattern := range []string{
		fmt.Sprintf("capacity:%s:*", providerID),
		fmt.Sprintf("patterns:%s:*", providerID),
	} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			return err
		}
	}
	s.logger.Info("provider caches invalidated", zap.String("provider_id", providerID))
	return nil
}

func (s *CapacityPlannerService) loadPatterns(ctx context.Context, req *dto.CapacityPlanRequest) *models.HistoricalPatterns {
	if s.patterns == nil {
		return s.baselinePatterns()
	}
	patterns, err := s.patterns.Patterns(ctx, req.ProviderID, req.DateFrom, req.DateTo)
	if err != nil {
		s.logger.Warn("historical patterns unavailable for capacity planning, using baseline",
			zap.String("provider_id", req.ProviderID), zap.Error(err))
		return s.baselinePatterns()
	}
	if patterns.AverageDailyAppointments <= 0 {
		patterns.AverageDailyAppointments = float64(s.baselineSlots)
	}
	return patterns
}

func (s *CapacityPlannerService) baselinePatterns() *models.HistoricalPatterns {
	return &models.HistoricalPatterns{
		NoShowRateByHour:         map[int]float64{},
		AverageNoShowRate:        defaultHourlyNoShowRate,
		AverageDailyAppointments: float64(s.baselineSlots),
	}
}

func (s *CapacityPlannerService) buildPlan(providerID string, target float64, tolerance models.RiskTolerance, patterns *models.HistoricalPatterns) *models.ProviderCapacityPlan {
	base := patterns.AverageDailyAppointments
	recommended := int(math.Round(base * (target / 0.75) * capacityRiskMultiplier(tolerance)))
	if recommended < 1 {
		recommended = 1
	}

	highRiskHours := highRiskHoursOf(patterns)

	overbooking := models.OverbookingStrategy{
		Enabled:    tolerance != models.ToleranceLow && target > 0.8,
		Percentage: patterns.AverageNoShowRate * overbookMultiplier(tolerance),
	}
	if overbooking.Enabled {
		overbooking.TargetHours = highRiskHours
	}

	impact := 0.0
	if overbooking.Enabled {
		impact = overbooking.Percentage
	}

	return &models.ProviderCapacityPlan{
		ProviderID:          providerID,
		RecommendedCapacity: recommended,
		Overbooking:         overbooking,
		RiskMitigation: models.RiskMitigation{
			HighRiskHours:      highRiskHours,
			RecommendedActions: mitigationActions(patterns, highRiskHours),
		},
		Forecast: models.UtilizationForecast{
			Expected:    math.Min(target+0.5*impact, 0.95),
			Optimistic:  math.Min(target+impact, 1.0),
			Pessimistic: math.Max(target-0.1, 0.5),
		},
		GeneratedAt: s.now().UTC(),
	}
}

func capacityRiskMultiplier(tolerance models.RiskTolerance) float64 {
	switch tolerance {
	case models.ToleranceLow:
		return 0.9
	case models.ToleranceHigh:
		return 1.1
	default:
		return 1.0
	}
}

func overbookMultiplier(tolerance models.RiskTolerance) float64 {
	switch tolerance {
	case models.ToleranceLow:
		return 0.5
	case models.ToleranceHigh:
		return 1.5
	default:
		return 1.0
	}
}

// highRiskHoursOf returns the hours whose no-show rate exceeds the
// provider average, ascending.
func highRiskHoursOf(patterns *models.HistoricalPatterns) []int {
	var hours []int
	for hour, rate := range patterns.NoShowRateByHour {
		if rate > patterns.AverageNoShowRate {
			hours = append(hours, hour)
		}
	}
	sort.Ints(hours)
	return hours
}

func mitigationActions(patterns *models.HistoricalPatterns, highRiskHours []int) []string {
	var actions []string
	if len(highRiskHours) > 0 {
		actions = append(actions, fmt.Sprintf("Send additional reminders for appointments in %d high-risk hour(s).", len(highRiskHours)))
	}
	if patterns.AverageNoShowRate > 0.2 {
		actions = append(actions, "Average no-show rate exceeds 20%. Consider confirmation calls or a deposit policy.")
	}
	if len(actions) == 0 {
		actions = append(actions, "No-show rates are within normal bounds. Maintain the current reminder cadence.")
	}
	return actions
}

func capacityCacheKey(providerID string, target float64, tolerance models.RiskTolerance, from, to *time.Time) string {
	const layout = "2006-01-02"
	fromPart, toPart := "any", "any"
	if from != nil {
		fromPart = from.Format(layout)
	}
	if to != nil {
		toPart = to.Format(layout)
	}
	return fmt.Sprintf("capacity:%s:%.2f:%s:%s:%s", providerID, target, tolerance, fromPart, toPart)
}
