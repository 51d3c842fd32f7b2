package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/scheduling-api/internal/models"
)

// OutcomeReader is the narrow slice of the outcome repository the pattern
// service needs.
type OutcomeReader interface {
	HourlyOutcomes(ctx context.Context, filter models.OutcomeFilter) ([]models.HourlyOutcome, error)
	ProviderSummary(ctx context.Context, filter models.OutcomeFilter) (*models.ProviderOutcomeSummary, error)
}

const peakHourCount = 4

// PatternService derives per-provider historical no-show patterns from the
// outcome repository, cached through Redis to keep optimization passes off
// the database.
type PatternService struct {
	outcomes OutcomeReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPatternService constructs the pattern service.
func NewPatternService(outcomes OutcomeReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *PatternService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatternService{outcomes: outcomes, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Patterns loads the provider's historical patterns for the window. Errors
// propagate so callers can decide whether to degrade to defaults.
func (s *PatternService) Patterns(ctx context.Context, providerID string, from, to *time.Time) (*models.HistoricalPatterns, error) {
	key := patternCacheKey(providerID, from, to)
	if s.cache != nil {
		var cached models.HistoricalPatterns
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	filter := models.OutcomeFilter{ProviderID: providerID, DateFrom: from, DateTo: to}

	hourly, err := s.outcomes.HourlyOutcomes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load hourly outcomes for %s: %w", providerID, err)
	}
	summary, err := s.outcomes.ProviderSummary(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load provider summary for %s: %w", providerID, err)
	}

	patterns := buildPatterns(hourly, summary)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, patterns, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache historical patterns", zap.String("provider_id", providerID), zap.Error(err))
		}
	}
	return patterns, nil
}

// buildPatterns folds hourly rows into the pattern aggregate. Peak hours
// are the top-4 hours by appointment volume, ascending for determinism.
func buildPatterns(hourly []models.HourlyOutcome, summary *models.ProviderOutcomeSummary) *models.HistoricalPatterns {
	patterns := &models.HistoricalPatterns{
		NoShowRateByHour: make(map[int]float64, len(hourly)),
	}

	byVolume := make([]models.HourlyOutcome, len(hourly))
	copy(byVolume, hourly)
	sort.SliceStable(byVolume, func(i, j int) bool {
		return byVolume[i].Total > byVolume[j].Total
	})

	for _, row := range hourly {
		patterns.NoShowRateByHour[row.Hour] = row.NoShowRate
	}
	for i := 0; i < len(byVolume) && i < peakHourCount; i++ {
		patterns.PeakHours = append(patterns.PeakHours, byVolume[i].Hour)
	}
	sort.Ints(patterns.PeakHours)

	if summary != nil {
		patterns.AverageNoShowRate = summary.AverageNoShowRate
		patterns.AverageDailyAppointments = summary.AverageDailyAppointments
	}
	return patterns
}

func patternCacheKey(providerID string, from, to *time.Time) string {
	const layout = "2006-01-02"
	fromPart, toPart := "any", "any"
	if from != nil {
		fromPart = from.Format(layout)
	}
	if to != nil {
		toPart = to.Format(layout)
	}
	return fmt.Sprintf("patterns:%s:%s:%s", providerID, fromPart, toPart)
}
