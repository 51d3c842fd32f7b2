package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/careloop/scheduling-api/internal/dto"
	"github.com/careloop/scheduling-api/internal/models"
	appErrors "github.com/careloop/scheduling-api/pkg/errors"
)

// RiskAssessor is the slice of the risk service the optimizer needs.
type RiskAssessor interface {
	Assess(ctx context.Context, appointmentID string, req models.AppointmentRequest, features models.PredictionFeatures) models.RiskAssessment
}

// PatternLoader loads historical no-show patterns for a provider.
type PatternLoader interface {
	Patterns(ctx context.Context, providerID string, from, to *time.Time) (*models.HistoricalPatterns, error)
}

// ScheduleOptimizerService runs the full optimization pass: validate the
// input, generate slots, annotate requests with risk, assign greedily and
// summarize. Malformed input is the only caller-visible failure; history
// or oracle trouble degrades to defaults.
type ScheduleOptimizerService struct {
	slots     *SlotGenerator
	engine    *AssignmentEngine
	risk      RiskAssessor
	patterns  PatternLoader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	granularity    int
	averageRevenue float64
	maxRequests    int
}

// OptimizerConfig tunes an optimizer instance.
type OptimizerConfig struct {
	SlotGranularityMinutes int
	AverageRevenue         float64
	MaxRequestsPerCall     int
}

// NewScheduleOptimizerService wires the optimization pipeline.
func NewScheduleOptimizerService(
	slots *SlotGenerator,
	engine *AssignmentEngine,
	risk RiskAssessor,
	patterns PatternLoader,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg OptimizerConfig,
) *ScheduleOptimizerService {
	if slots == nil {
		slots = NewSlotGenerator()
	}
	if cfg.SlotGranularityMinutes <= 0 {
		cfg.SlotGranularityMinutes = DefaultSlotGranularityMinutes
	}
	if engine == nil {
		engine = NewAssignmentEngine(nil, cfg.SlotGranularityMinutes)
	}
	if cfg.AverageRevenue <= 0 {
		cfg.AverageRevenue = 150.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleOptimizerService{
		slots:          slots,
		engine:         engine,
		risk:           risk,
		patterns:       patterns,
		metrics:        metrics,
		validator:      validator.New(),
		logger:         logger,
		granularity:    cfg.SlotGranularityMinutes,
		averageRevenue: cfg.AverageRevenue,
		maxRequests:    cfg.MaxRequestsPerCall,
	}
}

// Optimize runs one synchronous optimization pass. Reentrant; concurrent
// calls share only the risk cache behind the assessor.
func (s *ScheduleOptimizerService) Optimize(ctx context.Context, req *dto.OptimizeScheduleRequest) (*dto.OptimizeScheduleResponse, error) {
	started := time.Now()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	granularity := req.Constraints.SlotGranularityMinutes
	if granularity <= 0 {
		granularity = s.granularity
	}

	slots := s.slots.Generate(req.DateRange, req.Constraints)

	patterns := s.loadPatterns(ctx, req.ProviderID, req.DateRange)

	requests, risks := s.annotateRisk(ctx, req.AppointmentRequests, patterns)

	result := s.engine.Assign(requests, slots, req.Preferences, patterns)

	summary := summarizeSchedule(result, slots, risks, granularity, s.averageRevenue, req.Preferences)

	s.metrics.ObserveOptimization(time.Since(started))
	s.logger.Info("schedule optimization completed",
		zap.String("provider_id", req.ProviderID),
		zap.Int("requests", len(requests)),
		zap.Int("slots", len(slots)),
		zap.Int("scheduled", len(result.Scheduled)),
		zap.Int("conflicts", summary.ConflictsResolved))

	return &dto.OptimizeScheduleResponse{
		OptimizedSchedule: result.Scheduled,
		UtilizationRate:   summary.UtilizationRate,
		ExpectedNoShows:   summary.ExpectedNoShows,
		RevenueEstimate:   summary.RevenueEstimate,
		ConflictsResolved: summary.ConflictsResolved,
		Recommendations:   summary.Recommendations,
		Explanation:       s.explain(result, slots, summary),
	}, nil
}

// validateRequest enforces the input contract. These are the only errors
// surfaced to the caller.
func (s *ScheduleOptimizerService) validateRequest(req *dto.OptimizeScheduleRequest) error {
	if req == nil {
		return appErrors.Clone(appErrors.ErrValidation, "request body is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optimization request")
	}
	if !req.DateRange.End.After(req.DateRange.Start) {
		return appErrors.Clone(appErrors.ErrValidation, "dateRange.startDate must be before dateRange.endDate")
	}
	if s.maxRequests > 0 && len(req.AppointmentRequests) > s.maxRequests {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("appointmentRequests exceeds the per-call limit of %d", s.maxRequests))
	}
	for i, r := range req.AppointmentRequests {
		switch {
		case r.PatientID == "":
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("appointmentRequests[%d]: patientId is required", i))
		case r.Type == "":
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("appointmentRequests[%d]: appointmentType is required", i))
		case r.DurationMinutes <= 0:
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("appointmentRequests[%d]: durationMinutes must be positive", i))
		}
	}
	return nil
}

// loadPatterns fetches historical patterns, degrading to flat defaults on
// any failure so one bad fetch never blocks scheduling.
func (s *ScheduleOptimizerService) loadPatterns(ctx context.Context, providerID string, dateRange models.DateRange) *models.HistoricalPatterns {
	if s.patterns == nil {
		return defaultPatterns()
	}
	patterns, err := s.patterns.Patterns(ctx, providerID, &dateRange.Start, &dateRange.End)
	if err != nil {
		s.logger.Warn("historical patterns unavailable, using defaults",
			zap.String("provider_id", providerID), zap.Error(err))
		return defaultPatterns()
	}
	return patterns
}

func defaultPatterns() *models.HistoricalPatterns {
	return &models.HistoricalPatterns{
		NoShowRateByHour:  map[int]float64{},
		AverageNoShowRate: defaultHourlyNoShowRate,
	}
}

// annotateRisk ensures every request carries a no-show risk, assigning ids
// where missing. Precomputed risks are trusted as-is.
func (s *ScheduleOptimizerService) annotateRisk(
	ctx context.Context,
	requests []models.AppointmentRequest,
	patterns *models.HistoricalPatterns,
) ([]models.AppointmentRequest, map[string]float64) {
	annotated := make([]models.AppointmentRequest, len(requests))
	risks := make(map[string]float64, len(requests))
	copy(annotated, requests)

	for i := range annotated {
		if annotated[i].ID == "" {
			annotated[i].ID = uuid.NewString()
		}
		if annotated[i].NoShowRisk != nil {
			risks[annotated[i].ID] = clamp01(*annotated[i].NoShowRisk)
			continue
		}
		var score float64
		if s.risk != nil {
			score = s.risk.Assess(ctx, annotated[i].ID, annotated[i], featuresFor(annotated[i], patterns)).RiskScore
		} else {
			score = NewHeuristicEstimator().Estimate(annotated[i])
		}
		annotated[i].NoShowRisk = &score
		risks[annotated[i].ID] = score
	}
	return annotated, risks
}

// featuresFor derives the oracle feature vector from request context. The
// preferred time anchors the hour and weekday when supplied.
func featuresFor(req models.AppointmentRequest, patterns *models.HistoricalPatterns) models.PredictionFeatures {
	features := models.PredictionFeatures{}
	if len(req.PreferredTimes) > 0 {
		start := req.PreferredTimes[0].Slot.Start
		features.AppointmentHour = start.Hour()
		features.DayOfWeek = start.Weekday()
	}
	if patterns != nil {
		features.PriorNoShowRate = patterns.AverageNoShowRate
	}
	return features
}

func (s *ScheduleOptimizerService) explain(result AssignmentResult, slots []models.TimeSlot, summary ScheduleSummary) string {
	return fmt.Sprintf(
		"Scheduled %d of %d request(s) across %d available slot(s) at %.0f%% utilization; %d conflict(s) remain.",
		len(result.Scheduled),
		len(result.Scheduled)+summary.ConflictsResolved,
		len(slots),
		summary.UtilizationRate*100,
		summary.ConflictsResolved,
	)
}
