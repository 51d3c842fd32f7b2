package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/scheduling-api/internal/dto"
	"github.com/careloop/scheduling-api/internal/models"
)

// AlertDispatcher forwards risk alerts toward the notification boundary.
type AlertDispatcher interface {
	Dispatch(alert models.RiskAlert)
}

// DefaultRiskBatchChunkSize bounds concurrent oracle calls per batch.
const DefaultRiskBatchChunkSize = 10

// RiskServiceConfig tunes the risk service.
type RiskServiceConfig struct {
	BatchChunkSize int
	OracleTimeout  time.Duration
	AlertCooldown  time.Duration
}

// RiskService computes no-show risk through the oracle, degrades to the
// heuristic on any oracle failure, caches results, and emits alerts for
// elevated scores. Assessment never fails; callers always get a usable
// probability.
type RiskService struct {
	oracle   RiskPredictor
	fallback *HeuristicEstimator
	cache    *RiskAssessmentCache
	alerts   AlertDispatcher
	gate     *alertGate
	metrics  *MetricsService
	logger   *zap.Logger

	chunkSize     int
	oracleTimeout time.Duration
	now           func() time.Time
}

// NewRiskService constructs the risk service. The oracle and dispatcher
// may be nil; a nil oracle means every assessment uses the heuristic.
func NewRiskService(
	oracle RiskPredictor,
	cache *RiskAssessmentCache,
	alerts AlertDispatcher,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg RiskServiceConfig,
) *RiskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchChunkSize <= 0 {
		cfg.BatchChunkSize = DefaultRiskBatchChunkSize
	}
	return &RiskService{
		oracle:        oracle,
		fallback:      NewHeuristicEstimator(),
		cache:         cache,
		alerts:        alerts,
		gate:          newAlertGate(cfg.AlertCooldown),
		metrics:       metrics,
		logger:        logger,
		chunkSize:     cfg.BatchChunkSize,
		oracleTimeout: cfg.OracleTimeout,
		now:           time.Now,
	}
}

// Assess returns the risk assessment for one appointment, computing and
// caching it on a miss. Concurrent calls for the same id may both compute;
// last write wins, which is acceptable because the computation is
// idempotent.
func (s *RiskService) Assess(
	ctx context.Context,
	appointmentID string,
	req models.AppointmentRequest,
	features models.PredictionFeatures,
) models.RiskAssessment {
	if s.cache != nil {
		if cached, ok := s.cache.Get(appointmentID); ok {
			return cached
		}
	}

	prediction := s.predict(ctx, req, features)
	assessment := models.RiskAssessment{
		AppointmentID: appointmentID,
		RiskScore:     prediction.RiskScore,
		RiskLevel:     models.RiskLevelFor(prediction.RiskScore),
		Timestamp:     s.now().UTC(),
	}

	if s.cache != nil {
		s.cache.Put(assessment)
	}
	s.maybeAlert(assessment, prediction)
	return assessment
}

// predict runs the oracle with its timeout and falls back to the heuristic
// on any failure. The fallback path never errors.
func (s *RiskService) predict(ctx context.Context, req models.AppointmentRequest, features models.PredictionFeatures) models.RiskPrediction {
	if s.oracle != nil {
		octx := ctx
		if s.oracleTimeout > 0 {
			var cancel context.CancelFunc
			octx, cancel = context.WithTimeout(ctx, s.oracleTimeout)
			defer cancel()
		}
		prediction, err := s.oracle.Predict(octx, features)
		if err == nil && prediction != nil {
			score := clamp01(prediction.RiskScore)
			return models.RiskPrediction{
				RiskScore:       score,
				RiskLevel:       models.RiskLevelFor(score),
				Factors:         prediction.Factors,
				Recommendations: prediction.Recommendations,
			}
		}
		if err != nil {
			s.logger.Warn("risk oracle unavailable, using heuristic fallback", zap.Error(err))
		}
	}

	s.metrics.RecordOracleFallback()
	score := s.fallback.Estimate(req)
	return models.RiskPrediction{
		RiskScore: score,
		RiskLevel: models.RiskLevelFor(score),
	}
}

// maybeAlert emits an alert for medium or high freshly computed scores,
// deduplicated per appointment within the cooldown window.
func (s *RiskService) maybeAlert(assessment models.RiskAssessment, prediction models.RiskPrediction) {
	if s.alerts == nil || assessment.RiskLevel == models.RiskLow {
		return
	}
	if !s.gate.allow(assessment.AppointmentID) {
		return
	}
	s.metrics.RecordRiskAlert()
	s.alerts.Dispatch(models.RiskAlert{
		AppointmentID:   assessment.AppointmentID,
		RiskScore:       assessment.RiskScore,
		RiskLevel:       assessment.RiskLevel,
		Factors:         prediction.Factors,
		Recommendations: prediction.Recommendations,
		EmittedAt:       assessment.Timestamp,
	})
}

// BatchAssess fans assessments out in bounded chunks so the optimizer
// never issues unbounded parallel calls to the oracle.
func (s *RiskService) BatchAssess(ctx context.Context, items []dto.RiskComputeItem) map[string]models.RiskAssessment {
	results := make(map[string]models.RiskAssessment, len(items))
	var mu sync.Mutex

	for start := 0; start < len(items); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for _, item := range items[start:end] {
			wg.Add(1)
			go func(item dto.RiskComputeItem) {
				defer wg.Done()
				assessment := s.Assess(ctx, item.AppointmentID, models.AppointmentRequest{ID: item.AppointmentID}, item.Features)
				mu.Lock()
				results[item.AppointmentID] = assessment
				mu.Unlock()
			}(item)
		}
		wg.Wait()
	}

	return results
}

// Cached returns the fresh cached assessment, if any, without computing.
func (s *RiskService) Cached(appointmentID string) (models.RiskAssessment, bool) {
	if s.cache == nil {
		return models.RiskAssessment{}, false
	}
	return s.cache.Get(appointmentID)
}

// Invalidate drops the cached assessment for the appointment.
func (s *RiskService) Invalidate(appointmentID string) {
	if s.cache != nil {
		s.cache.Delete(appointmentID)
	}
}
