package service

import (
	"context"
	"math"

	"github.com/careloop/scheduling-api/internal/models"
)

// RiskPredictor computes a no-show probability for an appointment. The
// production implementation calls an external ML oracle; the heuristic
// estimator below is the in-process fallback.
type RiskPredictor interface {
	Predict(ctx context.Context, features models.PredictionFeatures) (*models.RiskPrediction, error)
}

// HeuristicEstimator is the last line of defense when the oracle is down.
// It never returns an error.
type HeuristicEstimator struct{}

// NewHeuristicEstimator constructs the fallback estimator.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{}
}

const (
	heuristicBaseRate = 0.15
	heuristicFloor    = 0.05
	heuristicCeiling  = 0.8
)

// Estimate derives a risk probability from the request alone. Higher
// priority visits no-show less; procedures less than routine visits. The
// result is always within [0.05, 0.8].
func (h *HeuristicEstimator) Estimate(req models.AppointmentRequest) float64 {
	risk := heuristicBaseRate * priorityRiskFactor(req.Priority) * typeRiskFactor(req.Type)
	return math.Max(heuristicFloor, math.Min(heuristicCeiling, risk))
}

func priorityRiskFactor(p models.Priority) float64 {
	switch p {
	case models.PriorityUrgent:
		return 0.5
	case models.PriorityHigh:
		return 0.7
	case models.PriorityLow:
		return 1.3
	default:
		return 1.0
	}
}

func typeRiskFactor(t models.AppointmentType) float64 {
	switch t {
	case models.AppointmentFollowUp:
		return 0.8
	case models.AppointmentConsultation:
		return 0.9
	case models.AppointmentProcedure:
		return 0.6
	default:
		return 1.0
	}
}
