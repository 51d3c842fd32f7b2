package service

import (
	"math"

	"github.com/careloop/scheduling-api/internal/models"
)

// ScoreWeights holds the relative weight of each scoring dimension. The
// weights are expected to sum to 1.
type ScoreWeights struct {
	Utilization        float64
	NoShowRisk         float64
	PatientPreference  float64
	Revenue            float64
	ProviderEfficiency float64
}

// DefaultScoreWeights returns the production weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Utilization:        0.30,
		NoShowRisk:         0.25,
		PatientPreference:  0.20,
		Revenue:            0.15,
		ProviderEfficiency: 0.10,
	}
}

func (w ScoreWeights) isZero() bool {
	return w.Utilization == 0 && w.NoShowRisk == 0 && w.PatientPreference == 0 &&
		w.Revenue == 0 && w.ProviderEfficiency == 0
}

// SlotScorer rates how well a slot fits an appointment request. Scoring is
// pure and deterministic so repeated optimization runs are reproducible.
type SlotScorer struct {
	weights     ScoreWeights
	granularity int
}

// NewSlotScorer constructs a scorer. Zero weights fall back to the default
// weighting; a non-positive granularity falls back to the default width.
func NewSlotScorer(weights ScoreWeights, granularityMinutes int) *SlotScorer {
	if weights.isZero() {
		weights = DefaultScoreWeights()
	}
	if granularityMinutes <= 0 {
		granularityMinutes = DefaultSlotGranularityMinutes
	}
	return &SlotScorer{weights: weights, granularity: granularityMinutes}
}

// defaultHourlyNoShowRate is assumed when no history exists for a slot hour.
const defaultHourlyNoShowRate = 0.15

// Score computes the weighted fit of (slot, request) in [0, 1].
func (s *SlotScorer) Score(
	slot models.TimeSlot,
	req models.AppointmentRequest,
	prefs models.SchedulingPreferences,
	patterns *models.HistoricalPatterns,
) float64 {
	score := s.weights.PatientPreference*s.preferenceScore(slot, req, prefs) +
		s.weights.NoShowRisk*s.riskScore(slot, patterns) +
		s.weights.ProviderEfficiency*s.efficiencyScore(slot, prefs, patterns) +
		s.weights.Revenue*s.revenueScore(req) +
		s.weights.Utilization*s.utilizationScore(slot, req)
	return clamp01(score)
}

// preferenceScore rewards slots near the patient's preferred times. Neutral
// 0.5 when no preferences are supplied or preference matching is disabled.
func (s *SlotScorer) preferenceScore(slot models.TimeSlot, req models.AppointmentRequest, prefs models.SchedulingPreferences) float64 {
	if !prefs.ConsiderPatientPreferences || len(req.PreferredTimes) == 0 {
		return 0.5
	}
	best := 0.0
	for _, preferred := range req.PreferredTimes {
		hoursDiff := math.Abs(slot.Start.Sub(preferred.Slot.Start).Hours())
		proximity := math.Max(0, 1-hoursDiff/24)
		strength := float64(preferred.Preference) / 10
		if v := proximity * strength; v > best {
			best = v
		}
	}
	return best
}

// riskScore penalises hours with elevated historical no-show rates.
func (s *SlotScorer) riskScore(slot models.TimeSlot, patterns *models.HistoricalPatterns) float64 {
	rate := defaultHourlyNoShowRate
	if patterns != nil {
		if r, ok := patterns.NoShowRateByHour[slot.Start.Hour()]; ok {
			rate = r
		}
	}
	return clamp01(1 - rate)
}

// efficiencyScore discourages piling work onto historical peak hours when
// workload balancing is requested; contributes nothing otherwise.
func (s *SlotScorer) efficiencyScore(slot models.TimeSlot, prefs models.SchedulingPreferences, patterns *models.HistoricalPatterns) float64 {
	if !prefs.BalanceWorkload {
		return 0
	}
	if patterns != nil {
		for _, hour := range patterns.PeakHours {
			if slot.Start.Hour() == hour {
				return 0.8
			}
		}
	}
	return 1.0
}

func (s *SlotScorer) revenueScore(req models.AppointmentRequest) float64 {
	return float64(req.Priority.Weight()) / 4
}

// utilizationScore rewards durations that tightly fill whole slot units.
// The unit is the width of the slot being scored, so a per-request
// granularity override carries through.
func (s *SlotScorer) utilizationScore(slot models.TimeSlot, req models.AppointmentRequest) float64 {
	if req.DurationMinutes <= 0 {
		return 0
	}
	granularity := s.granularity
	if width := slot.Minutes(); width > 0 {
		granularity = width
	}
	needed := slotsNeeded(req.DurationMinutes, granularity)
	return clamp01(float64(req.DurationMinutes) / float64(needed*granularity))
}

func slotsNeeded(durationMinutes, granularity int) int {
	if granularity <= 0 {
		granularity = DefaultSlotGranularityMinutes
	}
	n := durationMinutes / granularity
	if durationMinutes%granularity != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
