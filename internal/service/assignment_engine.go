package service

import (
	"sort"

	"github.com/careloop/scheduling-api/internal/models"
)

// AssignmentResult splits an optimization pass into placed appointments and
// requests that could not be placed. Shortfall is data, never an error.
type AssignmentResult struct {
	Scheduled []models.OptimizedAppointment
	Conflicts []models.AppointmentRequest
}

// AssignmentEngine performs single-pass greedy placement of appointment
// requests into generated slots. It holds no shared state, so independent
// optimization runs may execute fully in parallel.
type AssignmentEngine struct {
	scorer      *SlotScorer
	granularity int
}

// NewAssignmentEngine constructs an engine. A nil scorer falls back to the
// default weighting.
func NewAssignmentEngine(scorer *SlotScorer, granularityMinutes int) *AssignmentEngine {
	if scorer == nil {
		scorer = NewSlotScorer(DefaultScoreWeights(), granularityMinutes)
	}
	if granularityMinutes <= 0 {
		granularityMinutes = DefaultSlotGranularityMinutes
	}
	return &AssignmentEngine{scorer: scorer, granularity: granularityMinutes}
}

const maxAlternativeSlots = 3

// Assign orders requests by priority (optionally boosted by no-show risk),
// then greedily places each into its best-scoring free contiguous block.
// Ties go to the earliest start. When overbooking is allowed, requests that
// find no free block are placed on top of occupied slots without consuming
// primary occupancy. Deterministic given identical inputs.
func (e *AssignmentEngine) Assign(
	requests []models.AppointmentRequest,
	slots []models.TimeSlot,
	prefs models.SchedulingPreferences,
	patterns *models.HistoricalPatterns,
) AssignmentResult {
	ordered := make([]models.AppointmentRequest, len(requests))
	copy(ordered, requests)
	sort.SliceStable(ordered, func(i, j int) bool {
		return e.orderKey(ordered[i], prefs) > e.orderKey(ordered[j], prefs)
	})

	// Capacity math follows the width of the supplied slots, not the
	// construction-time default, so a granularity override on the request
	// constraints carries through.
	granularity := e.granularity
	if len(slots) > 0 {
		if width := slots[0].Minutes(); width > 0 {
			granularity = width
		}
	}

	used := make([]bool, len(slots))
	result := AssignmentResult{}

	for _, req := range ordered {
		needed := slotsNeeded(req.DurationMinutes, granularity)

		candidates := e.candidateBlocks(slots, used, needed, false)
		overbooked := false
		if len(candidates) == 0 && prefs.OverbookingAllowed {
			candidates = e.candidateBlocks(slots, used, needed, true)
			overbooked = true
		}
		if len(candidates) == 0 {
			result.Conflicts = append(result.Conflicts, req)
			continue
		}

		scored := e.scoreCandidates(candidates, slots, req, prefs, patterns)
		best := scored[0]

		if !overbooked {
			for k := 0; k < needed; k++ {
				used[best.index+k] = true
			}
		}

		result.Scheduled = append(result.Scheduled, models.OptimizedAppointment{
			RequestID:        req.ID,
			PatientID:        req.PatientID,
			ScheduledTime:    slots[best.index].Start,
			DurationMinutes:  req.DurationMinutes,
			Confidence:       best.score,
			AlternativeSlots: alternativesOf(scored, slots),
			Overbooked:       overbooked,
		})
	}

	return result
}

// orderKey is the descending sort key for request ordering. Risk only
// participates when the caller asked high-risk requests to go first.
func (e *AssignmentEngine) orderKey(req models.AppointmentRequest, prefs models.SchedulingPreferences) float64 {
	key := 2 * float64(req.Priority.Weight())
	if prefs.PrioritizeHighRisk && req.NoShowRisk != nil {
		key += *req.NoShowRisk
	}
	return key
}

// candidateBlocks returns the start indices of every contiguous block of
// `needed` slots. With overbook=false a block must be entirely unused; with
// overbook=true occupancy is ignored and only contiguity matters.
func (e *AssignmentEngine) candidateBlocks(slots []models.TimeSlot, used []bool, needed int, overbook bool) []int {
	var starts []int
	for i := 0; i+needed <= len(slots); i++ {
		if blockFits(slots, used, i, needed, overbook) {
			starts = append(starts, i)
		}
	}
	return starts
}

func blockFits(slots []models.TimeSlot, used []bool, start, needed int, overbook bool) bool {
	for k := 0; k < needed; k++ {
		idx := start + k
		if !overbook && used[idx] {
			return false
		}
		if k > 0 && !slots[idx].Start.Equal(slots[idx-1].End) {
			return false
		}
	}
	return true
}

type scoredBlock struct {
	index int
	score float64
}

// scoreCandidates scores every block start and returns them best-first.
// Equal scores keep slot order, so ties resolve to the earliest start.
func (e *AssignmentEngine) scoreCandidates(
	starts []int,
	slots []models.TimeSlot,
	req models.AppointmentRequest,
	prefs models.SchedulingPreferences,
	patterns *models.HistoricalPatterns,
) []scoredBlock {
	scored := make([]scoredBlock, 0, len(starts))
	for _, idx := range starts {
		scored = append(scored, scoredBlock{
			index: idx,
			score: e.scorer.Score(slots[idx], req, prefs, patterns),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

func alternativesOf(scored []scoredBlock, slots []models.TimeSlot) []models.TimeSlot {
	if len(scored) <= 1 {
		return nil
	}
	runners := scored[1:]
	if len(runners) > maxAlternativeSlots {
		runners = runners[:maxAlternativeSlots]
	}
	alts := make([]models.TimeSlot, 0, len(runners))
	for _, b := range runners {
		alts = append(alts, slots[b.index])
	}
	return alts
}
