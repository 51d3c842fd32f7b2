package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/careloop/scheduling-api/internal/models"
)

func fixedSlots(n int) []models.TimeSlot {
	slots := make([]models.TimeSlot, n)
	cursor := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := range slots {
		slots[i] = models.TimeSlot{Start: cursor, End: cursor.Add(15 * time.Minute)}
		cursor = cursor.Add(15 * time.Minute)
	}
	return slots
}

func TestSummarizeSchedule(t *testing.T) {
	result := AssignmentResult{
		Scheduled: []models.OptimizedAppointment{
			{RequestID: "a", DurationMinutes: 30},
			{RequestID: "b", DurationMinutes: 30},
		},
		Conflicts: []models.AppointmentRequest{{ID: "c"}},
	}
	risks := map[string]float64{"a": 0.2, "b": 0.3}

	summary := summarizeSchedule(result, fixedSlots(8), risks, 15, 150, models.SchedulingPreferences{})

	assert.InDelta(t, 0.5, summary.UtilizationRate, 1e-9)
	assert.InDelta(t, 0.5, summary.ExpectedNoShows, 1e-9)
	assert.InDelta(t, 300, summary.RevenueEstimate, 1e-9)
	assert.Equal(t, 1, summary.ConflictsResolved)
}

func TestSummarizeScheduleCapacityConservation(t *testing.T) {
	result := AssignmentResult{
		Scheduled: []models.OptimizedAppointment{{RequestID: "a", DurationMinutes: 15}},
		Conflicts: []models.AppointmentRequest{{ID: "b"}, {ID: "c"}},
	}

	summary := summarizeSchedule(result, fixedSlots(4), nil, 15, 100, models.SchedulingPreferences{})

	total := len(result.Scheduled) + summary.ConflictsResolved
	assert.Equal(t, 3, total)
}

func TestSummarizeScheduleOverbookedExcludedFromUtilization(t *testing.T) {
	result := AssignmentResult{
		Scheduled: []models.OptimizedAppointment{
			{RequestID: "a", DurationMinutes: 60},
			{RequestID: "b", DurationMinutes: 60, Overbooked: true},
		},
	}
	risks := map[string]float64{"a": 0.1, "b": 0.1}

	summary := summarizeSchedule(result, fixedSlots(4), risks, 15, 100, models.SchedulingPreferences{})

	// Primary occupancy fills the 4 slots exactly; the overbook does not
	// push utilization past 1.
	assert.InDelta(t, 1.0, summary.UtilizationRate, 1e-9)
	// Both placements count toward expected no-shows.
	assert.InDelta(t, 0.2, summary.ExpectedNoShows, 1e-9)
}

func TestSummarizeScheduleEmptySlots(t *testing.T) {
	summary := summarizeSchedule(AssignmentResult{}, nil, nil, 15, 100, models.SchedulingPreferences{})
	assert.Zero(t, summary.UtilizationRate)
}

func TestBuildRecommendationsThresholds(t *testing.T) {
	cases := []struct {
		name    string
		summary ScheduleSummary
		prefs   models.SchedulingPreferences
		want    int
	}{
		{
			name:    "low utilization",
			summary: ScheduleSummary{UtilizationRate: 0.5},
			want:    1,
		},
		{
			name:    "high no-shows",
			summary: ScheduleSummary{UtilizationRate: 0.8, ExpectedNoShows: 0.3},
			want:    1,
		},
		{
			name:    "conflicts reported",
			summary: ScheduleSummary{UtilizationRate: 0.8, ConflictsResolved: 3},
			want:    1,
		},
		{
			name:    "overbooking suggestion",
			summary: ScheduleSummary{UtilizationRate: 0.95},
			prefs:   models.SchedulingPreferences{OverbookingAllowed: true},
			want:    1,
		},
		{
			name:    "healthy schedule",
			summary: ScheduleSummary{UtilizationRate: 0.8},
			want:    0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recs := buildRecommendations(tc.summary, tc.prefs)
			assert.Len(t, recs, tc.want)
		})
	}
}
