package service

import (
	"fmt"

	"github.com/careloop/scheduling-api/internal/models"
)

// ScheduleSummary aggregates an assignment result into the operational
// numbers surfaced alongside the optimized schedule.
type ScheduleSummary struct {
	UtilizationRate   float64
	ExpectedNoShows   float64
	RevenueEstimate   float64
	ConflictsResolved int
	Recommendations   []string
}

// summarizeSchedule derives the summary from an assignment result. Pure.
// Utilization counts primary occupancy only, so overbooked placements never
// push the rate past what the slot set can physically hold.
func summarizeSchedule(
	result AssignmentResult,
	slots []models.TimeSlot,
	risks map[string]float64,
	granularityMinutes int,
	averageRevenue float64,
	prefs models.SchedulingPreferences,
) ScheduleSummary {
	summary := ScheduleSummary{
		ConflictsResolved: len(result.Conflicts),
		RevenueEstimate:   float64(len(result.Scheduled)) * averageRevenue,
	}

	scheduledMinutes := 0
	for _, appt := range result.Scheduled {
		if !appt.Overbooked {
			scheduledMinutes += appt.DurationMinutes
		}
		summary.ExpectedNoShows += risks[appt.RequestID]
	}

	if capacity := len(slots) * granularityMinutes; capacity > 0 {
		summary.UtilizationRate = float64(scheduledMinutes) / float64(capacity)
	}

	summary.Recommendations = buildRecommendations(summary, prefs)
	return summary
}

// buildRecommendations turns the summary into threshold-driven advisory
// messages for the caller.
func buildRecommendations(summary ScheduleSummary, prefs models.SchedulingPreferences) []string {
	var recs []string
	if summary.UtilizationRate < 0.7 {
		recs = append(recs, "Utilization is below 70%. Consider increasing provider capacity or marketing open slots.")
	}
	if summary.ExpectedNoShows > 0.2*summary.UtilizationRate {
		recs = append(recs, "Expected no-shows are high relative to utilization. Consider strengthening the reminder strategy.")
	}
	if summary.ConflictsResolved > 0 {
		recs = append(recs, fmt.Sprintf("%d request(s) could not be scheduled. Consider extending working hours or offering alternative dates.", summary.ConflictsResolved))
	}
	if summary.UtilizationRate > 0.9 && prefs.OverbookingAllowed {
		recs = append(recs, "Utilization is above 90%. Strategic overbooking of high-risk slots could offset expected no-shows.")
	}
	return recs
}
