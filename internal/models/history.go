package models

import "time"

// OutcomeFilter scopes outcome-history queries.
type OutcomeFilter struct {
	ProviderID string
	DateFrom   *time.Time
	DateTo     *time.Time
}

// HourlyOutcome is an aggregated per-hour outcome row.
type HourlyOutcome struct {
	Hour       int     `db:"hour" json:"hour"`
	Total      int     `db:"total" json:"total"`
	NoShows    int     `db:"no_shows" json:"no_shows"`
	NoShowRate float64 `db:"no_show_rate" json:"no_show_rate"`
}

// ProviderOutcomeSummary aggregates a provider's historical volume.
type ProviderOutcomeSummary struct {
	ProviderID               string  `db:"provider_id" json:"provider_id"`
	TotalAppointments        int     `db:"total_appointments" json:"total_appointments"`
	TotalNoShows             int     `db:"total_no_shows" json:"total_no_shows"`
	AverageNoShowRate        float64 `db:"avg_no_show_rate" json:"average_no_show_rate"`
	AverageDailyAppointments float64 `db:"avg_daily_appointments" json:"average_daily_appointments"`
}
