package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/careloop/scheduling-api/internal/models"
)

// OutcomeRepository exposes read-optimised queries over historical
// appointment outcomes.
type OutcomeRepository struct {
	db *sqlx.DB
}

// NewOutcomeRepository instantiates the repository.
func NewOutcomeRepository(db *sqlx.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// HourlyOutcomes aggregates appointment outcomes per hour of day for a
// provider, with optional date filtering.
func (r *OutcomeRepository) HourlyOutcomes(ctx context.Context, filter models.OutcomeFilter) ([]models.HourlyOutcome, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT EXTRACT(HOUR FROM scheduled_at)::INT AS hour,
        COUNT(*) AS total,
        SUM(CASE WHEN status = 'no_show' THEN 1 ELSE 0 END) AS no_shows,
        CASE WHEN COUNT(*) = 0 THEN 0 ELSE SUM(CASE WHEN status = 'no_show' THEN 1 ELSE 0 END)::DECIMAL / COUNT(*) END AS no_show_rate
        FROM appointment_outcomes WHERE 1=1`)
	var args []interface{}
	if filter.ProviderID != "" {
		args = append(args, filter.ProviderID)
		builder.WriteString(fmt.Sprintf(" AND provider_id = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		builder.WriteString(fmt.Sprintf(" AND scheduled_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		builder.WriteString(fmt.Sprintf(" AND scheduled_at <= $%d", len(args)))
	}
	builder.WriteString(" GROUP BY 1 ORDER BY 1")

	var rows []models.HourlyOutcome
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query hourly outcomes: %w", err)
	}
	return rows, nil
}

// ProviderSummary aggregates a provider's overall volume and no-show rate.
func (r *OutcomeRepository) ProviderSummary(ctx context.Context, filter models.OutcomeFilter) (*models.ProviderOutcomeSummary, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT provider_id,
        COUNT(*) AS total_appointments,
        SUM(CASE WHEN status = 'no_show' THEN 1 ELSE 0 END) AS total_no_shows,
        CASE WHEN COUNT(*) = 0 THEN 0 ELSE SUM(CASE WHEN status = 'no_show' THEN 1 ELSE 0 END)::DECIMAL / COUNT(*) END AS avg_no_show_rate,
        CASE WHEN COUNT(DISTINCT scheduled_at::DATE) = 0 THEN 0 ELSE COUNT(*)::DECIMAL / COUNT(DISTINCT scheduled_at::DATE) END AS avg_daily_appointments
        FROM appointment_outcomes WHERE provider_id = $1`)
	args := []interface{}{filter.ProviderID}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		builder.WriteString(fmt.Sprintf(" AND scheduled_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		builder.WriteString(fmt.Sprintf(" AND scheduled_at <= $%d", len(args)))
	}
	builder.WriteString(" GROUP BY provider_id")

	var summary models.ProviderOutcomeSummary
	if err := r.db.GetContext(ctx, &summary, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query provider summary: %w", err)
	}
	return &summary, nil
}
