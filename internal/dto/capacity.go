package dto

import (
	"time"

	"github.com/careloop/scheduling-api/internal/models"
)

// CapacityPlanRequest scopes a provider capacity planning run.
type CapacityPlanRequest struct {
	ProviderID        string               `json:"providerId" validate:"required"`
	DateFrom          *time.Time           `json:"dateFrom,omitempty"`
	DateTo            *time.Time           `json:"dateTo,omitempty"`
	TargetUtilization float64              `json:"targetUtilization" validate:"omitempty,gt=0,lte=1"`
	RiskTolerance     models.RiskTolerance `json:"riskTolerance" validate:"omitempty,oneof=low medium high"`
}
