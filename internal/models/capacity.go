package models

import "time"

// RiskTolerance expresses how aggressively capacity may be planned.
type RiskTolerance string

const (
	ToleranceLow    RiskTolerance = "low"
	ToleranceMedium RiskTolerance = "medium"
	ToleranceHigh   RiskTolerance = "high"
)

// OverbookingStrategy describes which slots should be deliberately
// double-booked and by how much.
type OverbookingStrategy struct {
	Enabled     bool     `json:"enabled"`
	Percentage  float64  `json:"percentage"`
	TargetHours []int    `json:"targetHours,omitempty"`
}

// RiskMitigation lists the time buckets with elevated no-show rates and
// the suggested counter-measures.
type RiskMitigation struct {
	HighRiskHours      []int    `json:"highRiskHours,omitempty"`
	RecommendedActions []string `json:"recommendedActions,omitempty"`
}

// UtilizationForecast is the planner's 3-point utilization projection.
type UtilizationForecast struct {
	Expected    float64 `json:"expected"`
	Optimistic  float64 `json:"optimistic"`
	Pessimistic float64 `json:"pessimistic"`
}

// ProviderCapacityPlan is the coarse-grained planning output consumed by
// staffing and operations tooling.
type ProviderCapacityPlan struct {
	ProviderID          string              `json:"providerId"`
	RecommendedCapacity int                 `json:"recommendedCapacity"`
	Overbooking         OverbookingStrategy `json:"overbookingStrategy"`
	RiskMitigation      RiskMitigation      `json:"riskMitigation"`
	Forecast            UtilizationForecast `json:"utilizationForecast"`
	GeneratedAt         time.Time           `json:"generatedAt"`
}
