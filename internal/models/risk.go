package models

import "time"

// RiskLevel buckets a continuous no-show probability.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Fixed thresholds for bucketing risk scores.
const (
	MediumRiskThreshold = 0.3
	HighRiskThreshold   = 0.7
)

// RiskLevelFor buckets a probability using the fixed thresholds.
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= HighRiskThreshold:
		return RiskHigh
	case score >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskAssessment is a cached no-show risk computation for one appointment.
type RiskAssessment struct {
	AppointmentID string    `json:"appointmentId"`
	RiskScore     float64   `json:"riskScore"`
	RiskLevel     RiskLevel `json:"riskLevel"`
	Timestamp     time.Time `json:"timestamp"`
}

// PredictionFeatures is the feature vector handed to the risk oracle.
type PredictionFeatures struct {
	AppointmentHour int          `json:"appointmentHour"`
	DayOfWeek       time.Weekday `json:"dayOfWeek"`
	PriorNoShowRate float64      `json:"priorNoShowRate"`
	DistanceKM      float64      `json:"distanceKm"`
	InsuranceClass  string       `json:"insuranceClass"`
	WeatherIndex    float64      `json:"weatherIndex"`
	ReminderCount   int          `json:"reminderCount"`
}

// RiskFactor explains one contribution to a prediction.
type RiskFactor struct {
	Factor      string  `json:"factor"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

// RiskPrediction is the oracle's full answer. The optimizer consumes only
// RiskScore; the explanation fields feed external reporting.
type RiskPrediction struct {
	RiskScore       float64      `json:"riskScore"`
	RiskLevel       RiskLevel    `json:"riskLevel"`
	Factors         []RiskFactor `json:"factors,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
}

// RiskAlert is the payload emitted to the external notifier when a freshly
// computed risk crosses the medium threshold.
type RiskAlert struct {
	AppointmentID   string       `json:"appointmentId"`
	RiskScore       float64      `json:"riskScore"`
	RiskLevel       RiskLevel    `json:"riskLevel"`
	Factors         []RiskFactor `json:"factors,omitempty"`
	Recommendations []string     `json:"recommendations,omitempty"`
	EmittedAt       time.Time    `json:"emittedAt"`
}
