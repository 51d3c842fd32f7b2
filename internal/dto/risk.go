package dto

import (
	"github.com/careloop/scheduling-api/internal/models"
)

// RiskComputeItem identifies one appointment and the feature vector to
// assess it with.
type RiskComputeItem struct {
	AppointmentID string                    `json:"appointmentId" validate:"required"`
	Features      models.PredictionFeatures `json:"features"`
}

// BatchRiskRequest asks for assessments across a set of appointments.
type BatchRiskRequest struct {
	Items []RiskComputeItem `json:"items" validate:"required,min=1,dive"`
}

// BatchRiskResponse returns the assessments keyed by appointment id.
type BatchRiskResponse struct {
	Assessments map[string]models.RiskAssessment `json:"assessments"`
}
