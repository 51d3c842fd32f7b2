package dto

import (
	"github.com/careloop/scheduling-api/internal/models"
)

// OptimizeScheduleRequest carries one optimization pass worth of input.
type OptimizeScheduleRequest struct {
	ProviderID          string                       `json:"providerId" validate:"required"`
	DateRange           models.DateRange             `json:"dateRange"`
	AppointmentRequests []models.AppointmentRequest  `json:"appointmentRequests" validate:"required,min=1"`
	Constraints         models.SchedulingConstraints `json:"constraints"`
	Preferences         models.SchedulingPreferences `json:"preferences"`
}

// OptimizeScheduleResponse is the optimizer output contract.
type OptimizeScheduleResponse struct {
	OptimizedSchedule []models.OptimizedAppointment `json:"optimizedSchedule"`
	UtilizationRate   float64                       `json:"utilizationRate"`
	ExpectedNoShows   float64                       `json:"expectedNoShows"`
	RevenueEstimate   float64                       `json:"revenueEstimate"`
	ConflictsResolved int                           `json:"conflictsResolved"`
	Recommendations   []string                      `json:"recommendations"`
	Explanation       string                        `json:"explanation"`
}
