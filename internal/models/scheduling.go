package models

import "time"

// Priority ranks how urgently a request should be placed.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight maps the priority onto the ordinal scale used by the scorer and
// the assignment ordering.
func (p Priority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// AppointmentType categorises the visit kind.
type AppointmentType string

const (
	AppointmentRoutine      AppointmentType = "routine"
	AppointmentFollowUp     AppointmentType = "follow_up"
	AppointmentConsultation AppointmentType = "consultation"
	AppointmentProcedure    AppointmentType = "procedure"
)

// TimeSlot is a fixed-granularity bookable unit within working hours.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the slot intersects the [start, end) interval.
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

// Minutes returns the slot length in whole minutes.
func (s TimeSlot) Minutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}

// PreferredTime pairs a desired slot with a 1-10 preference strength.
type PreferredTime struct {
	Slot       TimeSlot `json:"slot"`
	Preference int      `json:"preference"`
}

// AppointmentRequest is one pending request inside an optimization pass.
// Immutable during the pass; the caller owns it.
type AppointmentRequest struct {
	ID              string          `json:"id"`
	PatientID       string          `json:"patientId"`
	Type            AppointmentType `json:"appointmentType"`
	DurationMinutes int             `json:"durationMinutes"`
	Priority        Priority        `json:"priority"`
	PreferredTimes  []PreferredTime `json:"preferredTimes,omitempty"`
	// NoShowRisk is an optional precomputed probability in [0,1]. When nil
	// the optimizer computes one through the risk estimator.
	NoShowRisk *float64 `json:"noShowRisk,omitempty"`
}

// TimeInterval is a half-open [Start, End) wall-clock interval.
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the interval intersects [start, end).
func (i TimeInterval) Overlaps(start, end time.Time) bool {
	return i.Start.Before(end) && i.End.After(start)
}

// WorkingHours holds the daily bookable window as HH:MM clock strings.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SchedulingConstraints bound which slots may be generated for a provider.
type SchedulingConstraints struct {
	WorkingHours WorkingHours `json:"workingHours"`
	// WorkingDays lists bookable weekdays. Empty means Monday through Friday.
	WorkingDays  []time.Weekday `json:"workingDays,omitempty"`
	BreakTimes   []TimeInterval `json:"breakTimes,omitempty"`
	BlockedTimes []TimeInterval `json:"blockedTimes,omitempty"`
	// SlotGranularityMinutes defaults to 15 when zero.
	SlotGranularityMinutes int `json:"slotGranularityMinutes,omitempty"`
}

// SchedulingPreferences are the optimizer behaviour knobs.
type SchedulingPreferences struct {
	ConsiderPatientPreferences bool `json:"considerPatientPreferences"`
	BalanceWorkload            bool `json:"balanceWorkload"`
	PrioritizeHighRisk         bool `json:"prioritizeHighRisk"`
	OverbookingAllowed         bool `json:"overbookingAllowed"`
}

// OptimizedAppointment is one placed request in the optimized schedule.
type OptimizedAppointment struct {
	RequestID        string     `json:"requestId"`
	PatientID        string     `json:"patientId"`
	ScheduledTime    time.Time  `json:"scheduledTime"`
	DurationMinutes  int        `json:"durationMinutes"`
	Confidence       float64    `json:"confidence"`
	AlternativeSlots []TimeSlot `json:"alternativeSlots,omitempty"`
	Overbooked       bool       `json:"overbooked,omitempty"`
}

// DateRange is a calendar window. Both endpoint dates are inclusive; the
// time-of-day portion is ignored when expanding the range into days.
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// HistoricalPatterns aggregates past appointment outcomes for a provider.
type HistoricalPatterns struct {
	NoShowRateByHour         map[int]float64 `json:"noShowRateByHour"`
	PeakHours                []int           `json:"peakHours"`
	AverageNoShowRate        float64         `json:"averageNoShowRate"`
	AverageDailyAppointments float64         `json:"averageDailyAppointments"`
}
