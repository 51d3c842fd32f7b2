package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/careloop/scheduling-api/internal/models"
)

// DefaultSlotGranularityMinutes is the slot width used when constraints do
// not specify one.
const DefaultSlotGranularityMinutes = 15

// SlotGenerator expands a date range and scheduling constraints into the
// flat, date-ordered set of bookable slots. It is a pure function of its
// inputs and never mutates the constraints.
type SlotGenerator struct{}

// NewSlotGenerator constructs a slot generator.
func NewSlotGenerator() *SlotGenerator {
	return &SlotGenerator{}
}

// Generate walks every calendar day in the range (both endpoints
// inclusive), skips non-working days, and emits fixed-granularity slots
// inside working hours. Slots overlapping a break or blocked interval are
// excluded at generation time, so downstream consumers never re-filter.
func (g *SlotGenerator) Generate(dateRange models.DateRange, constraints models.SchedulingConstraints) []models.TimeSlot {
	granularity := constraints.SlotGranularityMinutes
	if granularity <= 0 {
		granularity = DefaultSlotGranularityMinutes
	}
	step := time.Duration(granularity) * time.Minute

	startHour, startMin, ok := parseClock(constraints.WorkingHours.Start)
	if !ok {
		startHour, startMin = 9, 0
	}
	endHour, endMin, ok := parseClock(constraints.WorkingHours.End)
	if !ok {
		endHour, endMin = 17, 0
	}

	workingDays := workingDaySet(constraints.WorkingDays)

	var slots []models.TimeSlot
	first := dateOf(dateRange.Start)
	last := dateOf(dateRange.End)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if _, ok := workingDays[day.Weekday()]; !ok {
			continue
		}

		dayStart := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, day.Location())
		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, day.Location())
		if !dayEnd.After(dayStart) {
			continue
		}

		for cursor := dayStart; !cursor.Add(step).After(dayEnd); cursor = cursor.Add(step) {
			slotEnd := cursor.Add(step)
			if overlapsAny(constraints.BreakTimes, cursor, slotEnd) {
				continue
			}
			if overlapsAny(constraints.BlockedTimes, cursor, slotEnd) {
				continue
			}
			slots = append(slots, models.TimeSlot{Start: cursor, End: slotEnd})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots
}

func overlapsAny(intervals []models.TimeInterval, start, end time.Time) bool {
	for _, interval := range intervals {
		if interval.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func workingDaySet(days []time.Weekday) map[time.Weekday]struct{} {
	set := make(map[time.Weekday]struct{}, len(days))
	if len(days) == 0 {
		for d := time.Monday; d <= time.Friday; d++ {
			set[d] = struct{}{}
		}
		return set
	}
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseClock parses an HH:MM wall-clock string.
func parseClock(raw string) (hour, minute int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
