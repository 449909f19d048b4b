package model

import (
	"strconv"
	"strings"
	"time"
)

// BroadcastDayUnknown is the sentinel stored when the provider reports no
// broadcast slot for a title. Titles with an unknown day cannot be scheduled.
const BroadcastDayUnknown = "unknown"

// weekdays maps the provider's lowercase day names to time.Weekday.
var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Broadcast is the weekly airing slot of a title.
type Broadcast struct {
	DayOfWeek string // monday..sunday, or "unknown"
	StartTime string // "HH:MM", empty when unknown
}

// Slot resolves the broadcast into a concrete weekly trigger time.
// A missing or unparseable start time defaults to 00:00 so that a title with a
// known day is still schedulable. ok is false only when the day is unknown.
func (b Broadcast) Slot() (day time.Weekday, hour, minute int, ok bool) {
	day, ok = weekdays[strings.ToLower(b.DayOfWeek)]
	if !ok {
		return 0, 0, 0, false
	}

	parts := strings.SplitN(b.StartTime, ":", 2)
	if len(parts) == 2 {
		h, herr := strconv.Atoi(parts[0])
		m, merr := strconv.Atoi(parts[1])
		if herr == nil && merr == nil && h >= 0 && h < 24 && m >= 0 && m < 60 {
			hour, minute = h, m
		}
	}
	return day, hour, minute, true
}

// Schedulable reports whether the slot is concrete enough to register a
// weekly notification trigger.
func (b Broadcast) Schedulable() bool {
	_, _, _, ok := b.Slot()
	return ok
}
