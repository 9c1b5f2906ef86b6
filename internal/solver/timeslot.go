package solver

import (
	"fmt"
	"time"
)

// Days of the teaching week, Monday through Saturday.
var Days = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
}

// Daily teaching bands and the slot granularity, in minutes from midnight.
const (
	MorningStart   = 8 * 60
	MorningEnd     = 12*60 + 30
	AfternoonStart = 13 * 60
	AfternoonEnd   = 20*60 + 30
	SlotMinutes    = 90
)

// Timeslot is a fixed weekly time window. Identity is the sequence number
// assigned at generation time; two slots with equal day and times but
// different ids are distinct.
type Timeslot struct {
	ID    int
	Day   time.Weekday
	Start int // minutes from midnight
	End   int
}

// GenerateTimeslots produces the full catalog of schedulable windows:
// Monday-Saturday, 90-minute slices within 08:00-12:30 and 13:00-20:30,
// with the last slice of each band clipped to the band boundary. The
// output is identical on every call.
func GenerateTimeslots() []Timeslot {
	var slots []Timeslot
	id := 1
	for _, day := range Days {
		for _, band := range [][2]int{{MorningStart, MorningEnd}, {AfternoonStart, AfternoonEnd}} {
			for start := band[0]; start < band[1]; start += SlotMinutes {
				end := start + SlotMinutes
				if end > band[1] {
					end = band[1]
				}
				slots = append(slots, Timeslot{ID: id, Day: day, Start: start, End: end})
				id++
			}
		}
	}
	return slots
}

// FindTimeslot resolves a (day, start) pair back to a catalog slot index,
// or -1 when no slot starts at that exact time.
func FindTimeslot(slots []Timeslot, day time.Weekday, start int) int {
	for i, ts := range slots {
		if ts.Day == day && ts.Start == start {
			return i
		}
	}
	return -1
}

// FormatClock renders minutes-from-midnight in the 12-hour form stored on
// published sessions, e.g. "08:00 AM".
func FormatClock(minutes int) string {
	minutes %= 24 * 60
	h := minutes / 60
	m := minutes % 60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	display := h % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%02d:%02d %s", display, m, suffix)
}

// ParseClock parses the 12-hour clock form back to minutes from midnight.
func ParseClock(raw string) (int, error) {
	t, err := time.Parse("03:04 PM", raw)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDay maps the stored upper-case day name to a weekday.
func ParseDay(raw string) (time.Weekday, bool) {
	for _, day := range Days {
		if dayName(day) == raw {
			return day, true
		}
	}
	return 0, false
}

func dayName(day time.Weekday) string {
	switch day {
	case time.Monday:
		return "MONDAY"
	case time.Tuesday:
		return "TUESDAY"
	case time.Wednesday:
		return "WEDNESDAY"
	case time.Thursday:
		return "THURSDAY"
	case time.Friday:
		return "FRIDAY"
	case time.Saturday:
		return "SATURDAY"
	default:
		return "SUNDAY"
	}
}

// DayName exposes the stored form of a weekday for persistence and export.
func DayName(day time.Weekday) string { return dayName(day) }
