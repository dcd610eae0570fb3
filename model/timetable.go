package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DepartureSlot is one scheduled departure from the origin terminus.
// Each slot becomes exactly one Train instance.
type DepartureSlot struct {
	Departure int `json:"departure_min"` // minutes from 00:00
	Capacity  int `json:"capacity"`      // total vehicle capacity (seated + standing)
}

// ValidateTimetable checks ordering and capacities of a departure list.
func ValidateTimetable(slots []DepartureSlot) error {
	if len(slots) == 0 {
		return fmt.Errorf("timetable: no departures")
	}
	for i, s := range slots {
		if s.Departure < 0 {
			return fmt.Errorf("timetable: departure %d before 00:00", i)
		}
		if s.Capacity <= 0 {
			return fmt.Errorf("timetable: departure %s has capacity %d", ClockString(s.Departure), s.Capacity)
		}
		if i > 0 && s.Departure < slots[i-1].Departure {
			return fmt.Errorf("timetable: departures out of order at %s", ClockString(s.Departure))
		}
	}
	return nil
}

// ClockString formats a minute-of-day as HH:MM.
func ClockString(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ParseClock parses HH:MM into minutes from 00:00.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("clock %q: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q: out of range", s)
	}
	return h*60 + m, nil
}
