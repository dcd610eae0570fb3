package model

import (
	"fmt"
	"sort"
)

// Train is one scheduled service working the line start to end. It owns the
// passengers in its manifest while they are aboard; the seated and standing
// rosters partition the manifest at all times.
type Train struct {
	ID              int          `json:"id"`
	DepartureTime   int          `json:"departure_min"` // scheduled departure from the origin terminus
	Capacity        int          `json:"capacity"`
	SeatedCapacity  int          `json:"seated_capacity"`
	CurrentIdx      int          `json:"current_station_idx"`
	NextStationTime float64      `json:"next_station_time"` // arrival minute at Stations[CurrentIdx]
	Passengers      []*Passenger `json:"passengers,omitempty"`
	Seated          []*Passenger `json:"-"`
	Standing        []*Passenger `json:"-"`
	Completed       bool         `json:"completed"`
	TotalBoarded    int          `json:"total_boarded"`
	TotalAlighted   int          `json:"total_alighted"`
}

// NewTrain creates a train for one departure slot, parked at the origin
// until its scheduled minute.
func NewTrain(id int, slot DepartureSlot, seatedCapacity int) *Train {
	return &Train{
		ID:              id,
		DepartureTime:   slot.Departure,
		Capacity:        slot.Capacity,
		SeatedCapacity:  seatedCapacity,
		NextStationTime: float64(slot.Departure),
	}
}

// Due reports whether the train should service a station at the given minute.
func (t *Train) Due(now int) bool {
	if t.Completed {
		return false
	}
	if now < t.DepartureTime && t.CurrentIdx == 0 {
		return false
	}
	return float64(now) >= t.NextStationTime
}

// Onboard returns the current manifest size.
func (t *Train) Onboard() int { return len(t.Passengers) }

// RemainingCapacity returns how many more passengers can board.
func (t *Train) RemainingCapacity() int {
	rem := t.Capacity - len(t.Passengers)
	if rem < 0 {
		return 0
	}
	return rem
}

// OccupancyPct returns manifest size as a percentage of total capacity.
func (t *Train) OccupancyPct() float64 {
	if t.Capacity == 0 {
		return 0
	}
	return float64(len(t.Passengers)) / float64(t.Capacity) * 100
}

// SeatedPct returns seat usage as a percentage of seat capacity,
// reported as 0 while nobody is seated.
func (t *Train) SeatedPct() float64 {
	if len(t.Seated) == 0 || t.SeatedCapacity == 0 {
		return 0
	}
	return float64(len(t.Seated)) / float64(t.SeatedCapacity) * 100
}

// AlightAt removes every passenger destined for the given station, marking
// them completed, then hands each freed seat to the earliest-boarded standee
// still aboard (ties broken by passenger id). Alighters leave the rosters
// before any seat is reassigned, so a standee getting off here never takes a
// seat first. Returns the alighted passengers.
func (t *Train) AlightAt(station string) []*Passenger {
	if len(t.Passengers) == 0 {
		return nil
	}
	var alighted []*Passenger
	keep := t.Passengers[:0]
	for _, p := range t.Passengers {
		if p.Destination == station {
			p.Completed = true
			alighted = append(alighted, p)
			t.TotalAlighted++
		} else {
			keep = append(keep, p)
		}
	}
	if len(alighted) == 0 {
		t.Passengers = keep
		return nil
	}
	t.Passengers = keep
	t.Seated = dropCompleted(t.Seated)
	t.Standing = dropCompleted(t.Standing)

	// Seat promotion: one standee per freed seat, longest-aboard first.
	for len(t.Seated) < t.SeatedCapacity && len(t.Standing) > 0 {
		next := 0
		for i := 1; i < len(t.Standing); i++ {
			a, b := t.Standing[i], t.Standing[next]
			if a.BoardingTime < b.BoardingTime ||
				(a.BoardingTime == b.BoardingTime && a.ID < b.ID) {
				next = i
			}
		}
		p := t.Standing[next]
		t.Standing = append(t.Standing[:next], t.Standing[next+1:]...)
		p.Seated = true
		t.Seated = append(t.Seated, p)
	}
	return alighted
}

func dropCompleted(roster []*Passenger) []*Passenger {
	keep := roster[:0]
	for _, p := range roster {
		if !p.Completed {
			keep = append(keep, p)
		}
	}
	return keep
}

// BoardFrom admits waiting passengers from a station queue in FIFO order
// (arrival time, ties by id) until the train is full. Admitted passengers
// take a seat while seats remain, otherwise stand. Returns the boarded
// passengers and whoever is left in the queue.
func (t *Train) BoardFrom(queue []*Passenger, now int) (boarded, remaining []*Passenger) {
	if len(queue) == 0 {
		return nil, queue
	}
	sorted := make([]*Passenger, len(queue))
	copy(sorted, queue)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ArrivalTime != sorted[j].ArrivalTime {
			return sorted[i].ArrivalTime < sorted[j].ArrivalTime
		}
		return sorted[i].ID < sorted[j].ID
	})
	for _, p := range sorted {
		if len(t.Passengers) >= t.Capacity {
			remaining = append(remaining, p)
			continue
		}
		if !p.Waiting || p.Completed {
			remaining = append(remaining, p)
			continue
		}
		p.MarkBoarded(t.ID, now)
		t.Passengers = append(t.Passengers, p)
		if len(t.Seated) < t.SeatedCapacity {
			p.Seated = true
			t.Seated = append(t.Seated, p)
		} else {
			p.Seated = false
			t.Standing = append(t.Standing, p)
		}
		boarded = append(boarded, p)
		t.TotalBoarded++
	}
	return boarded, remaining
}

// AdvanceFrom schedules the next leg after servicing the current station at
// the given arrival minute. Departure is arrival plus boarding and dwell
// time; reaching past the last station completes the run.
func (t *Train) AdvanceFrom(arrival float64, route *Route, speedKmPerMin float64, boardingMin, dwellMin int) {
	if t.Completed {
		return
	}
	departure := arrival + float64(boardingMin+dwellMin)
	t.CurrentIdx++
	if t.CurrentIdx >= route.Len() {
		t.Completed = true
		return
	}
	travel := route.LegDistanceKm(t.CurrentIdx-1, t.CurrentIdx) / speedKmPerMin
	t.NextStationTime = departure + travel
}

// CheckInvariants verifies the manifest/roster partition and capacity
// bounds. A violation is a logic defect, never a recoverable condition.
func (t *Train) CheckInvariants() error {
	if len(t.Passengers) > t.Capacity {
		return fmt.Errorf("manifest %d exceeds capacity %d", len(t.Passengers), t.Capacity)
	}
	if len(t.Seated) > t.SeatedCapacity {
		return fmt.Errorf("seated roster %d exceeds seat capacity %d", len(t.Seated), t.SeatedCapacity)
	}
	if len(t.Seated)+len(t.Standing) != len(t.Passengers) {
		return fmt.Errorf("rosters sum to %d, manifest has %d", len(t.Seated)+len(t.Standing), len(t.Passengers))
	}
	aboard := make(map[int]bool, len(t.Passengers))
	for _, p := range t.Passengers {
		aboard[p.ID] = true
	}
	for _, p := range t.Seated {
		if !aboard[p.ID] {
			return fmt.Errorf("seated passenger %d not in manifest", p.ID)
		}
		if !p.Seated {
			return fmt.Errorf("passenger %d in seated roster but not flagged seated", p.ID)
		}
	}
	for _, p := range t.Standing {
		if !aboard[p.ID] {
			return fmt.Errorf("standing passenger %d not in manifest", p.ID)
		}
		if p.Seated {
			return fmt.Errorf("passenger %d in standing roster but flagged seated", p.ID)
		}
	}
	return nil
}
