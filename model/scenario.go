package model

import (
	"fmt"
	"math"
)

// Params holds the operating constants of the line. All durations are
// simulated minutes.
type Params struct {
	SpeedKmPerMin             float64 `json:"speed_km_per_min"`
	BoardingMin               int     `json:"boarding_min"`
	DwellMin                  int     `json:"dwell_min"`
	SeatedCapacity            int     `json:"seated_capacity"`
	GiveUpMin                 int     `json:"give_up_min"`                   // waiting passengers abandon past this
	LookaheadMin              int     `json:"lookahead_min"`                 // demand stops when no train is expected within this window
	ArrivalEstimatePerStopMin int     `json:"arrival_estimate_per_stop_min"` // coarse per-stop offset used by the lookahead check
	LastTrainBufferMin        int     `json:"last_train_buffer_min"`         // demand stops this long after the last departure
	StartMin                  int     `json:"start_min"`                     // Unset derives one hour before the first departure
	HorizonMin                int     `json:"horizon_min"`
	DefaultRate               float64 `json:"default_rate"` // arrivals per minute for unconfigured hours
}

// Scenario is the full immutable configuration of one simulation:
// the route, the timetable, the demand tables, and the operating constants.
type Scenario struct {
	Name        string                        `json:"name"`
	Route       *Route                        `json:"route"`
	Timetable   []DepartureSlot               `json:"timetable"`
	HourlyRates map[int]map[string]float64    `json:"hourly_rates"` // hour -> station code -> arrivals per minute
	DestProbs   map[string]map[string]float64 `json:"destinations"` // origin -> destination -> probability
	Params      Params                        `json:"params"`
}

// probTolerance bounds how far a destination row may drift from summing to 1.
const probTolerance = 1e-6

// Validate checks the whole configuration surface. A scenario that fails
// here must never reach an engine.
func (s *Scenario) Validate() error {
	if s.Route == nil {
		return fmt.Errorf("scenario %q: no route", s.Name)
	}
	if err := s.Route.validate(); err != nil {
		return err
	}
	if err := ValidateTimetable(s.Timetable); err != nil {
		return err
	}
	p := s.Params
	if p.SpeedKmPerMin <= 0 {
		return fmt.Errorf("params: speed must be positive, got %.2f", p.SpeedKmPerMin)
	}
	if p.BoardingMin < 0 || p.DwellMin < 0 {
		return fmt.Errorf("params: boarding/dwell must be non-negative")
	}
	if p.SeatedCapacity <= 0 {
		return fmt.Errorf("params: seated capacity must be positive, got %d", p.SeatedCapacity)
	}
	for _, slot := range s.Timetable {
		if p.SeatedCapacity > slot.Capacity {
			return fmt.Errorf("params: seated capacity %d exceeds vehicle capacity %d at %s",
				p.SeatedCapacity, slot.Capacity, ClockString(slot.Departure))
		}
	}
	if p.GiveUpMin <= 0 {
		return fmt.Errorf("params: give-up threshold must be positive, got %d", p.GiveUpMin)
	}
	if p.HorizonMin <= s.StartTime() {
		return fmt.Errorf("params: horizon %d not after start %d", p.HorizonMin, s.StartTime())
	}
	if p.DefaultRate < 0 {
		return fmt.Errorf("params: default rate must be non-negative")
	}
	if err := s.validateRates(); err != nil {
		return err
	}
	return s.validateDestinations()
}

func (s *Scenario) validateRates() error {
	for hour, row := range s.HourlyRates {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("rates: hour %d out of range", hour)
		}
		for code, rate := range row {
			if s.Route.IndexOf(code) < 0 {
				return fmt.Errorf("rates: unknown station %q at hour %d", code, hour)
			}
			if rate < 0 {
				return fmt.Errorf("rates: negative rate %.2f for %q at hour %d", rate, code, hour)
			}
		}
	}
	return nil
}

func (s *Scenario) validateDestinations() error {
	for origin, row := range s.DestProbs {
		originIdx := s.Route.IndexOf(origin)
		if originIdx < 0 {
			return fmt.Errorf("destinations: unknown origin %q", origin)
		}
		if len(row) == 0 {
			continue // terminal: no outgoing demand, by definition
		}
		sum := 0.0
		for dest, prob := range row {
			destIdx := s.Route.IndexOf(dest)
			if destIdx < 0 {
				return fmt.Errorf("destinations: unknown destination %q from %q", dest, origin)
			}
			if destIdx <= originIdx {
				return fmt.Errorf("destinations: %q -> %q is not strictly downstream", origin, dest)
			}
			if prob < 0 {
				return fmt.Errorf("destinations: negative probability %.3f for %q -> %q", prob, origin, dest)
			}
			sum += prob
		}
		if math.Abs(sum-1) > probTolerance {
			return fmt.Errorf("destinations: probabilities from %q sum to %.6f, want 1", origin, sum)
		}
	}
	return nil
}

// StartTime returns the simulation start minute: the configured start, or
// one hour before the first departure (floored at 00:00) when unset.
func (s *Scenario) StartTime() int {
	if s.Params.StartMin != Unset && s.Params.StartMin >= 0 {
		return s.Params.StartMin
	}
	if len(s.Timetable) == 0 {
		return 0
	}
	start := s.Timetable[0].Departure - 60
	if start < 0 {
		start = 0
	}
	return start
}

// LastDeparture returns the final scheduled departure minute.
func (s *Scenario) LastDeparture() int {
	if len(s.Timetable) == 0 {
		return 0
	}
	return s.Timetable[len(s.Timetable)-1].Departure
}
