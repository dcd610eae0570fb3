package model

import "fmt"

// Station is one stop on the line, identified by its short code.
type Station struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"` // cumulative distance from the origin terminus
}

// Route models the ordered, one-directional sequence of stations.
// It is immutable after construction.
type Route struct {
	Name     string    `json:"name"`
	Stations []Station `json:"stations"`
}

// NewRoute builds a route and validates the station table.
func NewRoute(name string, stations []Station) (*Route, error) {
	r := &Route{Name: name, Stations: stations}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Route) validate() error {
	if len(r.Stations) < 2 {
		return fmt.Errorf("route %q: need at least 2 stations, got %d", r.Name, len(r.Stations))
	}
	seen := make(map[string]struct{}, len(r.Stations))
	for i, s := range r.Stations {
		if s.Code == "" {
			return fmt.Errorf("route %q: station %d has no code", r.Name, i)
		}
		if _, dup := seen[s.Code]; dup {
			return fmt.Errorf("route %q: duplicate station code %q", r.Name, s.Code)
		}
		seen[s.Code] = struct{}{}
		if i > 0 && s.DistanceKm <= r.Stations[i-1].DistanceKm {
			return fmt.Errorf("route %q: distance not strictly increasing at %q (%.2f <= %.2f)",
				r.Name, s.Code, s.DistanceKm, r.Stations[i-1].DistanceKm)
		}
	}
	return nil
}

// Len returns the number of stations.
func (r *Route) Len() int { return len(r.Stations) }

// At returns the station at the given index.
func (r *Route) At(idx int) Station { return r.Stations[idx] }

// Terminal returns the last station on the line.
func (r *Route) Terminal() Station { return r.Stations[len(r.Stations)-1] }

// IndexOf returns the index of a station code or -1.
func (r *Route) IndexOf(code string) int {
	for i, s := range r.Stations {
		if s.Code == code {
			return i
		}
	}
	return -1
}

// LegDistanceKm returns the track distance between two station indexes.
// Negative deltas from a malformed table are clamped to zero.
func (r *Route) LegDistanceKm(from, to int) float64 {
	d := r.Stations[to].DistanceKm - r.Stations[from].DistanceKm
	if d < 0 {
		d = 0
	}
	return d
}

// TotalDistanceKm returns the full line length.
func (r *Route) TotalDistanceKm() float64 {
	return r.Stations[len(r.Stations)-1].DistanceKm - r.Stations[0].DistanceKm
}
