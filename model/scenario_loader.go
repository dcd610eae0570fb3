package model

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// raw structures matching the scenario YAML file
type rawScenario struct {
	Name      string                        `yaml:"name"`
	Stations  []rawStation                  `yaml:"stations"`
	Timetable []rawDeparture                `yaml:"timetable"`
	Rates     map[int]map[string]float64    `yaml:"rates"`
	Dests     map[string]map[string]float64 `yaml:"destinations"`
	Params    rawParams                     `yaml:"params"`
}

type rawStation struct {
	Code       string  `yaml:"code"`
	Name       string  `yaml:"name"`
	DistanceKm float64 `yaml:"distance_km"`
}

type rawDeparture struct {
	Departure string `yaml:"departure"` // HH:MM
	Capacity  int    `yaml:"capacity"`
}

type rawParams struct {
	SpeedKmPerMin             float64 `yaml:"speed_km_per_min"`
	BoardingMin               int     `yaml:"boarding_min"`
	DwellMin                  int     `yaml:"dwell_min"`
	SeatedCapacity            int     `yaml:"seated_capacity"`
	GiveUpMin                 int     `yaml:"give_up_min"`
	LookaheadMin              int     `yaml:"lookahead_min"`
	ArrivalEstimatePerStopMin int     `yaml:"arrival_estimate_per_stop_min"`
	LastTrainBufferMin        int     `yaml:"last_train_buffer_min"`
	Start                     string  `yaml:"start"` // HH:MM, optional
	HorizonMin                int     `yaml:"horizon_min"`
	DefaultRate               float64 `yaml:"default_rate"`
}

// LoadScenarioFromReader parses a scenario YAML file, builds the Scenario
// and validates it.
func LoadScenarioFromReader(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	var raw rawScenario
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	stations := make([]Station, 0, len(raw.Stations))
	for _, s := range raw.Stations {
		stations = append(stations, Station{Code: s.Code, Name: s.Name, DistanceKm: s.DistanceKm})
	}
	route, err := NewRoute(raw.Name, stations)
	if err != nil {
		return nil, err
	}
	timetable := make([]DepartureSlot, 0, len(raw.Timetable))
	for _, d := range raw.Timetable {
		dep, err := ParseClock(d.Departure)
		if err != nil {
			return nil, fmt.Errorf("timetable: %w", err)
		}
		timetable = append(timetable, DepartureSlot{Departure: dep, Capacity: d.Capacity})
	}
	start := Unset
	if raw.Params.Start != "" {
		start, err = ParseClock(raw.Params.Start)
		if err != nil {
			return nil, fmt.Errorf("params: %w", err)
		}
	}
	sc := &Scenario{
		Name:        raw.Name,
		Route:       route,
		Timetable:   timetable,
		HourlyRates: raw.Rates,
		DestProbs:   raw.Dests,
		Params: Params{
			SpeedKmPerMin:             raw.Params.SpeedKmPerMin,
			BoardingMin:               raw.Params.BoardingMin,
			DwellMin:                  raw.Params.DwellMin,
			SeatedCapacity:            raw.Params.SeatedCapacity,
			GiveUpMin:                 raw.Params.GiveUpMin,
			LookaheadMin:              raw.Params.LookaheadMin,
			ArrivalEstimatePerStopMin: raw.Params.ArrivalEstimatePerStopMin,
			LastTrainBufferMin:        raw.Params.LastTrainBufferMin,
			StartMin:                  start,
			HorizonMin:                raw.Params.HorizonMin,
			DefaultRate:               raw.Params.DefaultRate,
		},
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// LoadScenarioFromFile opens and parses a scenario YAML file.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()
	return LoadScenarioFromReader(f)
}
