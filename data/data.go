// Package data carries the built-in KRL Jogja-Solo scenario: the station
// table, the published timetable and the calibrated demand tables.
package data

import "krlsim/model"

// stations lists the six stops of the line with cumulative distance.
var stations = []model.Station{
	{Code: "YK", Name: "Yogyakarta", DistanceKm: 0},
	{Code: "LPN", Name: "Lempuyangan", DistanceKm: 3},
	{Code: "MGW", Name: "Maguwo", DistanceKm: 9},
	{Code: "KT", Name: "Klaten", DistanceKm: 30},
	{Code: "PWS", Name: "Purwosari", DistanceKm: 60},
	{Code: "SLO", Name: "Solo Balapan", DistanceKm: 64},
}

// timetable lists the published departures from Yogyakarta.
var timetable = []model.DepartureSlot{
	{Departure: 5*60 + 5, Capacity: 1600},
	{Departure: 6*60 + 0, Capacity: 1600},
	{Departure: 7*60 + 5, Capacity: 1600},
	{Departure: 7*60 + 54, Capacity: 1600},
	{Departure: 8*60 + 49, Capacity: 1600},
	{Departure: 10*60 + 56, Capacity: 1600},
	{Departure: 12*60 + 7, Capacity: 1600},
	{Departure: 13*60 + 57, Capacity: 1600},
	{Departure: 15*60 + 1, Capacity: 1600},
	{Departure: 16*60 + 10, Capacity: 1600},
	{Departure: 17*60 + 35, Capacity: 1600},
	{Departure: 18*60 + 8, Capacity: 1600},
	{Departure: 20*60 + 15, Capacity: 1600},
	{Departure: 21*60 + 20, Capacity: 1600},
	{Departure: 22*60 + 35, Capacity: 1600},
}

// rateBlock assigns per-station arrival rates (passengers per minute) to a
// contiguous span of hours.
type rateBlock struct {
	fromHour, toHour int
	rates            map[string]float64
}

// rateBlocks encodes the day: morning peak, late morning, midday, evening
// peak, late evening and night. Hours not covered fall back to DefaultRate.
var rateBlocks = []rateBlock{
	{6, 8, map[string]float64{"YK": 14.0, "LPN": 4.0, "MGW": 2.0, "KT": 5.0, "PWS": 0.5, "SLO": 0.1}},
	{9, 9, map[string]float64{"YK": 12.0, "LPN": 3.0, "MGW": 2.0, "KT": 4.0, "PWS": 0.5, "SLO": 0.05}},
	{10, 15, map[string]float64{"YK": 7.0, "LPN": 1.5, "MGW": 1.0, "KT": 1.5, "PWS": 0.8, "SLO": 0.1}},
	{16, 18, map[string]float64{"YK": 18.0, "LPN": 6.0, "MGW": 4.0, "KT": 6.0, "PWS": 3.0, "SLO": 0.5}},
	{19, 21, map[string]float64{"YK": 14.0, "LPN": 4.0, "MGW": 3.0, "KT": 4.0, "PWS": 2.5, "SLO": 0.8}},
	{22, 23, map[string]float64{"YK": 4.0, "LPN": 1.2, "MGW": 1.0, "KT": 2.0, "PWS": 0.6, "SLO": 0.1}},
}

// destProbs is the forward-only destination matrix, calibrated against
// observed counts on the 08:49 service. Solo Balapan is the terminal and has
// no outgoing row.
var destProbs = map[string]map[string]float64{
	"YK":  {"LPN": 0.01, "MGW": 0.02, "KT": 0.10, "PWS": 0.45, "SLO": 0.42},
	"LPN": {"MGW": 0.01, "KT": 0.10, "PWS": 0.47, "SLO": 0.42},
	"MGW": {"KT": 0.10, "PWS": 0.55, "SLO": 0.35},
	"KT":  {"PWS": 0.60, "SLO": 0.40},
	"PWS": {"SLO": 1.0},
	"SLO": {},
}

// DefaultScenario returns the built-in Jogja-Solo line configuration.
// Callers get a fresh value each time; the engine never mutates it.
func DefaultScenario() *model.Scenario {
	route, err := model.NewRoute("KRL Jogja-Solo", stations)
	if err != nil {
		panic(err) // static table, must be well-formed
	}
	rates := make(map[int]map[string]float64, 24)
	for _, b := range rateBlocks {
		for h := b.fromHour; h <= b.toHour; h++ {
			row := make(map[string]float64, len(b.rates))
			for code, r := range b.rates {
				row[code] = r
			}
			rates[h] = row
		}
	}
	slots := make([]model.DepartureSlot, len(timetable))
	copy(slots, timetable)
	dests := make(map[string]map[string]float64, len(destProbs))
	for origin, row := range destProbs {
		cp := make(map[string]float64, len(row))
		for d, p := range row {
			cp[d] = p
		}
		dests[origin] = cp
	}
	return &model.Scenario{
		Name:        "KRL Jogja-Solo",
		Route:       route,
		Timetable:   slots,
		HourlyRates: rates,
		DestProbs:   dests,
		Params: model.Params{
			SpeedKmPerMin:             1.33, // 80 km/h
			BoardingMin:               4,
			DwellMin:                  2,
			SeatedCapacity:            512, // 8 cars x 64 seats
			GiveUpMin:                 120,
			LookaheadMin:              120,
			ArrivalEstimatePerStopMin: 10,
			LastTrainBufferMin:        30,
			StartMin:                  model.Unset,
			HorizonMin:                24 * 60,
			DefaultRate:               0.75,
		},
	}
}
