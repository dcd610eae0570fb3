package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario(t *testing.T) *Scenario {
	t.Helper()
	route, err := NewRoute("test line", []Station{
		{Code: "A", Name: "Alpha", DistanceKm: 0},
		{Code: "B", Name: "Bravo", DistanceKm: 10},
		{Code: "C", Name: "Charlie", DistanceKm: 20},
	})
	require.NoError(t, err)
	return &Scenario{
		Name:      "test",
		Route:     route,
		Timetable: []DepartureSlot{{Departure: 300, Capacity: 100}},
		HourlyRates: map[int]map[string]float64{
			6: {"A": 1.5, "B": 0.5},
		},
		DestProbs: map[string]map[string]float64{
			"A": {"B": 0.4, "C": 0.6},
			"B": {"C": 1.0},
			"C": {},
		},
		Params: Params{
			SpeedKmPerMin:             1,
			BoardingMin:               2,
			DwellMin:                  1,
			SeatedCapacity:            50,
			GiveUpMin:                 120,
			LookaheadMin:              120,
			ArrivalEstimatePerStopMin: 10,
			LastTrainBufferMin:        30,
			StartMin:                  Unset,
			HorizonMin:                1440,
			DefaultRate:               0.1,
		},
	}
}

func TestScenarioValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validScenario(t).Validate())
	})

	t.Run("seated capacity above vehicle capacity", func(t *testing.T) {
		sc := validScenario(t)
		sc.Params.SeatedCapacity = 101
		assert.Error(t, sc.Validate())
	})

	t.Run("probabilities not summing to one", func(t *testing.T) {
		sc := validScenario(t)
		sc.DestProbs["A"] = map[string]float64{"B": 0.4, "C": 0.5}
		assert.Error(t, sc.Validate())
	})

	t.Run("upstream destination", func(t *testing.T) {
		sc := validScenario(t)
		sc.DestProbs["B"] = map[string]float64{"A": 1.0}
		assert.Error(t, sc.Validate())
	})

	t.Run("unknown station in rates", func(t *testing.T) {
		sc := validScenario(t)
		sc.HourlyRates[6]["ZZ"] = 1.0
		assert.Error(t, sc.Validate())
	})

	t.Run("hour out of range", func(t *testing.T) {
		sc := validScenario(t)
		sc.HourlyRates[24] = map[string]float64{"A": 1.0}
		assert.Error(t, sc.Validate())
	})

	t.Run("horizon before start", func(t *testing.T) {
		sc := validScenario(t)
		sc.Params.HorizonMin = 100
		assert.Error(t, sc.Validate())
	})
}

func TestScenarioStartTime(t *testing.T) {
	sc := validScenario(t)
	assert.Equal(t, 240, sc.StartTime(), "one hour before the first departure")

	sc.Params.StartMin = 0
	assert.Equal(t, 0, sc.StartTime())

	sc.Params.StartMin = Unset
	sc.Timetable[0].Departure = 30
	assert.Equal(t, 0, sc.StartTime(), "never before midnight")
}

const scenarioYAML = `
name: yaml line
stations:
  - {code: A, name: Alpha, distance_km: 0}
  - {code: B, name: Bravo, distance_km: 10}
timetable:
  - {departure: "05:05", capacity: 100}
  - {departure: "06:10", capacity: 100}
rates:
  6:
    A: 1.2
destinations:
  A:
    B: 1.0
params:
  speed_km_per_min: 1.0
  boarding_min: 2
  dwell_min: 1
  seated_capacity: 40
  give_up_min: 120
  lookahead_min: 120
  arrival_estimate_per_stop_min: 10
  last_train_buffer_min: 30
  horizon_min: 1440
  default_rate: 0.2
`

func TestLoadScenarioFromReader(t *testing.T) {
	sc, err := LoadScenarioFromReader(strings.NewReader(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "yaml line", sc.Name)
	assert.Equal(t, 2, sc.Route.Len())
	require.Len(t, sc.Timetable, 2)
	assert.Equal(t, 305, sc.Timetable[0].Departure)
	assert.Equal(t, 370, sc.Timetable[1].Departure)
	assert.Equal(t, Unset, sc.Params.StartMin)
	assert.Equal(t, 245, sc.StartTime())
	assert.InDelta(t, 1.2, sc.HourlyRates[6]["A"], 1e-9)
}

func TestLoadScenarioErrors(t *testing.T) {
	t.Run("bad clock", func(t *testing.T) {
		bad := strings.Replace(scenarioYAML, `"05:05"`, `"5am"`, 1)
		_, err := LoadScenarioFromReader(strings.NewReader(bad))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadScenarioFromReader(strings.NewReader("{not yaml"))
		assert.Error(t, err)
	})

	t.Run("fails validation", func(t *testing.T) {
		bad := strings.Replace(scenarioYAML, "B: 1.0", "B: 0.5", 1)
		_, err := LoadScenarioFromReader(strings.NewReader(bad))
		assert.Error(t, err)
	})
}
