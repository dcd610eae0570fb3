package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krlsim/model"
)

func batchScenario(t *testing.T) *model.Scenario {
	t.Helper()
	route, err := model.NewRoute("batch line", []model.Station{
		{Code: "A", Name: "Alpha", DistanceKm: 0},
		{Code: "B", Name: "Bravo", DistanceKm: 5},
		{Code: "C", Name: "Charlie", DistanceKm: 12},
	})
	require.NoError(t, err)
	return &model.Scenario{
		Name:      "batch",
		Route:     route,
		Timetable: []model.DepartureSlot{{Departure: 60, Capacity: 100}, {Departure: 120, Capacity: 100}},
		HourlyRates: map[int]map[string]float64{
			1: {"A": 2.0, "B": 1.0},
			2: {"A": 2.0, "B": 1.0},
		},
		DestProbs: map[string]map[string]float64{
			"A": {"B": 0.3, "C": 0.7},
			"B": {"C": 1.0},
		},
		Params: model.Params{
			SpeedKmPerMin:             1,
			BoardingMin:               1,
			DwellMin:                  1,
			SeatedCapacity:            40,
			GiveUpMin:                 120,
			LookaheadMin:              120,
			ArrivalEstimatePerStopMin: 10,
			LastTrainBufferMin:        30,
			StartMin:                  0,
			HorizonMin:                300,
			DefaultRate:               0,
		},
	}
}

func TestBatchRun(t *testing.T) {
	sc := batchScenario(t)
	sum, err := Run(sc, Options{Replications: 8, Seed: 11, Workers: 4}, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, sum.Replications)
	assert.Greater(t, sum.MeanGenerated, 0.0)
	assert.GreaterOrEqual(t, sum.MeanGenerated, sum.MeanCompleted)
	require.Len(t, sum.Trains, 2)
	for _, tr := range sum.Trains {
		if tr.ReplicationsSeen == 0 {
			continue
		}
		assert.GreaterOrEqual(t, tr.MeanSeatProb, tr.MinSeatProb)
		assert.LessOrEqual(t, tr.MeanSeatProb, tr.MaxSeatProb)
		assert.GreaterOrEqual(t, tr.MinSeatProb, 0.0)
		assert.LessOrEqual(t, tr.MaxSeatProb, 1.0)
	}
}

func TestBatchDeterminism(t *testing.T) {
	sc := batchScenario(t)
	first, err := Run(sc, Options{Replications: 4, Seed: 5, Workers: 2}, nil)
	require.NoError(t, err)
	second, err := Run(sc, Options{Replications: 4, Seed: 5, Workers: 4}, nil)
	require.NoError(t, err)

	// worker count must not change the aggregate
	assert.Equal(t, first.MeanGenerated, second.MeanGenerated)
	assert.Equal(t, first.MeanCompleted, second.MeanCompleted)
	assert.Equal(t, first.MeanAbandoned, second.MeanAbandoned)
	assert.Equal(t, first.Trains, second.Trains)
}

func TestBatchRequiresReplications(t *testing.T) {
	_, err := Run(batchScenario(t), Options{Replications: 0}, nil)
	assert.Error(t, err)
}
