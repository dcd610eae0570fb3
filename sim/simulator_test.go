package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krlsim/data"
	"krlsim/model"
)

// twoStationScenario has one train, zero background demand, and zero
// boarding/dwell pauses, so every timing can be checked by hand.
func twoStationScenario(t *testing.T) *model.Scenario {
	t.Helper()
	route, err := model.NewRoute("test line", []model.Station{
		{Code: "A", Name: "Alpha", DistanceKm: 0},
		{Code: "B", Name: "Bravo", DistanceKm: 10},
	})
	require.NoError(t, err)
	return &model.Scenario{
		Name:      "two-station",
		Route:     route,
		Timetable: []model.DepartureSlot{{Departure: 0, Capacity: 2}},
		DestProbs: map[string]map[string]float64{"A": {"B": 1.0}},
		Params: model.Params{
			SpeedKmPerMin:             1,
			SeatedCapacity:            1,
			GiveUpMin:                 120,
			LookaheadMin:              120,
			ArrivalEstimatePerStopMin: 10,
			LastTrainBufferMin:        30,
			StartMin:                  0,
			HorizonMin:                60,
			DefaultRate:               0,
		},
	}
}

func runToCompletion(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		done, err := e.Advance()
		require.NoError(t, err)
		if done {
			return
		}
	}
	t.Fatal("simulation did not finish")
}

func TestSingleTrainEndToEnd(t *testing.T) {
	e, err := NewEngine(twoStationScenario(t), 1)
	require.NoError(t, err)
	require.Equal(t, 0, e.Clock())

	p0, err := e.AddPassenger("A", "B")
	require.NoError(t, err)
	p1, err := e.AddPassenger("A", "B")
	require.NoError(t, err)
	assert.Equal(t, 2, e.StationQueueSnapshot("A"))

	// minute 0: both board, first one takes the single seat
	done, err := e.Advance()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0, e.StationQueueSnapshot("A"))
	assert.True(t, p0.Seated)
	assert.False(t, p1.Seated)
	assert.Equal(t, 0, p0.BoardingTime)

	tr := e.Trains()[0]
	assert.Equal(t, 1, tr.CurrentIdx)
	assert.InDelta(t, 10, tr.NextStationTime, 1e-9, "10 km at 1 km per minute")

	// minutes 1..9: in transit
	for minute := 1; minute < 10; minute++ {
		done, err = e.Advance()
		require.NoError(t, err)
		assert.False(t, done)
		assert.False(t, p0.Completed)
	}

	// minute 10: both alight at the terminal, run finishes
	done, err = e.Advance()
	require.NoError(t, err)
	assert.True(t, done, "all trains completed ends the run early")
	assert.True(t, tr.Completed)
	assert.True(t, p0.Completed)
	assert.True(t, p1.Completed)

	res := e.Results()
	assert.Equal(t, 2, res.PassengersGenerated)
	assert.Equal(t, 2, res.PassengersCompleted)
	assert.Equal(t, 0, res.PassengersAbandoned)
	assert.InDelta(t, 0.5, res.SeatProbability[0], 1e-9, "one of two completers sat")
	assert.InDelta(t, 0.0, res.AvgWaitingTimes[0], 1e-9)

	// occupancy sampled each minute from departure until completion
	require.Len(t, res.OccupancyData[0], 10)
	assert.InDelta(t, 100.0, res.OccupancyData[0][0].Pct, 1e-9)
	assert.InDelta(t, 100.0, res.SeatedPercentage[0][0].Pct, 1e-9)
}

func TestAbandonment(t *testing.T) {
	sc := twoStationScenario(t)
	sc.Timetable = []model.DepartureSlot{{Departure: 300, Capacity: 2}}
	sc.Params.HorizonMin = 400
	e, err := NewEngine(sc, 1)
	require.NoError(t, err)

	p, err := e.AddPassenger("A", "B")
	require.NoError(t, err)

	var abandonMinute int
	e.SetObserver(func(ev Event) {
		if a, ok := ev.(AbandonEvent); ok {
			abandonMinute = a.Minute
		}
	})
	runToCompletion(t, e)

	assert.True(t, p.Abandoned())
	assert.False(t, p.Boarded(), "an abandoned passenger never boards the later train")
	assert.Equal(t, 121, abandonMinute, "threshold is strictly greater than the give-up window")

	res := e.Results()
	assert.Equal(t, 1, res.PassengersAbandoned)
	assert.Equal(t, 0, res.PassengersCompleted)
	assert.Empty(t, res.SeatProbability)
}

func TestAddPassengerValidation(t *testing.T) {
	e, err := NewEngine(twoStationScenario(t), 1)
	require.NoError(t, err)

	_, err = e.AddPassenger("B", "A")
	assert.Error(t, err, "upstream travel rejected")
	_, err = e.AddPassenger("A", "A")
	assert.Error(t, err)
	_, err = e.AddPassenger("ZZ", "B")
	assert.Error(t, err)
}

func TestEngineRejectsInvalidScenario(t *testing.T) {
	sc := twoStationScenario(t)
	sc.Params.SpeedKmPerMin = 0
	_, err := NewEngine(sc, 1)
	assert.Error(t, err)
}

func TestDefaultScenarioRun(t *testing.T) {
	sc := data.DefaultScenario()
	e, err := NewEngine(sc, 42)
	require.NoError(t, err)
	runToCompletion(t, e)

	res := e.Results()
	assert.Greater(t, res.PassengersGenerated, 0)
	accounted := res.PassengersCompleted + res.PassengersSeated + res.PassengersStanding + res.PassengersAbandoned
	assert.LessOrEqual(t, accounted, res.PassengersGenerated)
	for id, p := range res.SeatProbability {
		assert.GreaterOrEqual(t, p, 0.0, "train %d", id)
		assert.LessOrEqual(t, p, 1.0, "train %d", id)
	}
	for id, w := range res.AvgWaitingTimes {
		assert.GreaterOrEqual(t, w, 0.0, "train %d", id)
	}

	// recompute seat probability straight from the ledger
	seated := map[int]int{}
	total := map[int]int{}
	for _, p := range e.Ledger() {
		if !p.Completed || p.TrainID == model.Unset {
			continue
		}
		total[p.TrainID]++
		if p.Seated {
			seated[p.TrainID]++
		}
	}
	require.Equal(t, len(total), len(res.SeatProbability))
	for id, n := range total {
		assert.InDelta(t, float64(seated[id])/float64(n), res.SeatProbability[id], 1e-12, "train %d", id)
	}
	for _, tr := range e.Trains() {
		assert.True(t, tr.Completed)
		assert.NoError(t, tr.CheckInvariants())
	}
}

func TestDeterminism(t *testing.T) {
	sc := data.DefaultScenario()
	run := func() *Engine {
		e, err := NewEngine(sc, 42)
		require.NoError(t, err)
		runToCompletion(t, e)
		return e
	}
	first := run()
	second := run()
	assert.Equal(t, first.Results(), second.Results(), "same seed must reproduce the run exactly")
	assert.Equal(t, first.Ledger(), second.Ledger(), "passenger ledgers must match entry for entry")

	e, err := NewEngine(sc, 43)
	require.NoError(t, err)
	runToCompletion(t, e)
	assert.NotEqual(t, first.Results(), e.Results(),
		"a different seed should draw a different population")
}

func TestSeatProbabilityByOrigin(t *testing.T) {
	sc := data.DefaultScenario()
	e, err := NewEngine(sc, 7)
	require.NoError(t, err)
	runToCompletion(t, e)

	byOrigin := e.SeatProbabilityByOrigin("YK")
	overall := e.Results().SeatProbability
	for id, p := range byOrigin {
		assert.GreaterOrEqual(t, p, 0.0, "train %d", id)
		assert.LessOrEqual(t, p, 1.0, "train %d", id)
		_, ok := overall[id]
		assert.True(t, ok, "origin breakdown only covers trains with completers")
	}
}
