package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krlsim/data"
)

func TestDemandModelRates(t *testing.T) {
	sc := data.DefaultScenario()
	d, err := NewDemandModel(sc, 1)
	require.NoError(t, err)

	t.Run("configured hour", func(t *testing.T) {
		assert.InDelta(t, sc.HourlyRates[7]["YK"], d.RatePerMinute(7, "YK"), 1e-9)
	})

	t.Run("unconfigured hour falls back to default", func(t *testing.T) {
		assert.InDelta(t, sc.Params.DefaultRate, d.RatePerMinute(3, "YK"), 1e-9)
	})
}

func TestDemandModelArrivals(t *testing.T) {
	sc := data.DefaultScenario()
	d, err := NewDemandModel(sc, 1)
	require.NoError(t, err)

	t.Run("terminal never generates", func(t *testing.T) {
		terminal := sc.Route.Terminal().Code
		for i := 0; i < 100; i++ {
			assert.Equal(t, 0, d.Arrivals(7, terminal))
		}
	})

	t.Run("counts are non-negative", func(t *testing.T) {
		for i := 0; i < 1000; i++ {
			assert.GreaterOrEqual(t, d.Arrivals(7, "YK"), 0)
		}
	})

	t.Run("zero rate generates nothing", func(t *testing.T) {
		zero := data.DefaultScenario()
		zero.Params.DefaultRate = 0
		zero.HourlyRates = nil
		dz, err := NewDemandModel(zero, 1)
		require.NoError(t, err)
		for i := 0; i < 100; i++ {
			assert.Equal(t, 0, dz.Arrivals(7, "YK"))
		}
	})
}

func TestDemandModelDestinations(t *testing.T) {
	sc := data.DefaultScenario()
	d, err := NewDemandModel(sc, 1)
	require.NoError(t, err)

	t.Run("always strictly downstream", func(t *testing.T) {
		for i := 0; i < sc.Route.Len()-1; i++ {
			origin := sc.Route.At(i).Code
			for n := 0; n < 200; n++ {
				dest, ok := d.Destination(origin)
				require.True(t, ok)
				assert.Greater(t, sc.Route.IndexOf(dest), i, "from %s", origin)
			}
		}
	})

	t.Run("terminal has no destinations", func(t *testing.T) {
		_, ok := d.Destination(sc.Route.Terminal().Code)
		assert.False(t, ok)
	})
}

func TestDemandModelDeterminism(t *testing.T) {
	sc := data.DefaultScenario()
	a, err := NewDemandModel(sc, 99)
	require.NoError(t, err)
	b, err := NewDemandModel(sc, 99)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		assert.Equal(t, a.Arrivals(7, "YK"), b.Arrivals(7, "YK"))
		da, _ := a.Destination("YK")
		db, _ := b.Destination("YK")
		assert.Equal(t, da, db)
	}
}
