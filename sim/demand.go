package sim

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"krlsim/model"
)

// DemandModel draws passenger arrivals and destinations from the scenario
// tables. All randomness flows through a single seeded stream, so a fixed
// seed and a fixed call order reproduce the exact same draws.
type DemandModel struct {
	route       *model.Route
	rng         *rand.Rand
	rates       map[int]map[string]float64
	defaultRate float64
	dests       map[string]*destinationPicker
}

// destinationPicker holds one origin's categorical distribution over its
// strictly-downstream stations, in route order.
type destinationPicker struct {
	codes []string
	dist  distuv.Categorical
}

// NewDemandModel builds the generator for a validated scenario.
func NewDemandModel(sc *model.Scenario, seed uint64) (*DemandModel, error) {
	d := &DemandModel{
		route:       sc.Route,
		rng:         rand.New(rand.NewSource(seed)),
		rates:       sc.HourlyRates,
		defaultRate: sc.Params.DefaultRate,
		dests:       make(map[string]*destinationPicker, sc.Route.Len()),
	}
	for i := 0; i < sc.Route.Len(); i++ {
		origin := sc.Route.At(i).Code
		row := sc.DestProbs[origin]
		if len(row) == 0 {
			continue // terminal, or an origin nobody departs from
		}
		// Walk downstream stations in route order so the weight layout
		// is independent of map iteration.
		codes := make([]string, 0, len(row))
		weights := make([]float64, 0, len(row))
		for j := i + 1; j < sc.Route.Len(); j++ {
			code := sc.Route.At(j).Code
			if p, ok := row[code]; ok {
				codes = append(codes, code)
				weights = append(weights, p)
			}
		}
		if len(codes) != len(row) {
			return nil, fmt.Errorf("demand: destination row for %q references non-downstream stations", origin)
		}
		d.dests[origin] = &destinationPicker{
			codes: codes,
			dist:  distuv.NewCategorical(weights, d.rng),
		}
	}
	return d, nil
}

// RatePerMinute returns the mean arrivals per simulated minute for an hour
// of day and station, falling back to the default off-hours rate.
func (d *DemandModel) RatePerMinute(hour int, code string) float64 {
	if row, ok := d.rates[hour]; ok {
		if rate, ok := row[code]; ok {
			return rate
		}
	}
	return d.defaultRate
}

// Arrivals draws the number of new passengers appearing at a station during
// one simulated minute. The terminal never generates demand.
func (d *DemandModel) Arrivals(hour int, code string) int {
	if _, ok := d.dests[code]; !ok {
		return 0
	}
	rate := d.RatePerMinute(hour, code)
	if rate <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: rate, Src: d.rng}.Rand())
}

// Destination draws a strictly-downstream destination for the origin.
// The second return is false for stations with no outgoing distribution.
func (d *DemandModel) Destination(origin string) (string, bool) {
	picker, ok := d.dests[origin]
	if !ok {
		return "", false
	}
	idx := int(picker.dist.Rand())
	return picker.codes[idx], true
}
