package sim

import (
	"fmt"

	"krlsim/model"
)

// Engine advances one simulation instance in fixed one-minute steps. All
// state is confined to the calling goroutine; independent engines may run
// concurrently as long as nothing is shared between them.
//
// Within a minute the order is fixed and part of the determinism contract:
// demand generation walks stations in route order, then trains step in
// timetable order, then the give-up sweep walks stations in route order
// again, then statistics are sampled.
type Engine struct {
	scenario *model.Scenario
	route    *model.Route
	demand   *DemandModel
	trains   []*model.Train

	clock   int
	endTime int
	done    bool

	ledger  []*model.Passenger            // every passenger ever generated
	waiting map[string][]*model.Passenger // station code -> active queue
	nextID  int

	stats    *ledgerStats
	observer Observer
}

// NewEngine builds an engine for a scenario. The scenario is validated
// fail-fast; a scenario that does not validate never starts.
func NewEngine(sc *model.Scenario, seed uint64) (*Engine, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	demand, err := NewDemandModel(sc, seed)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		scenario: sc,
		route:    sc.Route,
		demand:   demand,
		clock:    sc.StartTime(),
		endTime:  sc.Params.HorizonMin,
		waiting:  make(map[string][]*model.Passenger, sc.Route.Len()),
		stats:    newLedgerStats(),
	}
	for i, slot := range sc.Timetable {
		e.trains = append(e.trains, model.NewTrain(i, slot, sc.Params.SeatedCapacity))
	}
	return e, nil
}

// SetObserver installs a synchronous event sink. Pass nil to detach.
func (e *Engine) SetObserver(fn Observer) { e.observer = fn }

func (e *Engine) emit(ev Event) {
	if e.observer != nil {
		e.observer(ev)
	}
}

// Clock returns the current simulated minute.
func (e *Engine) Clock() int { return e.clock }

// Done reports whether the simulation has finished.
func (e *Engine) Done() bool { return e.done }

// Trains exposes the train list for display layers. Callers must not
// mutate the returned values.
func (e *Engine) Trains() []*model.Train { return e.trains }

// Scenario returns the immutable configuration this engine runs.
func (e *Engine) Scenario() *model.Scenario { return e.scenario }

// AddPassenger creates a passenger at the current minute and queues it at
// its origin. The demand step uses it internally; harnesses may use it to
// seed deterministic populations.
func (e *Engine) AddPassenger(origin, destination string) (*model.Passenger, error) {
	originIdx := e.route.IndexOf(origin)
	destIdx := e.route.IndexOf(destination)
	if originIdx < 0 || destIdx < 0 {
		return nil, fmt.Errorf("add passenger: unknown station %q or %q", origin, destination)
	}
	if destIdx <= originIdx {
		return nil, fmt.Errorf("add passenger: %q -> %q is not strictly downstream", origin, destination)
	}
	p := model.NewPassenger(e.nextID, origin, destination, e.clock)
	e.nextID++
	e.ledger = append(e.ledger, p)
	e.waiting[origin] = append(e.waiting[origin], p)
	return p, nil
}

// StationQueueSnapshot returns how many passengers currently wait at a
// station. Unknown codes report zero.
func (e *Engine) StationQueueSnapshot(code string) int {
	return len(e.waiting[code])
}

// Advance executes exactly one simulated minute and reports whether the
// simulation has finished. An invariant violation aborts the run with an
// error; there is nothing to retry.
func (e *Engine) Advance() (bool, error) {
	if e.done {
		return true, nil
	}

	e.generateDemand()

	for _, t := range e.trains {
		if !t.Due(e.clock) {
			continue
		}
		if err := e.stepTrain(t); err != nil {
			return false, err
		}
	}

	e.sweepAbandoned()
	e.sampleOccupancy()
	e.emit(TickEvent{Minute: e.clock, Generated: len(e.ledger), Completed: e.completedCount()})

	e.clock++
	e.done = e.clock >= e.endTime || e.allTrainsCompleted()
	return e.done, nil
}

// generateDemand injects new passengers at every station that is still
// worth serving: a train is expected within the lookahead window and the
// last departure (plus buffer) has not passed.
func (e *Engine) generateDemand() {
	if e.clock > e.scenario.LastDeparture()+e.scenario.Params.LastTrainBufferMin {
		return
	}
	hour := (e.clock / 60) % 24
	for i := 0; i < e.route.Len(); i++ {
		if !e.trainExpected(i) {
			continue
		}
		code := e.route.At(i).Code
		n := e.demand.Arrivals(hour, code)
		if n == 0 {
			continue
		}
		for j := 0; j < n; j++ {
			dest, ok := e.demand.Destination(code)
			if !ok {
				break
			}
			// Cannot fail: the demand model only draws downstream stations.
			e.AddPassenger(code, dest)
		}
		e.emit(StationUpdateEvent{Station: code, Waiting: len(e.waiting[code]), Generated: len(e.ledger)})
	}
}

// trainExpected estimates whether any train still scheduled to reach the
// station arrives within the lookahead window. The estimate offsets the
// origin departure by a flat per-stop increment rather than the real
// schedule; it is a coarse service-hours gate, not a prediction.
func (e *Engine) trainExpected(stationIdx int) bool {
	p := e.scenario.Params
	for _, t := range e.trains {
		if t.Completed || t.CurrentIdx > stationIdx {
			continue
		}
		estimated := t.DepartureTime + stationIdx*p.ArrivalEstimatePerStopMin
		if estimated-e.clock <= p.LookaheadMin {
			return true
		}
	}
	return false
}

// stepTrain runs the alight / board / advance protocol for one due train.
func (e *Engine) stepTrain(t *model.Train) error {
	p := e.scenario.Params
	arrival := t.NextStationTime
	station := e.route.At(t.CurrentIdx)
	e.emit(TrainArriveEvent{TrainID: t.ID, Station: station.Code, Minute: e.clock, Onboard: t.Onboard()})

	// No alighting at the origin on initial departure.
	if !(t.CurrentIdx == 0 && arrival == float64(t.DepartureTime)) {
		if alighted := t.AlightAt(station.Code); len(alighted) > 0 {
			e.emit(AlightEvent{TrainID: t.ID, Station: station.Code, Alighted: len(alighted), Onboard: t.Onboard()})
		}
	}

	boarded, remaining := t.BoardFrom(e.waiting[station.Code], e.clock)
	e.waiting[station.Code] = remaining
	if len(boarded) > 0 {
		for _, pass := range boarded {
			e.stats.recordWait(t.ID, float64(pass.WaitMinutes()))
		}
		e.emit(BoardEvent{
			TrainID: t.ID, Station: station.Code, Boarded: len(boarded),
			Onboard: t.Onboard(), Seated: len(t.Seated), Standing: len(t.Standing),
			QueueLeft: len(remaining),
		})
	}

	t.AdvanceFrom(arrival, e.route, p.SpeedKmPerMin, p.BoardingMin, p.DwellMin)
	if t.Completed {
		e.emit(TrainCompletedEvent{TrainID: t.ID, Minute: e.clock})
	}
	if err := t.CheckInvariants(); err != nil {
		return fmt.Errorf("train %d at %s: %w", t.ID, station.Code, err)
	}
	return nil
}

// sweepAbandoned drops passengers who have waited past the give-up
// threshold. They stay in the ledger as lost demand and never board later.
func (e *Engine) sweepAbandoned() {
	giveUp := e.scenario.Params.GiveUpMin
	for i := 0; i < e.route.Len(); i++ {
		code := e.route.At(i).Code
		queue := e.waiting[code]
		if len(queue) == 0 {
			continue
		}
		gaveUp := 0
		kept := queue[:0]
		for _, p := range queue {
			if !p.Waiting || p.Completed || p.Boarded() {
				continue // already off the queue's concern
			}
			if e.clock-p.ArrivalTime > giveUp {
				p.Waiting = false
				gaveUp++
				continue
			}
			kept = append(kept, p)
		}
		e.waiting[code] = kept
		if gaveUp > 0 {
			e.emit(AbandonEvent{Station: code, GaveUp: gaveUp, Minute: e.clock})
		}
	}
}

// sampleOccupancy records one time-series point per active train.
func (e *Engine) sampleOccupancy() {
	for _, t := range e.trains {
		if !t.Completed && e.clock >= t.DepartureTime {
			e.stats.recordOccupancy(t.ID, e.clock, t.OccupancyPct(), t.SeatedPct())
		}
	}
}

func (e *Engine) allTrainsCompleted() bool {
	for _, t := range e.trains {
		if !t.Completed {
			return false
		}
	}
	return true
}

func (e *Engine) completedCount() int {
	n := 0
	for _, p := range e.ledger {
		if p.Completed {
			n++
		}
	}
	return n
}

// Results computes the read-only snapshot from the ledger and the recorded
// series. Safe to call at any time; most meaningful after completion.
func (e *Engine) Results() Results {
	r := Results{
		PassengersGenerated: len(e.ledger),
		AvgWaitingTimes:     e.stats.avgWaits(),
		SeatProbability:     e.seatProbability(nil),
		OccupancyData:       copySeries(e.stats.occupancy),
		SeatedPercentage:    copySeries(e.stats.seatedPct),
	}
	for _, p := range e.ledger {
		switch {
		case p.Completed:
			r.PassengersCompleted++
		case p.Boarded():
			if p.Seated {
				r.PassengersSeated++
			} else {
				r.PassengersStanding++
			}
		case p.Abandoned():
			r.PassengersAbandoned++
		}
	}
	return r
}

// SeatProbabilityByOrigin restricts seat probability to completers who
// started at the given station.
func (e *Engine) SeatProbabilityByOrigin(origin string) map[int]float64 {
	return e.seatProbability(func(p *model.Passenger) bool { return p.Origin == origin })
}

// seatProbability computes, per train, the fraction of completed passengers
// who traveled seated, optionally filtered.
func (e *Engine) seatProbability(filter func(*model.Passenger) bool) map[int]float64 {
	seated := make(map[int]int)
	total := make(map[int]int)
	for _, p := range e.ledger {
		if !p.Completed || p.TrainID == model.Unset {
			continue
		}
		if filter != nil && !filter(p) {
			continue
		}
		total[p.TrainID]++
		if p.Seated {
			seated[p.TrainID]++
		}
	}
	out := make(map[int]float64, len(total))
	for id, n := range total {
		out[id] = float64(seated[id]) / float64(n)
	}
	return out
}

// Ledger exposes the historical passenger records for reporting and
// verification. Callers must not mutate the returned values.
func (e *Engine) Ledger() []*model.Passenger { return e.ledger }
