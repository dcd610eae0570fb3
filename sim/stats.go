package sim

// Sample is one point of a per-train time series.
type Sample struct {
	Minute int     `json:"minute"`
	Pct    float64 `json:"pct"`
}

// ledgerStats accumulates the append-only series the engine records while
// stepping. It is never read back into simulation logic.
type ledgerStats struct {
	waitingTimes map[int][]float64 // train id -> wait samples, minutes
	occupancy    map[int][]Sample  // train id -> occupancy % over time
	seatedPct    map[int][]Sample  // train id -> seated % over time
}

func newLedgerStats() *ledgerStats {
	return &ledgerStats{
		waitingTimes: make(map[int][]float64),
		occupancy:    make(map[int][]Sample),
		seatedPct:    make(map[int][]Sample),
	}
}

func (s *ledgerStats) recordWait(trainID int, minutes float64) {
	s.waitingTimes[trainID] = append(s.waitingTimes[trainID], minutes)
}

func (s *ledgerStats) recordOccupancy(trainID, minute int, occupancyPct, seatedPct float64) {
	s.occupancy[trainID] = append(s.occupancy[trainID], Sample{Minute: minute, Pct: occupancyPct})
	s.seatedPct[trainID] = append(s.seatedPct[trainID], Sample{Minute: minute, Pct: seatedPct})
}

func (s *ledgerStats) avgWaits() map[int]float64 {
	out := make(map[int]float64, len(s.waitingTimes))
	for id, samples := range s.waitingTimes {
		if len(samples) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		out[id] = sum / float64(len(samples))
	}
	return out
}

func copySeries(in map[int][]Sample) map[int][]Sample {
	out := make(map[int][]Sample, len(in))
	for id, samples := range in {
		cp := make([]Sample, len(samples))
		copy(cp, samples)
		out[id] = cp
	}
	return out
}

// Results is the read-only snapshot exposed to consumers. Seated and
// standing counts cover passengers currently aboard; completed and abandoned
// passengers are counted separately.
type Results struct {
	PassengersGenerated int              `json:"passengers_generated"`
	PassengersCompleted int              `json:"passengers_completed"`
	PassengersSeated    int              `json:"passengers_seated"`
	PassengersStanding  int              `json:"passengers_standing"`
	PassengersAbandoned int              `json:"passengers_abandoned"`
	AvgWaitingTimes     map[int]float64  `json:"avg_waiting_times"`
	SeatProbability     map[int]float64  `json:"seat_probability"`
	OccupancyData       map[int][]Sample `json:"occupancy_data"`
	SeatedPercentage    map[int][]Sample `json:"seated_percentage"`
}
