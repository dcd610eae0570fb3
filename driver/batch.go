// Package driver runs headless Monte Carlo batches. Each replication is an
// independent engine with its own seed; replications run on a small worker
// pool and never share state.
package driver

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"krlsim/model"
	"krlsim/sim"
)

// Options configures a batch run.
type Options struct {
	Replications int
	Seed         uint64
	Workers      int
	ReportPath   string
}

// TrainSummary aggregates a single train's metrics across replications.
type TrainSummary struct {
	TrainID          int     `json:"train_id"`
	Departure        string  `json:"departure"`
	MeanSeatProb     float64 `json:"mean_seat_probability"`
	MinSeatProb      float64 `json:"min_seat_probability"`
	MaxSeatProb      float64 `json:"max_seat_probability"`
	MeanAvgWaitMin   float64 `json:"mean_avg_wait_min"`
	MeanPeakOccPct   float64 `json:"mean_peak_occupancy_pct"`
	ReplicationsSeen int     `json:"replications_seen"`
}

// Summary is the batch-level aggregate.
type Summary struct {
	Replications  int            `json:"replications"`
	MeanGenerated float64        `json:"mean_generated"`
	MeanCompleted float64        `json:"mean_completed"`
	MeanAbandoned float64        `json:"mean_abandoned"`
	Trains        []TrainSummary `json:"trains"`
	Elapsed       time.Duration  `json:"-"`
}

type repResult struct {
	rep     int
	results sim.Results
	err     error
}

// Run executes opt.Replications independent simulations of the scenario and
// aggregates their results. Replication seeds are derived from the base seed
// so a batch is reproducible end to end.
func Run(sc *model.Scenario, opt Options, logger *slog.Logger) (Summary, error) {
	if opt.Replications <= 0 {
		return Summary{}, fmt.Errorf("batch driver requires at least one replication")
	}
	if logger == nil {
		logger = slog.Default()
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > opt.Replications {
		workers = opt.Replications
	}
	baseSeed := opt.Seed
	if baseSeed == 0 {
		baseSeed = uint64(time.Now().UnixNano())
	}

	start := time.Now()
	logger.Info("batch started",
		"scenario", sc.Name,
		"replications", opt.Replications,
		"workers", workers,
		"seed", baseSeed)

	jobs := make(chan int)
	out := make(chan repResult, opt.Replications)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rep := range jobs {
				res, err := runOne(sc, baseSeed+uint64(rep))
				out <- repResult{rep: rep, results: res, err: err}
			}
		}()
	}
	go func() {
		for rep := 0; rep < opt.Replications; rep++ {
			jobs <- rep
		}
		close(jobs)
		wg.Wait()
		close(out)
	}()

	// keyed by replication index so aggregation order is deterministic
	// regardless of worker scheduling
	all := make([]sim.Results, opt.Replications)
	for r := range out {
		if r.err != nil {
			return Summary{}, fmt.Errorf("replication %d: %w", r.rep, r.err)
		}
		all[r.rep] = r.results
		logger.Debug("replication done",
			"rep", r.rep,
			"generated", r.results.PassengersGenerated,
			"completed", r.results.PassengersCompleted)
	}

	summary := aggregate(sc, all)
	summary.Elapsed = time.Since(start)
	if opt.ReportPath != "" {
		path, err := writeCSV(opt.ReportPath, summary)
		if err != nil {
			logger.Error("batch report failed", "err", err)
		} else {
			logger.Info("batch report written", "path", path)
		}
	}
	logger.Info("batch finished",
		"replications", summary.Replications,
		"mean_generated", summary.MeanGenerated,
		"mean_completed", summary.MeanCompleted,
		"elapsed", summary.Elapsed)
	return summary, nil
}

func runOne(sc *model.Scenario, seed uint64) (sim.Results, error) {
	engine, err := sim.NewEngine(sc, seed)
	if err != nil {
		return sim.Results{}, err
	}
	for {
		done, err := engine.Advance()
		if err != nil {
			return sim.Results{}, err
		}
		if done {
			return engine.Results(), nil
		}
	}
}

func aggregate(sc *model.Scenario, all []sim.Results) Summary {
	n := float64(len(all))
	sum := Summary{Replications: len(all)}
	for _, r := range all {
		sum.MeanGenerated += float64(r.PassengersGenerated) / n
		sum.MeanCompleted += float64(r.PassengersCompleted) / n
		sum.MeanAbandoned += float64(r.PassengersAbandoned) / n
	}

	for id, slot := range sc.Timetable {
		ts := TrainSummary{
			TrainID:     id,
			Departure:   model.ClockString(slot.Departure),
			MinSeatProb: math.MaxFloat64,
		}
		var probSum, waitSum, peakSum float64
		for _, r := range all {
			p, ok := r.SeatProbability[id]
			if !ok {
				continue
			}
			ts.ReplicationsSeen++
			probSum += p
			if p < ts.MinSeatProb {
				ts.MinSeatProb = p
			}
			if p > ts.MaxSeatProb {
				ts.MaxSeatProb = p
			}
			waitSum += r.AvgWaitingTimes[id]
			peak := 0.0
			for _, s := range r.OccupancyData[id] {
				if s.Pct > peak {
					peak = s.Pct
				}
			}
			peakSum += peak
		}
		if ts.ReplicationsSeen > 0 {
			seen := float64(ts.ReplicationsSeen)
			ts.MeanSeatProb = probSum / seen
			ts.MeanAvgWaitMin = waitSum / seen
			ts.MeanPeakOccPct = peakSum / seen
		} else {
			ts.MinSeatProb = 0
		}
		sum.Trains = append(sum.Trains, ts)
	}
	sort.Slice(sum.Trains, func(i, j int) bool { return sum.Trains[i].TrainID < sum.Trains[j].TrainID })
	return sum
}

// writeCSV writes the aggregated summary. A directory path gets a timestamped
// file inside; a file path gets a timestamp suffixed before the extension.
func writeCSV(reportPath string, sum Summary) (string, error) {
	ts := time.Now().Format("20060102-150405")
	outPath := reportPath
	if fi, err := os.Stat(outPath); err == nil && fi.IsDir() {
		outPath = filepath.Join(outPath, fmt.Sprintf("batch-%s.csv", ts))
	} else {
		ext := filepath.Ext(outPath)
		base := outPath[:len(outPath)-len(ext)]
		outPath = fmt.Sprintf("%s-%s%s", base, ts, ext)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	fmt.Fprintln(f, "section,train_id,departure,mean_seat_prob,min_seat_prob,max_seat_prob,mean_avg_wait_min,mean_peak_occ_pct,replications,mean_generated,mean_completed,mean_abandoned,timestamp")
	for _, t := range sum.Trains {
		fmt.Fprintf(f, "train,%d,%s,%.4f,%.4f,%.4f,%.2f,%.1f,,,,,%s\n",
			t.TrainID, t.Departure, t.MeanSeatProb, t.MinSeatProb, t.MaxSeatProb, t.MeanAvgWaitMin, t.MeanPeakOccPct, ts)
	}
	fmt.Fprintf(f, "summary,,,,,,,,%d,%.1f,%.1f,%.1f,%s\n",
		sum.Replications, sum.MeanGenerated, sum.MeanCompleted, sum.MeanAbandoned, ts)
	return outPath, nil
}

// PrintSummary prints a human-readable batch summary to stdout.
func PrintSummary(sum Summary) {
	fmt.Println("=== Batch Summary ===")
	fmt.Printf("Replications: %d (%.2fs)\n", sum.Replications, sum.Elapsed.Seconds())
	fmt.Printf("Mean passengers generated: %.1f\n", sum.MeanGenerated)
	fmt.Printf("Mean passengers completed: %.1f\n", sum.MeanCompleted)
	fmt.Printf("Mean passengers abandoned: %.1f\n", sum.MeanAbandoned)
	for _, t := range sum.Trains {
		fmt.Printf("Train %d (dep %s) seat_prob mean=%.3f min=%.3f max=%.3f avg_wait=%.2f min peak_occ=%.1f%%\n",
			t.TrainID, t.Departure, t.MeanSeatProb, t.MinSeatProb, t.MaxSeatProb, t.MeanAvgWaitMin, t.MeanPeakOccPct)
	}
}
