package sim

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"krlsim/model"
)

// TrainReport is one per-train row of a run report.
type TrainReport struct {
	TrainID          int     `json:"train_id"`
	Departure        string  `json:"departure"`
	AvgWaitMin       float64 `json:"avg_wait_min"`
	SeatProbability  float64 `json:"seat_probability"`
	PeakOccupancyPct float64 `json:"peak_occupancy_pct"`
}

// BuildTrainReports flattens run results into per-train rows, sorted by
// departure time. Trains that carried nobody still get a row.
func BuildTrainReports(trains []*model.Train, res Results) []TrainReport {
	reports := make([]TrainReport, 0, len(trains))
	for _, t := range trains {
		peak := 0.0
		for _, s := range res.OccupancyData[t.ID] {
			if s.Pct > peak {
				peak = s.Pct
			}
		}
		reports = append(reports, TrainReport{
			TrainID:          t.ID,
			Departure:        model.ClockString(t.DepartureTime),
			AvgWaitMin:       res.AvgWaitingTimes[t.ID],
			SeatProbability:  res.SeatProbability[t.ID],
			PeakOccupancyPct: peak,
		})
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Departure < reports[j].Departure })
	return reports
}

// WriteCSVReport writes a CSV report to the given path or directory.
// If reportPath is a directory, it creates a timestamped file inside.
// If reportPath is a file, a timestamp is suffixed before the extension.
func WriteCSVReport(reportPath string, trains []*model.Train, res Results) (string, error) {
	if reportPath == "" {
		return "", nil
	}
	ts := time.Now().Format("20060102-150405")
	outPath := reportPath
	if fi, err := os.Stat(outPath); err == nil && fi.IsDir() {
		outPath = filepath.Join(outPath, fmt.Sprintf("report-%s.csv", ts))
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
	round2 := func(x float64) float64 { return math.Round(x*100) / 100 }
	fmt.Fprintln(f, "section,train_id,departure,avg_wait_min,seat_probability,peak_occupancy_pct,generated,completed,abandoned,timestamp")
	for _, r := range BuildTrainReports(trains, res) {
		fmt.Fprintf(f, "train,%d,%s,%.2f,%.4f,%.1f,,,,%s\n",
			r.TrainID, r.Departure, round2(r.AvgWaitMin), r.SeatProbability, r.PeakOccupancyPct, ts)
	}
	fmt.Fprintf(f, "summary,,,,,,%d,%d,%d,%s\n",
		res.PassengersGenerated, res.PassengersCompleted, res.PassengersAbandoned, ts)
	return outPath, nil
}

// PrintConsoleReport prints a human-readable report to stdout.
func PrintConsoleReport(trains []*model.Train, res Results) {
	fmt.Println("=== Simulation Report ===")
	fmt.Printf("Trains scheduled: %d\n", len(trains))
	fmt.Printf("Passengers generated: %d\n", res.PassengersGenerated)
	fmt.Printf("Passengers completed: %d\n", res.PassengersCompleted)
	fmt.Printf("Passengers abandoned: %d\n", res.PassengersAbandoned)
	fmt.Printf("Still aboard: %d seated, %d standing\n", res.PassengersSeated, res.PassengersStanding)
	for _, r := range BuildTrainReports(trains, res) {
		fmt.Printf("Train %d (dep %s) avg_wait=%.2f min seat_prob=%.2f peak_occupancy=%.1f%%\n",
			r.TrainID, r.Departure, r.AvgWaitMin, r.SeatProbability, r.PeakOccupancyPct)
	}
}
