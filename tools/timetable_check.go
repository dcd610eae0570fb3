// Command timetable_check prints projected arrival times for every train at
// every station of a scenario, using cumulative leg travel plus the boarding
// and dwell pauses. Useful for sanity-checking a scenario file before a run.
package main

import (
	"flag"
	"fmt"
	"os"

	"krlsim/data"
	"krlsim/model"
)

func main() {
	scenarioPath := flag.String("scenario", "", "YAML scenario file (empty = built-in scenario)")
	flag.Parse()

	var sc *model.Scenario
	if *scenarioPath == "" {
		sc = data.DefaultScenario()
	} else {
		var err error
		sc, err = model.LoadScenarioFromFile(*scenarioPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load scenario: %v\n", err)
			os.Exit(1)
		}
	}

	p := sc.Params
	fmt.Printf("Scenario: %s (%d stations, %d trains)\n", sc.Name, sc.Route.Len(), len(sc.Timetable))
	fmt.Printf("Speed %.2f km/min, boarding %d min, dwell %d min\n\n", p.SpeedKmPerMin, p.BoardingMin, p.DwellMin)

	fmt.Printf("%-8s", "train")
	for i := 0; i < sc.Route.Len(); i++ {
		fmt.Printf("%8s", sc.Route.At(i).Code)
	}
	fmt.Println()

	for id, slot := range sc.Timetable {
		fmt.Printf("%-8d", id)
		at := float64(slot.Departure)
		for i := 0; i < sc.Route.Len(); i++ {
			if i > 0 {
				leg := sc.Route.LegDistanceKm(i-1, i)
				at += float64(p.BoardingMin+p.DwellMin) + leg/p.SpeedKmPerMin
			}
			fmt.Printf("%8s", model.ClockString(int(at)))
		}
		fmt.Println()
	}
}
