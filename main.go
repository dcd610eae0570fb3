package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"krlsim/data"
	"krlsim/driver"
	"krlsim/model"
	"krlsim/server"
	"krlsim/sim"
)

func main() {
	mode := flag.String("mode", "run", "run | batch | serve")
	scenarioPath := flag.String("scenario", "", "YAML scenario file (empty = built-in Yogyakarta-Solo scenario)")
	seed := flag.Uint64("seed", 0, "base random seed (0 = wall clock)")
	replications := flag.Int("replications", 30, "number of Monte Carlo replications in batch mode")
	workers := flag.Int("workers", 0, "batch worker goroutines (0 = GOMAXPROCS)")
	addr := flag.String("addr", ":8080", "listen address in serve mode")
	reportPath := flag.String("report", "", "CSV report path or directory (run and batch modes)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		logger.Error("scenario load failed", "path", *scenarioPath, "err", err)
		os.Exit(1)
	}
	logger.Info("scenario loaded",
		"name", sc.Name,
		"stations", sc.Route.Len(),
		"trains", len(sc.Timetable))

	switch *mode {
	case "run":
		if err := runOnce(sc, *seed, *reportPath, logger); err != nil {
			logger.Error("run failed", "err", err)
			os.Exit(1)
		}
	case "batch":
		sum, err := driver.Run(sc, driver.Options{
			Replications: *replications,
			Seed:         *seed,
			Workers:      *workers,
			ReportPath:   *reportPath,
		}, logger)
		if err != nil {
			logger.Error("batch failed", "err", err)
			os.Exit(1)
		}
		driver.PrintSummary(sum)
	case "serve":
		srv := server.New(sc, logger)
		go func() {
			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
			<-sigc
			logger.Info("shutting down")
			if err := srv.Shutdown(); err != nil {
				logger.Error("shutdown error", "err", err)
			}
		}()
		if err := srv.Listen(*addr); err != nil {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want run, batch, or serve)\n", *mode)
		os.Exit(2)
	}
}

func loadScenario(path string) (*model.Scenario, error) {
	if path == "" {
		return data.DefaultScenario(), nil
	}
	return model.LoadScenarioFromFile(path)
}

// runOnce executes a single simulation at full speed and reports.
func runOnce(sc *model.Scenario, seed uint64, reportPath string, logger *slog.Logger) error {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	engine, err := sim.NewEngine(sc, seed)
	if err != nil {
		return err
	}
	logger.Info("run started", "seed", seed, "start", model.ClockString(engine.Clock()))
	for {
		done, err := engine.Advance()
		if err != nil {
			return err
		}
		if done {
			break
		}
	}
	res := engine.Results()
	sim.PrintConsoleReport(engine.Trains(), res)
	if reportPath != "" {
		path, err := sim.WriteCSVReport(reportPath, engine.Trains(), res)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("report written", "path", path)
	}
	return nil
}
