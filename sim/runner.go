package sim

import (
	"log/slog"
	"sync"
	"time"

	"krlsim/model"
)

// Control lets a caller adjust the pacing of a live run. Speed is the
// number of simulated minutes played per wall-clock second.
type Control interface {
	Speed() float64
}

// StaticControl is a Control with a fixed speed.
type StaticControl float64

func (s StaticControl) Speed() float64 { return float64(s) }

// StartRunner launches one engine on its own goroutine and streams its
// events through the returned channel. The channel closes after the final
// DoneEvent. stop tells the runner to abort at the next minute boundary;
// wait blocks until the goroutine exits and returns its error, if any.
func StartRunner(sc *model.Scenario, seed uint64, ctrl Control, logger *slog.Logger) (<-chan Event, func(), func() error, error) {
	engine, err := NewEngine(sc, seed)
	if err != nil {
		return nil, nil, nil, err
	}
	if ctrl == nil {
		ctrl = StaticControl(60)
	}
	if logger == nil {
		logger = slog.Default()
	}

	events := make(chan Event, 64)
	quit := make(chan struct{})
	errc := make(chan error, 1)

	engine.SetObserver(func(ev Event) {
		select {
		case events <- ev:
		case <-quit:
		}
	})

	go func() {
		defer close(events)
		defer close(errc)

		engine.emit(InitEvent{Minute: engine.Clock(), Stations: sc.Route.Len(), Trains: len(engine.Trains())})
		logger.Info("run started",
			"scenario", sc.Name,
			"seed", seed,
			"start", model.ClockString(engine.Clock()),
			"trains", len(engine.Trains()))

		for {
			select {
			case <-quit:
				logger.Info("run stopped", "minute", engine.Clock())
				return
			default:
			}

			done, err := engine.Advance()
			if err != nil {
				logger.Error("run aborted", "minute", engine.Clock(), "err", err)
				errc <- err
				return
			}
			if done {
				results := engine.Results()
				engine.emit(DoneEvent{Minute: engine.Clock(), Results: results})
				logger.Info("run finished",
					"minute", engine.Clock(),
					"generated", results.PassengersGenerated,
					"completed", results.PassengersCompleted,
					"abandoned", results.PassengersAbandoned)
				return
			}

			if speed := ctrl.Speed(); speed > 0 {
				select {
				case <-time.After(time.Duration(float64(time.Second) / speed)):
				case <-quit:
					logger.Info("run stopped", "minute", engine.Clock())
					return
				}
			}
		}
	}()

	var once sync.Once
	stop := func() { once.Do(func() { close(quit) }) }
	wait := func() error { return <-errc }
	return events, stop, wait, nil
}
