// Package server exposes the simulator over HTTP. Runs are created,
// advanced, and inspected through a small JSON API; a separate SSE endpoint
// streams a paced run for live visualization.
package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"krlsim/model"
	"krlsim/sim"
)

// maxAdvancePerRequest caps how many minutes one advance call may step.
const maxAdvancePerRequest = 24 * 60

// Server owns the scenario and the set of live runs. Each run has its own
// engine and mutex; the engine itself is single-threaded.
type Server struct {
	scenario *model.Scenario
	logger   *slog.Logger
	app      *fiber.App
	runs     sync.Map // run id -> *run
}

type run struct {
	mu      sync.Mutex
	engine  *sim.Engine
	seed    uint64
	created time.Time
	done    bool
	failed  error
}

// New builds a server around a validated scenario.
func New(sc *model.Scenario, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{scenario: sc, logger: log}
	s.app = fiber.New(fiber.Config{
		AppName:      "krlsim API",
		ReadTimeout:  5 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	s.app.Get("/health", s.health)
	s.app.Get("/api/scenario", s.getScenario)
	s.app.Get("/api/route", s.getRoute)
	s.app.Get("/api/timetable", s.getTimetable)
	s.app.Post("/api/runs", s.createRun)
	s.app.Post("/api/runs/:id/advance", s.advanceRun)
	s.app.Get("/api/runs/:id/results", s.runResults)
	s.app.Get("/api/runs/:id/stations/:code", s.stationQueue)
	s.app.Delete("/api/runs/:id", s.deleteRun)
	s.app.Get("/api/stream", s.stream)

	s.app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "endpoint not found"})
	})
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen blocks serving on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "scenario": s.scenario.Name})
}

func (s *Server) getScenario(c *fiber.Ctx) error {
	return c.JSON(s.scenario)
}

func (s *Server) getRoute(c *fiber.Ctx) error {
	return c.JSON(s.scenario.Route)
}

func (s *Server) getTimetable(c *fiber.Ctx) error {
	type entry struct {
		TrainID   int    `json:"train_id"`
		Departure string `json:"departure"`
		Capacity  int    `json:"capacity"`
	}
	out := make([]entry, 0, len(s.scenario.Timetable))
	for i, slot := range s.scenario.Timetable {
		out = append(out, entry{TrainID: i, Departure: model.ClockString(slot.Departure), Capacity: slot.Capacity})
	}
	return c.JSON(out)
}

func (s *Server) createRun(c *fiber.Ctx) error {
	seed := uint64(time.Now().UnixNano())
	if q := c.Query("seed"); q != "" {
		v, err := strconv.ParseUint(q, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "seed must be an unsigned integer")
		}
		seed = v
	}
	engine, err := sim.NewEngine(s.scenario, seed)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	id := uuid.NewString()
	s.runs.Store(id, &run{engine: engine, seed: seed, created: time.Now()})
	s.logger.Info("run created", "id", id, "seed", seed)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    id,
		"seed":  seed,
		"clock": engine.Clock(),
		"done":  engine.Done(),
	})
}

func (s *Server) lookupRun(c *fiber.Ctx) (*run, error) {
	v, ok := s.runs.Load(c.Params("id"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "run not found")
	}
	return v.(*run), nil
}

func (s *Server) advanceRun(c *fiber.Ctx) error {
	r, err := s.lookupRun(c)
	if err != nil {
		return err
	}
	minutes := 1
	if q := c.Query("minutes"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "minutes must be a positive integer")
		}
		minutes = v
	}
	if minutes > maxAdvancePerRequest {
		minutes = maxAdvancePerRequest
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed != nil {
		return fiber.NewError(fiber.StatusConflict, r.failed.Error())
	}
	stepped := 0
	for i := 0; i < minutes && !r.done; i++ {
		done, err := r.engine.Advance()
		if err != nil {
			r.failed = err
			s.logger.Error("run failed", "id", c.Params("id"), "err", err)
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		r.done = done
		stepped++
	}
	return c.JSON(fiber.Map{
		"clock":   r.engine.Clock(),
		"stepped": stepped,
		"done":    r.done,
	})
}

func (s *Server) runResults(c *fiber.Ctx) error {
	r, err := s.lookupRun(c)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed != nil {
		return fiber.NewError(fiber.StatusConflict, r.failed.Error())
	}
	return c.JSON(fiber.Map{
		"clock":   r.engine.Clock(),
		"done":    r.done,
		"results": r.engine.Results(),
	})
}

func (s *Server) stationQueue(c *fiber.Ctx) error {
	r, err := s.lookupRun(c)
	if err != nil {
		return err
	}
	code := c.Params("code")
	if s.scenario.Route.IndexOf(code) < 0 {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown station %q", code))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return c.JSON(fiber.Map{
		"station": code,
		"clock":   r.engine.Clock(),
		"waiting": r.engine.StationQueueSnapshot(code),
	})
}

func (s *Server) deleteRun(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.runs.LoadAndDelete(id); !ok {
		return fiber.NewError(fiber.StatusNotFound, "run not found")
	}
	s.logger.Info("run deleted", "id", id)
	return c.SendStatus(fiber.StatusNoContent)
}

// stream plays one full run as server-sent events. Query parameters: seed
// (default: wall clock) and speed (simulated minutes per second, default 60).
func (s *Server) stream(c *fiber.Ctx) error {
	seed := uint64(time.Now().UnixNano())
	if q := c.Query("seed"); q != "" {
		v, err := strconv.ParseUint(q, 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "seed must be an unsigned integer")
		}
		seed = v
	}
	speed := 60.0
	if q := c.Query("speed"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "speed must be a positive number")
		}
		speed = v
	}

	events, stop, wait, err := sim.StartRunner(s.scenario, seed, sim.StaticControl(speed), s.logger)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer stop()
		for ev := range events {
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName(ev), payload)
			if err := w.Flush(); err != nil {
				// client went away
				return
			}
		}
		if err := wait(); err != nil {
			fmt.Fprintf(w, "event: error\ndata: {\"error\":%q}\n\n", err.Error())
			w.Flush()
		}
	}))
	return nil
}

func eventName(ev sim.Event) string {
	switch ev.(type) {
	case sim.InitEvent:
		return "init"
	case sim.StationUpdateEvent:
		return "station"
	case sim.TrainArriveEvent:
		return "arrive"
	case sim.AlightEvent:
		return "alight"
	case sim.BoardEvent:
		return "board"
	case sim.AbandonEvent:
		return "abandon"
	case sim.TrainCompletedEvent:
		return "train_completed"
	case sim.TickEvent:
		return "tick"
	case sim.DoneEvent:
		return "done"
	default:
		return "message"
	}
}
