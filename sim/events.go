package sim

// Event is a marker for all notifications emitted while the engine steps.
type Event interface{ isEvent() }

// Observer receives events synchronously from inside Advance.
type Observer func(Event)

// InitEvent signals the start of a run.
type InitEvent struct {
	Minute   int `json:"minute"`
	Stations int `json:"stations"`
	Trains   int `json:"trains"`
}

func (InitEvent) isEvent() {}

// StationUpdateEvent reports a station queue size after new arrivals.
type StationUpdateEvent struct {
	Station   string `json:"station"`
	Waiting   int    `json:"waiting"`
	Generated int    `json:"generated"`
}

func (StationUpdateEvent) isEvent() {}

// TrainArriveEvent indicates a train servicing a station.
type TrainArriveEvent struct {
	TrainID int    `json:"train_id"`
	Station string `json:"station"`
	Minute  int    `json:"minute"`
	Onboard int    `json:"onboard"`
}

func (TrainArriveEvent) isEvent() {}

// AlightEvent indicates passengers leaving a train at their destination.
type AlightEvent struct {
	TrainID  int    `json:"train_id"`
	Station  string `json:"station"`
	Alighted int    `json:"alighted"`
	Onboard  int    `json:"onboard"`
}

func (AlightEvent) isEvent() {}

// BoardEvent indicates passengers admitted from a station queue.
type BoardEvent struct {
	TrainID   int    `json:"train_id"`
	Station   string `json:"station"`
	Boarded   int    `json:"boarded"`
	Onboard   int    `json:"onboard"`
	Seated    int    `json:"seated"`
	Standing  int    `json:"standing"`
	QueueLeft int    `json:"queue_left"`
}

func (BoardEvent) isEvent() {}

// AbandonEvent reports passengers giving up after waiting too long.
type AbandonEvent struct {
	Station string `json:"station"`
	GaveUp  int    `json:"gave_up"`
	Minute  int    `json:"minute"`
}

func (AbandonEvent) isEvent() {}

// TrainCompletedEvent marks a train finishing its run past the terminal.
type TrainCompletedEvent struct {
	TrainID int `json:"train_id"`
	Minute  int `json:"minute"`
}

func (TrainCompletedEvent) isEvent() {}

// TickEvent closes one simulated minute.
type TickEvent struct {
	Minute    int `json:"minute"`
	Generated int `json:"generated"`
	Completed int `json:"completed"`
}

func (TickEvent) isEvent() {}

// DoneEvent signals completion and carries the final snapshot.
type DoneEvent struct {
	Minute  int     `json:"minute"`
	Results Results `json:"results"`
}

func (DoneEvent) isEvent() {}
