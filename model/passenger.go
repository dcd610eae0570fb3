package model

// Unset marks a minute or id field that has not been assigned yet.
const Unset = -1

// Passenger represents a single rider through the system. Entries stay in
// the historical ledger forever; only the station queues drop them.
type Passenger struct {
	ID           int    `json:"id"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	ArrivalTime  int    `json:"arrival_time"`  // minute the passenger reached the origin platform
	BoardingTime int    `json:"boarding_time"` // Unset until boarded
	Seated       bool   `json:"seated"`
	Completed    bool   `json:"completed"`
	TrainID      int    `json:"train_id"` // Unset until assigned
	Waiting      bool   `json:"waiting"`
}

// NewPassenger creates a passenger waiting at its origin station.
func NewPassenger(id int, origin, destination string, arrival int) *Passenger {
	return &Passenger{
		ID:           id,
		Origin:       origin,
		Destination:  destination,
		ArrivalTime:  arrival,
		BoardingTime: Unset,
		TrainID:      Unset,
		Waiting:      true,
	}
}

// Boarded reports whether the passenger ever got on a train.
func (p *Passenger) Boarded() bool { return p.BoardingTime != Unset }

// MarkBoarded records the boarding minute and train assignment.
func (p *Passenger) MarkBoarded(trainID, minute int) {
	p.BoardingTime = minute
	p.TrainID = trainID
	p.Waiting = false
}

// WaitMinutes returns how long the passenger queued before boarding.
// Only meaningful once boarded.
func (p *Passenger) WaitMinutes() int {
	w := p.BoardingTime - p.ArrivalTime
	if w < 0 {
		w = 0
	}
	return w
}

// Abandoned reports a passenger who left the queue without ever boarding.
func (p *Passenger) Abandoned() bool {
	return !p.Waiting && !p.Boarded() && !p.Completed
}
