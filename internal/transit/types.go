package transit

import "transit-demand/internal/geom"

// Stop is a boarding point bound to a lane position.
type Stop struct {
	ID       string
	Name     string
	LaneID   string
	StartPos float64
	EndPos   float64
	OpenEnd  bool // endPos omitted: the stop reaches the lane end
}

// Visit is one scheduled call of a trip at a stop.
type Visit struct {
	StopID   string
	Until    float64 // scheduled departure, seconds since simulation start
	Duration float64 // dwell seconds
}

// Arrival is the instant the vehicle reaches the stop.
func (v Visit) Arrival() float64 { return v.Until - v.Duration }

// Trip is one scheduled vehicle run.
type Trip struct {
	ID     string
	Line   string // the vehicle type or line label
	Depart float64
	Visits []Visit // physical visit order
}

// ResolvedStop pairs a stop with its network coordinate.
type ResolvedStop struct {
	ID    string
	Point geom.Point
}
