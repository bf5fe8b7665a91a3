package itinerary

import (
	"errors"
	"sort"
	"time"

	"transit-demand/internal/geom"
	"transit-demand/internal/transit"
)

const (
	DefaultWalkSpeed = 1.1   // m/s
	DefaultMaxWalk   = 600.0 // m, used by config defaults
)

// Query asks for walk-ride-walk itineraries between two points.
type Query struct {
	Origin      geom.Point
	Destination geom.Point
	Depart      float64 // seconds since simulation start
	MaxWalk     float64 // inclusive straight-line radius at each end, meters
}

// Option is one feasible itinerary. Times are seconds, distances meters.
type Option struct {
	TripID    string
	Line      string
	BoardStop string
	ExitStop  string

	BoardIndex  int
	ExitIndex   int
	StopsRidden int

	WalkToStopDist float64
	WalkToStopTime float64
	ArrivalAtStop  float64 // rider at the boarding stop
	BoardDeparture float64 // trip leaves the boarding stop
	WaitTime       float64
	ExitArrival    float64 // trip reaches the exit stop
	RideTime       float64

	WalkFromStopDist float64
	WalkFromStopTime float64

	TotalTime float64
	Score     float64
}

// Observer receives per-query timings. The metrics collector implements it.
type Observer interface {
	RankObserve(d time.Duration, options int)
}

type Settings struct {
	WalkSpeed float64
	Policy    ScorePolicy
	Observer  Observer
}

// Ranker holds the read-only inputs shared by all queries: resolved stop
// coordinates in file order and the indexed trip schedules.
type Ranker struct {
	stops     []transit.ResolvedStop
	schedules []*transit.Schedule
	walkSpeed float64
	policy    ScorePolicy
	observer  Observer
}

func NewRanker(stops []transit.ResolvedStop, schedules []*transit.Schedule, s Settings) (*Ranker, error) {
	if s.WalkSpeed == 0 {
		s.WalkSpeed = DefaultWalkSpeed
	}
	if s.WalkSpeed < 0 {
		return nil, errors.New("walk speed must be positive")
	}
	if s.Policy == (ScorePolicy{}) {
		s.Policy = DefaultPolicy()
	}
	return &Ranker{
		stops:     stops,
		schedules: schedules,
		walkSpeed: s.WalkSpeed,
		policy:    s.Policy,
		observer:  s.Observer,
	}, nil
}

type candidate struct {
	stopID string
	dist   float64
}

// Rank returns every feasible option for q, best first. A zero MaxWalk only
// matches stops exactly at the query points. Options with equal
// scores keep their emission order: trip order, then boarding stop order,
// then exit stop order.
func (r *Ranker) Rank(q Query) []Option {
	start := time.Now()
	maxWalk := q.MaxWalk

	var nearOrigin, nearDest []candidate
	for _, s := range r.stops {
		if d := geom.Distance(q.Origin, s.Point); d <= maxWalk {
			nearOrigin = append(nearOrigin, candidate{s.ID, d})
		}
		if d := geom.Distance(q.Destination, s.Point); d <= maxWalk {
			nearDest = append(nearDest, candidate{s.ID, d})
		}
	}

	options := []Option{}
	if len(nearOrigin) > 0 && len(nearDest) > 0 {
		for _, sched := range r.schedules {
			options = r.appendTripOptions(options, sched, q, nearOrigin, nearDest)
		}
	}

	sort.SliceStable(options, func(i, j int) bool { return options[i].Score < options[j].Score })

	if r.observer != nil {
		r.observer.RankObserve(time.Since(start), len(options))
	}
	return options
}

func (r *Ranker) appendTripOptions(options []Option, sched *transit.Schedule, q Query, nearOrigin, nearDest []candidate) []Option {
	visits := sched.Trip.Visits
	for _, o := range nearOrigin {
		bi, ok := sched.FirstVisit(o.stopID)
		if !ok {
			continue
		}
		board := visits[bi]
		walk1 := o.dist / r.walkSpeed
		reach := q.Depart + walk1
		if reach > board.Until {
			continue // bus already gone
		}
		for _, d := range nearDest {
			if d.stopID == o.stopID {
				continue
			}
			ei, ok := sched.VisitAfter(d.stopID, bi)
			if !ok {
				continue
			}
			exitArrival := visits[ei].Arrival()
			walk2 := d.dist / r.walkSpeed
			wait := board.Until - reach
			ride := exitArrival - board.Until
			opt := Option{
				TripID:           sched.Trip.ID,
				Line:             sched.Trip.Line,
				BoardStop:        o.stopID,
				ExitStop:         d.stopID,
				BoardIndex:       bi,
				ExitIndex:        ei,
				StopsRidden:      ei - bi,
				WalkToStopDist:   o.dist,
				WalkToStopTime:   walk1,
				ArrivalAtStop:    reach,
				BoardDeparture:   board.Until,
				WaitTime:         wait,
				ExitArrival:      exitArrival,
				RideTime:         ride,
				WalkFromStopDist: d.dist,
				WalkFromStopTime: walk2,
				TotalTime:        walk1 + wait + ride + walk2,
			}
			opt.Score = r.policy.Score(opt)
			options = append(options, opt)
		}
	}
	return options
}

// Best returns the top-ranked option, if any.
func (r *Ranker) Best(q Query) (Option, bool) {
	opts := r.Rank(q)
	if len(opts) == 0 {
		return Option{}, false
	}
	return opts[0], true
}

// StopCount is the number of resolved stops the ranker searches.
func (r *Ranker) StopCount() int { return len(r.stops) }

// TripCount is the number of scheduled trips the ranker searches.
func (r *Ranker) TripCount() int { return len(r.schedules) }
