package itinerary

import (
	"context"
	"math"

	"transit-demand/internal/geom"
)

const (
	DirectionOutbound = "outbound"
	DirectionReturn   = "return"

	NoRoute = "No Route"
	NoStop  = "N/A"
)

// Plan is one person's home -> activity -> home day.
type Plan struct {
	PersonID         string
	Home             geom.Point
	Activity         geom.Point
	Depart           float64
	ActivityDuration float64
}

// Leg is the chosen itinerary for one direction, nil Option meaning no route.
type Leg struct {
	Direction string
	Depart    float64
	Option    *Option
}

type RoundTrip struct {
	Plan     Plan
	Outbound Leg
	Return   *Leg // only attempted when the outbound leg has a route
}

// AssignRoundTrip picks the best outbound itinerary and, when there is one,
// the best return itinerary leaving after the activity.
func (r *Ranker) AssignRoundTrip(p Plan, maxWalk float64) RoundTrip {
	rt := RoundTrip{Plan: p, Outbound: Leg{Direction: DirectionOutbound, Depart: p.Depart}}
	out, ok := r.Best(Query{Origin: p.Home, Destination: p.Activity, Depart: p.Depart, MaxWalk: maxWalk})
	if !ok {
		return rt
	}
	rt.Outbound.Option = &out

	back := Leg{Direction: DirectionReturn, Depart: ReturnDeparture(out, p.ActivityDuration)}
	if ret, ok := r.Best(Query{Origin: p.Activity, Destination: p.Home, Depart: back.Depart, MaxWalk: maxWalk}); ok {
		back.Option = &ret
	}
	rt.Return = &back
	return rt
}

// ReturnDeparture is when the person leaves the activity: the outbound
// vehicle's arrival at the exit stop, plus the whole seconds of the final
// walk, plus the activity time.
func ReturnDeparture(out Option, activity float64) float64 {
	return out.ExitArrival + math.Trunc(out.WalkFromStopTime) + activity
}

// AssignRoundTrips runs AssignRoundTrip for every plan on a bounded pool and
// keeps plan order.
func (r *Ranker) AssignRoundTrips(ctx context.Context, plans []Plan, maxWalk float64, workers int) ([]RoundTrip, error) {
	return inParallel(ctx, plans, workers, func(p Plan) RoundTrip {
		return r.AssignRoundTrip(p, maxWalk)
	})
}

// Assignment is the flat record of one leg, as written to the assignment
// tables and published downstream.
type Assignment struct {
	PersonID              string  `csv:"id" json:"id"`
	Direction             string  `csv:"direction" json:"direction"`
	DepartureTime         float64 `csv:"departure_time" json:"departureTime"`
	Line                  string  `csv:"bus_line_selected" json:"line"`
	TripID                string  `csv:"bus_id_selected" json:"tripId"`
	BoardStop             string  `csv:"start_stop_selected" json:"boardStop"`
	StartWalkDistance     float64 `csv:"start_walk_distance" json:"startWalkDistance"`
	StartWalkTime         int     `csv:"start_walk_time" json:"startWalkTime"`
	PersonArrivalAtStop   int     `csv:"person_arrival_start_stop" json:"personArrivalAtStop"`
	VehicleDepartureStart int     `csv:"bus_arrival_start_stop" json:"vehicleDepartureStart"`
	ExitStop              string  `csv:"last_stop_selected" json:"exitStop"`
	VehicleArrivalExit    int     `csv:"bus_arrival_last_stop" json:"vehicleArrivalExit"`
	EndWalkDistance       float64 `csv:"end_walk_distance" json:"endWalkDistance"`
	EndWalkTime           int     `csv:"end_walk_time" json:"endWalkTime"`
	TotalTime             float64 `csv:"total_time" json:"totalTime"`
	Score                 float64 `csv:"rank_score" json:"score"`
}

// HasRoute reports whether the record carries a chosen itinerary.
func (a Assignment) HasRoute() bool { return a.TripID != NoRoute && a.TripID != "" }

// Record flattens a leg. Distances keep one decimal, times whole seconds.
func (l Leg) Record(personID string) Assignment {
	a := Assignment{PersonID: personID, Direction: l.Direction, DepartureTime: l.Depart}
	o := l.Option
	if o == nil {
		a.Line, a.TripID = NoRoute, NoRoute
		a.BoardStop, a.ExitStop = NoStop, NoStop
		return a
	}
	a.Line = o.Line
	a.TripID = o.TripID
	a.BoardStop = o.BoardStop
	a.StartWalkDistance = round1(o.WalkToStopDist)
	a.StartWalkTime = int(o.WalkToStopTime)
	a.PersonArrivalAtStop = int(o.ArrivalAtStop)
	a.VehicleDepartureStart = int(o.BoardDeparture)
	a.ExitStop = o.ExitStop
	a.VehicleArrivalExit = int(o.ExitArrival)
	a.EndWalkDistance = round1(o.WalkFromStopDist)
	a.EndWalkTime = int(o.WalkFromStopTime)
	a.TotalTime = o.TotalTime
	a.Score = o.Score
	return a
}

// Records flattens round trips into outbound and return tables. Plans
// without an outbound route have no return record.
func Records(trips []RoundTrip) (outbound, inbound []Assignment) {
	for _, rt := range trips {
		outbound = append(outbound, rt.Outbound.Record(rt.Plan.PersonID))
		if rt.Return != nil {
			inbound = append(inbound, rt.Return.Record(rt.Plan.PersonID))
		}
	}
	return outbound, inbound
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
