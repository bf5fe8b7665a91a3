// Package kpi condenses assignment tables and simulator outputs into the
// indicators reported for each scenario.
package kpi

import (
	"math"

	"transit-demand/internal/itinerary"
)

const (
	CategoryAccessibility = "User Accessibility"
	CategoryPerformance   = "System Performance"
	CategoryWalking       = "Walking"
	CategoryOnDemand      = "On-Demand Service"
)

// Row is one line of the consolidated KPI table.
type Row struct {
	Category string  `csv:"Category"`
	Name     string  `csv:"KPI"`
	Value    float64 `csv:"Value"`
}

func row(category, name string, v float64) Row {
	return Row{Category: category, Name: name, Value: round2(v)}
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Demand holds accessibility indicators over all assigned legs.
type Demand struct {
	Trips           int     // every leg, routed or not
	Routed          int     // legs with a bus itinerary
	AvgWalkDistance float64 // both walks, metres
	AvgWalkTime     float64 // both walks, seconds
	AvgStationWait  float64 // vehicle departure minus rider arrival, seconds
}

// DemandKPIs counts every leg as demand. Walking and waiting are averaged over
// routed legs only.
func DemandKPIs(records ...[]itinerary.Assignment) Demand {
	var d Demand
	var dist, walk, wait float64
	for _, set := range records {
		d.Trips += len(set)
		for _, a := range set {
			if !a.HasRoute() {
				continue
			}
			d.Routed++
			dist += a.StartWalkDistance + a.EndWalkDistance
			walk += float64(a.StartWalkTime + a.EndWalkTime)
			wait += float64(a.VehicleDepartureStart - a.PersonArrivalAtStop)
		}
	}
	d.AvgWalkDistance = mean(dist, d.Routed)
	d.AvgWalkTime = mean(walk, d.Routed)
	d.AvgStationWait = mean(wait, d.Routed)
	return d
}

func (d Demand) Rows() []Row {
	return []Row{
		row(CategoryAccessibility, "Avg Walk Distance [m]", d.AvgWalkDistance),
		row(CategoryAccessibility, "Avg Walk Time [s]", d.AvgWalkTime),
		row(CategoryAccessibility, "Avg Station Waiting Time [s]", d.AvgStationWait),
		row(CategoryAccessibility, "Total Demand [Trips]", float64(d.Trips)),
		row(CategoryAccessibility, "Routed Trips", float64(d.Routed)),
	}
}
