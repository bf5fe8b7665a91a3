package kpi

import (
	"transit-demand/internal/demand"
	"transit-demand/internal/geom"
	"transit-demand/internal/network"
	"transit-demand/internal/routes"
)

// Walking is the access and egress walking of shuttle riders, measured from
// the OD coordinates to the midpoints of the first ride's pickup and
// drop-off edges.
type Walking struct {
	Persons           int
	Segments          int
	AvgDistPerPerson  float64
	AvgTimePerPerson  float64
	AvgDistPerSegment float64
	AvgTimePerSegment float64
}

// WalkingKPIs only considers persons with at least two rides (a round trip)
// and an OD row. Edges missing from the index are not measured.
func WalkingKPIs(persons []routes.Person, ods []demand.OD, idx *network.SegmentIndex, walkSpeed float64) Walking {
	byID := make(map[string]demand.OD, len(ods))
	for _, od := range ods {
		byID[od.ID] = od
	}
	var w Walking
	var total float64
	for _, p := range persons {
		rides := p.Rides()
		if len(rides) < 2 {
			continue
		}
		od, ok := byID[p.ID]
		if !ok {
			continue
		}
		measured := 0
		dist := 0.0
		for _, leg := range []struct {
			at   geom.Point
			edge string
		}{{od.Origin(), rides[0].From}, {od.Destination(), rides[0].To}} {
			seg, ok := idx.Lookup(leg.edge)
			if !ok {
				continue
			}
			dist += geom.Distance(leg.at, seg.Mid)
			measured++
		}
		if measured == 0 {
			continue
		}
		w.Persons++
		w.Segments += measured
		total += dist
	}
	w.AvgDistPerPerson = mean(total, w.Persons)
	w.AvgDistPerSegment = mean(total, w.Segments)
	if walkSpeed > 0 {
		w.AvgTimePerPerson = w.AvgDistPerPerson / walkSpeed
		w.AvgTimePerSegment = w.AvgDistPerSegment / walkSpeed
	}
	return w
}

func (w Walking) Rows() []Row {
	return []Row{
		row(CategoryWalking, "Total Persons Analyzed", float64(w.Persons)),
		row(CategoryWalking, "Avg Total Walk Dist [m]", w.AvgDistPerPerson),
		row(CategoryWalking, "Avg Total Walk Time [s]", w.AvgTimePerPerson),
		row(CategoryWalking, "Avg per Segment Dist [m]", w.AvgDistPerSegment),
		row(CategoryWalking, "Avg per Segment Time [s]", w.AvgTimePerSegment),
	}
}
