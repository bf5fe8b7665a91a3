package routes

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"transit-demand/internal/itinerary"
)

const (
	outboundSuffix = "_out"
	returnSuffix   = "_ret"
)

// BusPersons builds the person file for bus assignments. Every record with a
// route becomes a person that waits briefly at the boarding stop and rides the
// chosen trip to the exit stop. Return records are matched to the outbound
// person by id; records without a route are left out.
func BusPersons(outbound, inbound []itinerary.Assignment) *Routes {
	doc := New()
	ret := make(map[string]itinerary.Assignment, len(inbound))
	for _, a := range inbound {
		if _, dup := ret[a.PersonID]; !dup {
			ret[a.PersonID] = a
		}
	}
	skipped := 0
	for _, out := range outbound {
		if out.HasRoute() {
			doc.Persons = append(doc.Persons, busPerson(out, outboundSuffix))
		} else {
			skipped++
		}
		if back, ok := ret[out.PersonID]; ok && back.HasRoute() {
			doc.Persons = append(doc.Persons, busPerson(back, returnSuffix))
		}
	}
	log.Debug().Int("persons", len(doc.Persons)).Int("without_route", skipped).Msg("bus persons built")
	return doc
}

func busPerson(a itinerary.Assignment, suffix string) Person {
	return Person{
		ID:     fmt.Sprintf("p_%s%s", a.PersonID, suffix),
		Depart: FormatTime(a.DepartureTime),
		Steps: []Step{
			stop(Step{BusStop: a.BoardStop, Duration: boardingDwell}),
			ride(Step{BusStop: a.ExitStop, Lines: a.TripID}),
		},
	}
}
