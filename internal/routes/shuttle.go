package routes

import (
	"fmt"

	"transit-demand/internal/demand"
	"transit-demand/internal/network"
)

// ShuttleTrip is a person's on-demand round trip with the edges picked for
// pickup and drop-off.
type ShuttleTrip struct {
	ID               string  `csv:"id"`
	Depart           float64 `csv:"departure_time"`
	HomeToShop       string  `csv:"edge_home_to_shop"` // pickup at home, heading toward the shop
	ShopToHome       string  `csv:"edge_shop_to_home"` // pickup at the shop, heading home
	ShopArrival      string  `csv:"edge_shop_arrival"` // drop-off nearest the shop
	ActivityDuration float64 `csv:"shopping time"`
}

// MatchShuttleTrips picks, for every OD row, the home edge best aligned with
// the trip toward the shop, the shop edge best aligned with the way home and
// the edge closest to the shop for drop-off. departs is indexed like ods.
func MatchShuttleTrips(idx *network.SegmentIndex, ods []demand.OD, departs []float64) ([]ShuttleTrip, error) {
	if len(departs) != len(ods) {
		return nil, fmt.Errorf("match shuttle trips: %d departures for %d OD rows", len(departs), len(ods))
	}
	if idx.Len() == 0 {
		return nil, fmt.Errorf("match shuttle trips: network has no usable edges")
	}
	dropoff := network.NewNearestCache(idx)
	out := make([]ShuttleTrip, len(ods))
	for i, od := range ods {
		home, shop := od.Origin(), od.Destination()
		h2s, _ := idx.NearestDirectional(home, shop, network.DefaultCandidates)
		s2h, _ := idx.NearestDirectional(shop, home, network.DefaultCandidates)
		arrival, _ := dropoff.Nearest(shop)
		out[i] = ShuttleTrip{
			ID:               od.ID,
			Depart:           departs[i],
			HomeToShop:       h2s.EdgeID,
			ShopToHome:       s2h.EdgeID,
			ShopArrival:      arrival.EdgeID,
			ActivityDuration: od.ActivityDuration,
		}
	}
	return out, nil
}

// ShuttlePersons builds the person file: ride home -> shop by taxi, stay on
// the drop-off lane for the activity, ride back to the home edge.
func ShuttlePersons(trips []ShuttleTrip) *Routes {
	doc := New()
	for _, t := range trips {
		doc.Persons = append(doc.Persons, Person{
			ID:        t.ID,
			Depart:    FormatTime(t.Depart),
			DepartPos: "0.0",
			Steps: []Step{
				ride(Step{From: t.HomeToShop, To: t.ShopArrival, Lines: ShuttleLine}),
				stop(Step{Lane: t.ShopArrival + "_0", Duration: FormatTime(t.ActivityDuration)}),
				ride(Step{From: t.ShopToHome, To: t.HomeToShop, Lines: ShuttleLine}),
			},
		})
	}
	return doc
}
