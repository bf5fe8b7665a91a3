package demand

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"transit-demand/internal/geom"
	"transit-demand/internal/itinerary"
)

const (
	DefaultActivityDuration = 1140.0 // seconds spent at the attraction
	DefaultStartHour        = 6      // wall-clock hour at simulation time zero
)

type House struct {
	ID    string  `csv:"house_id"`
	Block string  `csv:"name_block"`
	X     float64 `csv:"x"`
	Y     float64 `csv:"y"`
}

type Attraction struct {
	Name string  `csv:"name"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
}

// PersonPlan is one synthetic trip maker.
type PersonPlan struct {
	PersonID         int     `csv:"person_id"`
	Block            string  `csv:"name_block"`
	HouseID          string  `csv:"house_id"`
	OriginX          float64 `csv:"origin_x"`
	OriginY          float64 `csv:"origin_y"`
	HomeDeparture    float64 `csv:"home_departure_time"`
	Destination      string  `csv:"name_destination"`
	DestinationX     float64 `csv:"destination_x"`
	DestinationY     float64 `csv:"destination_y"`
	ActivityDuration float64 `csv:"shopping time"`
}

// Target binds a split demand matrix to the attraction it travels to.
type Target struct {
	Name   string  // label written to the plans
	Key    string  // attraction lookup key, case-insensitive
	Matrix *Matrix // hourly trip counts per block
}

type PlanOptions struct {
	StartHour        int
	ActivityDuration float64
	Rand             *rand.Rand
}

// GeneratePlans expands hourly block counts into individual plans. Each trip
// starts at a random house of its block at a random second within its hour.
// Blocks with no known houses are skipped. Person ids are assigned 1..n in
// generation order.
func GeneratePlans(targets []Target, houses []House, attractions []Attraction, opts PlanOptions) ([]PersonPlan, error) {
	if opts.Rand == nil {
		return nil, fmt.Errorf("generate plans: a random source is required")
	}
	if opts.StartHour == 0 {
		opts.StartHour = DefaultStartHour
	}
	if opts.ActivityDuration == 0 {
		opts.ActivityDuration = DefaultActivityDuration
	}

	byBlock := make(map[string][]House)
	for _, h := range houses {
		b := strings.TrimSpace(h.Block)
		byBlock[b] = append(byBlock[b], h)
	}
	attr := make(map[string]geom.Point, len(attractions))
	for _, a := range attractions {
		attr[normalizeKey(a.Name)] = geom.Point{X: a.X, Y: a.Y}
	}

	var plans []PersonPlan
	for _, target := range targets {
		dest, ok := attr[normalizeKey(target.Key)]
		if !ok {
			log.Warn().Str("attraction", target.Key).Msg("attraction not found, using origin 0,0")
		}
		hours, err := hourIndexes(target.Matrix.HourColumns())
		if err != nil {
			return nil, err
		}
		for _, row := range target.Matrix.Rows {
			available := byBlock[strings.TrimSpace(row.Name)]
			if len(available) == 0 {
				log.Debug().Str("block", row.Name).Msg("no houses for block")
				continue
			}
			for col, hour := range hours {
				count := int(row.Hours[col])
				for range count {
					house := available[opts.Rand.IntN(len(available))]
					sec := opts.Rand.IntN(3600)
					plans = append(plans, PersonPlan{
						Block:            row.Name,
						HouseID:          house.ID,
						OriginX:          house.X,
						OriginY:          house.Y,
						HomeDeparture:    float64((hour-opts.StartHour)*3600 + sec),
						Destination:      target.Name,
						DestinationX:     dest.X,
						DestinationY:     dest.Y,
						ActivityDuration: opts.ActivityDuration,
					})
				}
			}
		}
	}
	for i := range plans {
		plans[i].PersonID = i + 1
	}
	return plans, nil
}

// hourIndexes maps hour column names such as "07:00:00" or "7:00" to hours.
func hourIndexes(cols []string) ([]int, error) {
	out := make([]int, len(cols))
	for i, c := range cols {
		h, _, _ := strings.Cut(strings.TrimSpace(c), ":")
		v, err := strconv.Atoi(h)
		if err != nil || v < 0 || v > 47 {
			return nil, fmt.Errorf("hour column %q is not a clock time", c)
		}
		out[i] = v
	}
	return out, nil
}

func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ItineraryPlans converts generated plans to ranking input. Person ids follow
// the row index ("t_<n>") so outbound and return legs can be joined later.
func ItineraryPlans(plans []PersonPlan) []itinerary.Plan {
	out := make([]itinerary.Plan, len(plans))
	for i, p := range plans {
		out[i] = itinerary.Plan{
			PersonID:         TripID(i),
			Home:             geom.Point{X: p.OriginX, Y: p.OriginY},
			Activity:         geom.Point{X: p.DestinationX, Y: p.DestinationY},
			Depart:           p.HomeDeparture,
			ActivityDuration: p.ActivityDuration,
		}
	}
	return out
}

func TripID(i int) string { return "t_" + strconv.Itoa(i) }

// OD is the origin/destination table consumed by the shuttle and walking
// analyses.
type OD struct {
	ID               string  `csv:"id"`
	OriginName       string  `csv:"name_origin"`
	OriginX          float64 `csv:"origin_x"`
	OriginY          float64 `csv:"origin_y"`
	DestinationName  string  `csv:"name_destination"`
	DestinationX     float64 `csv:"destination_x"`
	DestinationY     float64 `csv:"destination_y"`
	ActivityDuration float64 `csv:"shopping time"`
}

func (o OD) Origin() geom.Point      { return geom.Point{X: o.OriginX, Y: o.OriginY} }
func (o OD) Destination() geom.Point { return geom.Point{X: o.DestinationX, Y: o.DestinationY} }

// ODTable derives the OD rows for plans, keyed the same way as ItineraryPlans.
func ODTable(plans []PersonPlan) []OD {
	out := make([]OD, len(plans))
	for i, p := range plans {
		name := p.Destination
		if name == "" {
			name = TripID(i)
		}
		out[i] = OD{
			ID:               TripID(i),
			OriginName:       p.Block,
			OriginX:          p.OriginX,
			OriginY:          p.OriginY,
			DestinationName:  name,
			DestinationX:     p.DestinationX,
			DestinationY:     p.DestinationY,
			ActivityDuration: p.ActivityDuration,
		}
	}
	return out
}
