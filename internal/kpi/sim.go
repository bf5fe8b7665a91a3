package kpi

import (
	"io"
	"math"
	"os"
	"strings"

	"transit-demand/internal/simxml"
)

// TripInfo is a vehicle or person trip summary from a tripinfo output.
type TripInfo struct {
	ID          string  `xml:"id,attr"`
	Duration    float64 `xml:"duration,attr"`
	RouteLength float64 `xml:"routeLength,attr"`
	TimeLoss    float64 `xml:"timeLoss,attr"`
}

type PersonRide struct {
	Vehicle     string  `xml:"vehicle,attr"`
	WaitingTime float64 `xml:"waitingTime,attr"`
	Duration    float64 `xml:"duration,attr"`
	RouteLength float64 `xml:"routeLength,attr"`
}

type PersonInfo struct {
	ID    string       `xml:"id,attr"`
	Rides []PersonRide `xml:"ride"`
}

// TripOutput is what one tripinfo file holds.
type TripOutput struct {
	Trips   []TripInfo
	Persons []PersonInfo
}

func ReadTripOutput(r io.Reader) (*TripOutput, error) {
	out := &TripOutput{}
	err := simxml.Walk(r, out.handlers())
	return out, err
}

func LoadTripOutput(path string) (*TripOutput, error) {
	out := &TripOutput{}
	err := simxml.WalkFile(path, out.handlers())
	return out, err
}

func (o *TripOutput) handlers() map[string]simxml.ElementFunc {
	return map[string]simxml.ElementFunc{
		"tripinfo":   simxml.Collect(&o.Trips),
		"personinfo": simxml.Collect(&o.Persons),
	}
}

// Performance is the fleet view of a tripinfo output.
type Performance struct {
	Trips            int
	AvgTravelTimeMin float64
	TotalDistanceKm  float64
	AvgInVehicleSec  float64
	AvgTimeLossSec   float64
}

func PerformanceKPIs(trips []TripInfo) Performance {
	p := Performance{Trips: len(trips)}
	var dur, length, loss float64
	for _, t := range trips {
		dur += t.Duration
		length += t.RouteLength
		loss += t.TimeLoss
	}
	p.AvgInVehicleSec = mean(dur, p.Trips)
	p.AvgTravelTimeMin = p.AvgInVehicleSec / 60
	p.TotalDistanceKm = length / 1000
	p.AvgTimeLossSec = mean(loss, p.Trips)
	return p
}

func (p Performance) Rows() []Row {
	if p.Trips == 0 {
		return nil
	}
	return []Row{
		row(CategoryPerformance, "Avg Travel Time [min]", p.AvgTravelTimeMin),
		row(CategoryPerformance, "Total Distance [km]", p.TotalDistanceKm),
		row(CategoryPerformance, "Avg In-Vehicle Time [s]", p.AvgInVehicleSec),
		row(CategoryPerformance, "Avg System Delay [s]", p.AvgTimeLossSec),
	}
}

// OnDemand summarises the rides served by one fleet.
type OnDemand struct {
	Rides             int
	AvgWaitSec        float64
	AvgInVehicleSec   float64
	AvgTotalTravelMin float64
	PassengerKm       float64
	SystemDelaySec    float64 // from rideStatistics; NaN when unknown
}

// OnDemandKPIs counts every person ride whose vehicle id contains fleet. An
// empty fleet matches no ride.
func OnDemandKPIs(persons []PersonInfo, fleet string) OnDemand {
	d := OnDemand{SystemDelaySec: math.NaN()}
	if fleet == "" {
		return d
	}
	var wait, inVeh, dist float64
	for _, p := range persons {
		for _, r := range p.Rides {
			if !strings.Contains(r.Vehicle, fleet) {
				continue
			}
			d.Rides++
			wait += r.WaitingTime
			inVeh += r.Duration
			dist += r.RouteLength
		}
	}
	d.AvgWaitSec = mean(wait, d.Rides)
	d.AvgInVehicleSec = mean(inVeh, d.Rides)
	d.AvgTotalTravelMin = mean(wait+inVeh, d.Rides) / 60
	d.PassengerKm = dist / 1000
	return d
}

func (d OnDemand) Rows() []Row {
	rows := []Row{
		row(CategoryOnDemand, "Total Successful Rides", float64(d.Rides)),
		row(CategoryOnDemand, "Avg Station Waiting Time [s]", d.AvgWaitSec),
		row(CategoryOnDemand, "Avg In-Vehicle Time [s]", d.AvgInVehicleSec),
		row(CategoryOnDemand, "Avg Total Travel Time [min]", d.AvgTotalTravelMin),
		row(CategoryOnDemand, "Total Passenger Dist [km]", d.PassengerKm),
	}
	if !math.IsNaN(d.SystemDelaySec) {
		rows = append(rows, row(CategoryOnDemand, "Global Avg System Delay [s]", d.SystemDelaySec))
	}
	return rows
}

type rideStatistics struct {
	WaitingTime *float64 `xml:"waitingTime,attr"`
}

// ReadRideWaiting returns rideStatistics@waitingTime from a statistics
// output, ok=false when the element or attribute is absent.
func ReadRideWaiting(r io.Reader) (float64, bool, error) {
	var stats []rideStatistics
	if err := simxml.Walk(r, map[string]simxml.ElementFunc{"rideStatistics": simxml.Collect(&stats)}); err != nil {
		return 0, false, err
	}
	if len(stats) == 0 || stats[0].WaitingTime == nil {
		return 0, false, nil
	}
	return *stats[0].WaitingTime, true, nil
}

func LoadRideWaiting(path string) (float64, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false, err
	}
	defer f.Close()
	return ReadRideWaiting(f)
}
