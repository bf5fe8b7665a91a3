package routes

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-demand/internal/demand"
	"transit-demand/internal/itinerary"
	"transit-demand/internal/network"
)

func assignment(id, dir, trip string, depart float64) itinerary.Assignment {
	return itinerary.Assignment{
		PersonID: id, Direction: dir, DepartureTime: depart,
		TripID: trip, Line: "bus_7", BoardStop: "S1", ExitStop: "S9",
	}
}

func TestBusPersons(t *testing.T) {
	out := []itinerary.Assignment{
		assignment("t_0", itinerary.DirectionOutbound, "b3", 3660),
		assignment("t_1", itinerary.DirectionOutbound, itinerary.NoRoute, 4000),
		assignment("t_2", itinerary.DirectionOutbound, "b4", 4100.456),
	}
	back := []itinerary.Assignment{
		assignment("t_2", itinerary.DirectionReturn, itinerary.NoRoute, 6000),
		assignment("t_0", itinerary.DirectionReturn, "r1", 5500),
	}
	doc := BusPersons(out, back)
	require.Len(t, doc.Persons, 3)

	assert.Equal(t, "p_t_0_out", doc.Persons[0].ID)
	assert.Equal(t, "3660", doc.Persons[0].Depart)
	assert.Equal(t, "p_t_0_ret", doc.Persons[1].ID)
	assert.Equal(t, "r1", doc.Persons[1].Steps[1].Lines)
	assert.Equal(t, "p_t_2_out", doc.Persons[2].ID)
	assert.Equal(t, "4100.46", doc.Persons[2].Depart)

	first := doc.Persons[0].Steps
	require.Len(t, first, 2)
	assert.Equal(t, "stop", first[0].XMLName.Local)
	assert.Equal(t, "S1", first[0].BusStop)
	assert.Equal(t, "0.10", first[0].Duration)
	assert.True(t, first[1].IsRide())
	assert.Equal(t, "S9", first[1].BusStop)
	assert.Equal(t, "b3", first[1].Lines)
}

func TestEncodeAndReadBack(t *testing.T) {
	doc := BusPersons([]itinerary.Assignment{assignment("t_0", itinerary.DirectionOutbound, "b3", 3660)}, nil)

	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))
	text := buf.String()
	assert.True(t, strings.HasPrefix(text, "<?xml"))
	assert.Contains(t, text, `xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`)
	assert.Contains(t, text, `xsi:noNamespaceSchemaLocation="http://sumo.dlr.de/xsd/routes_file.xsd"`)
	assert.Contains(t, text, "\n    <person id=\"p_t_0_out\" depart=\"3660\">")
	assert.Contains(t, text, "\n        <ride busStop=\"S9\" lines=\"b3\"></ride>")

	persons, err := ReadPersons(&buf)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	rides := persons[0].Rides()
	require.Len(t, rides, 1)
	assert.Equal(t, "b3", rides[0].Lines)
}

const shuttleNet = `<net>
  <edge id="E1"><lane id="E1_0" index="0" length="100" shape="0,0 50,0 100,0"/></edge>
  <edge id="-E1"><lane id="-E1_0" index="0" length="100" shape="100,10 50,10 0,10"/></edge>
  <edge id="N1"><lane id="N1_0" index="0" length="100" shape="100,0 100,50 100,100"/></edge>
</net>`

func TestShuttleRoundTrips(t *testing.T) {
	n, err := network.Parse(strings.NewReader(shuttleNet))
	require.NoError(t, err)

	ods := []demand.OD{{ID: "t_0", OriginX: 50, OriginY: 4, DestinationX: 600, DestinationY: 4, ActivityDuration: 1140}}
	trips, err := MatchShuttleTrips(n.Segments(), ods, []float64{3725.5})
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, ShuttleTrip{
		ID: "t_0", Depart: 3725.5,
		HomeToShop: "E1", ShopToHome: "-E1", ShopArrival: "N1",
		ActivityDuration: 1140,
	}, trips[0])

	doc := ShuttlePersons(trips)
	path := filepath.Join(t.TempDir(), "persons.rou.xml")
	require.NoError(t, doc.WriteFile(path))

	persons, err := LoadPersons(path)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	p := persons[0]
	assert.Equal(t, "0.0", p.DepartPos)
	require.Len(t, p.Steps, 3)
	assert.Equal(t, Step{XMLName: p.Steps[0].XMLName, From: "E1", To: "N1", Lines: ShuttleLine}, p.Steps[0])
	assert.Equal(t, "N1_0", p.Steps[1].Lane)
	assert.Equal(t, "1140", p.Steps[1].Duration)
	assert.Equal(t, "-E1", p.Steps[2].From)
	assert.Equal(t, "E1", p.Steps[2].To)
	assert.Len(t, p.Rides(), 2)
}

func TestMatchShuttleTripsChecksInput(t *testing.T) {
	n, err := network.Parse(strings.NewReader(shuttleNet))
	require.NoError(t, err)
	_, err = MatchShuttleTrips(n.Segments(), []demand.OD{{ID: "a"}}, nil)
	assert.Error(t, err)

	_, err = MatchShuttleTrips(network.New().Segments(), nil, nil)
	assert.Error(t, err)
}
