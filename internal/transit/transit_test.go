package transit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-demand/internal/geom"
	"transit-demand/internal/network"
)

const stopsXML = `<additional>
  <busStop id="S1" name="Market" lane="E1_0" startPos="10" endPos="30"/>
  <busStop id="S2" lane="E1_1" startPos="-40" endPos="-20"/>
  <busStop id="S3" lane="N1_0" startPos="20"/>
</additional>`

const tripsXML = `<routes>
  <vType id="bus" vClass="bus"/>
  <trip id="b1" type="line_7" depart="0" from="E1" to="N1">
    <stop busStop="S1" until="500" duration="20"/>
    <stop busStop="S2" until="00:10:00" duration="15"/>
    <stop busStop="S3" until="abc" duration="10"/>
    <stop busStop="S3" until="900"/>
  </trip>
  <vehicle id="b2" line="L9" depart="100">
    <stop busStop="S1" until="600" duration="x"/>
    <stop busStop="S2" until="700" duration="0"/>
  </vehicle>
</routes>`

func testNetwork() *network.Network {
	return network.New(
		&network.Edge{ID: "E1", Lanes: []*network.Lane{
			{ID: "E1_0", Index: 0, Length: 100, Shape: []geom.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}},
			{ID: "E1_1", Index: 1, Length: 100, Shape: []geom.Point{{X: 0, Y: 3}, {X: 100, Y: 3}}},
		}},
		&network.Edge{ID: "N1", Lanes: []*network.Lane{
			{ID: "N1_0", Index: 0, Shape: []geom.Point{{X: 100, Y: 0}, {X: 100, Y: 80}}},
		}},
	)
}

func TestParseStops(t *testing.T) {
	stops, err := ParseStops(strings.NewReader(stopsXML))
	require.NoError(t, err)
	require.Len(t, stops, 3)
	assert.Equal(t, Stop{ID: "S1", Name: "Market", LaneID: "E1_0", StartPos: 10, EndPos: 30}, stops[0])
	assert.True(t, stops[2].OpenEnd)
}

func TestParseStopsRejectsBadPosition(t *testing.T) {
	_, err := ParseStops(strings.NewReader(`<additional><busStop id="S" lane="E_0" startPos="ten"/></additional>`))
	assert.Error(t, err)
}

func TestParseTripsRejectsMalformedVisits(t *testing.T) {
	trips, rejected, err := ParseTrips(strings.NewReader(tripsXML))
	require.NoError(t, err)
	require.Len(t, trips, 2)

	b1 := trips[0]
	assert.Equal(t, "line_7", b1.Line)
	require.Len(t, b1.Visits, 3)
	assert.Equal(t, Visit{StopID: "S1", Until: 500, Duration: 20}, b1.Visits[0])
	assert.Equal(t, Visit{StopID: "S2", Until: 600, Duration: 15}, b1.Visits[1])
	assert.Equal(t, Visit{StopID: "S3", Until: 900}, b1.Visits[2])

	b2 := trips[1]
	assert.Equal(t, "L9", b2.Line)
	assert.Equal(t, 100.0, b2.Depart)
	require.Len(t, b2.Visits, 1)

	require.Len(t, rejected, 2)
	assert.Equal(t, "b1", rejected[0].TripID)
	assert.Equal(t, 2, rejected[0].Index)
	assert.ErrorIs(t, rejected[0], ErrMalformedSchedule)
	assert.Equal(t, "b2", rejected[1].TripID)
	assert.ErrorIs(t, rejected[1], ErrMalformedSchedule)
}

func TestParseTripsRejectsNonFiniteClock(t *testing.T) {
	const doc = `<routes>
  <trip id="b1" depart="0">
    <stop busStop="S1" until="0:NaN:00"/>
    <stop busStop="S2" until="Inf:00:00"/>
    <stop busStop="S3" until="00:20:00"/>
  </trip>
</routes>`
	trips, rejected, err := ParseTrips(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, trips, 1)
	require.Len(t, trips[0].Visits, 1)
	assert.Equal(t, Visit{StopID: "S3", Until: 1200}, trips[0].Visits[0])
	require.Len(t, rejected, 2)
	for _, r := range rejected {
		assert.ErrorIs(t, r, ErrMalformedSchedule)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"3660", 3660, false},
		{" 12.5 ", 12.5, false},
		{"01:01:00", 3660, false},
		{"25:00:00", 90000, false},
		{"1:00:00:10", 86410, false},
		{"", 0, true},
		{"10:00", 0, true},
		{"NaN", 0, true},
		{"1:xx:00", 0, true},
		{"-1:00:00", 0, true},
		{"0:NaN:00", 0, true},
		{"Inf:00:00", 0, true},
		{"0:00:+Inf", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTime(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedSchedule)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveStops(t *testing.T) {
	stops, err := ParseStops(strings.NewReader(stopsXML))
	require.NoError(t, err)

	resolved, err := ResolveStops(stops, testNetwork())
	require.NoError(t, err)
	require.Len(t, resolved, 3)

	assert.Equal(t, "S1", resolved[0].ID)
	assert.InDelta(t, 20.0, resolved[0].Point.X, 1e-9)
	assert.InDelta(t, 0.0, resolved[0].Point.Y, 1e-9)

	// -40..-20 on a 100 m lane is 60..80.
	assert.InDelta(t, 70.0, resolved[1].Point.X, 1e-9)
	assert.InDelta(t, 3.0, resolved[1].Point.Y, 1e-9)

	// Open end runs to the geometric lane length of 80 m.
	assert.InDelta(t, 100.0, resolved[2].Point.X, 1e-9)
	assert.InDelta(t, 50.0, resolved[2].Point.Y, 1e-9)
}

func TestResolveStopsFailsOnMissingGeometry(t *testing.T) {
	stops := []Stop{
		{ID: "ok", LaneID: "E1_0", StartPos: 0, EndPos: 10},
		{ID: "noedge", LaneID: "X9_0", StartPos: 0, EndPos: 10},
		{ID: "nolane", LaneID: "E1_4", StartPos: 0, EndPos: 10},
		{ID: "badref", LaneID: "E1", StartPos: 0, EndPos: 10},
	}
	resolved, err := ResolveStops(stops, testNetwork())
	assert.Nil(t, resolved)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEdge)
	assert.ErrorIs(t, err, ErrUnknownLane)
	assert.Contains(t, err.Error(), "noedge")
	assert.Contains(t, err.Error(), "nolane")
	assert.Contains(t, err.Error(), "badref")
}

func TestScheduleVisitLookup(t *testing.T) {
	s := NewSchedule(Trip{ID: "loop", Visits: []Visit{
		{StopID: "A"}, {StopID: "B"}, {StopID: "C"}, {StopID: "A"}, {StopID: "D"},
	}})

	i, ok := s.FirstVisit("A")
	require.True(t, ok)
	assert.Equal(t, 0, i)

	j, ok := s.VisitAfter("A", 1)
	require.True(t, ok)
	assert.Equal(t, 3, j)

	_, ok = s.VisitAfter("B", 1)
	assert.False(t, ok)

	k, ok := s.VisitAfter("D", 0)
	require.True(t, ok)
	assert.Equal(t, 4, k)

	assert.False(t, s.Serves("Z"))
}

func TestVisitArrival(t *testing.T) {
	assert.Equal(t, 480.0, Visit{Until: 500, Duration: 20}.Arrival())
}
