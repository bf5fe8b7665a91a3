package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-demand/internal/demand"
	"transit-demand/internal/itinerary"
	"transit-demand/internal/kpi"
	"transit-demand/internal/routes"
	"transit-demand/internal/tabular"
)

const pipelineNet = `<net>
  <edge id="E1"><lane id="E1_0" index="0" length="1000" shape="0,0 500,0 1000,0"/></edge>
  <edge id="-E1"><lane id="-E1_0" index="0" length="1000" shape="1000,10 500,10 0,10"/></edge>
</net>`

const pipelineStops = `<additional>
  <busStop id="S1" lane="E1_0" startPos="90" endPos="110"/>
  <busStop id="S2" lane="E1_0" startPos="890" endPos="910"/>
  <busStop id="S3" lane="-E1_0" startPos="90" endPos="110"/>
  <busStop id="S4" lane="-E1_0" startPos="-110" endPos="-90"/>
</additional>`

func pipelineTrips() string {
	var b strings.Builder
	b.WriteString("<routes>\n")
	for i, t := 0, 3000; t <= 16000; i, t = i+1, t+600 {
		fmt.Fprintf(&b, `  <trip id="out_%d" type="bus_L1" depart="%d">
    <stop busStop="S1" until="%d" duration="20"/>
    <stop busStop="S2" until="%d"/>
  </trip>
  <trip id="ret_%d" type="bus_L1R" depart="%d">
    <stop busStop="S3" until="%d"/>
    <stop busStop="S4" until="%d"/>
  </trip>
`, i, t, t, t+800, i, t, t, t+800)
	}
	b.WriteString("</routes>\n")
	return b.String()
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.RunContext(context.Background(), append([]string{"demandprep"}, args...)))
	return out.String()
}

func TestPipeline(t *testing.T) {
	for _, k := range []string{"SCENARIO_FILE", "WALK_SPEED_MPS", "MAX_WALK_METERS", "RANK_WORKERS", "METRICS_ADDR", "RANDOM_SEED"} {
		t.Setenv(k, "")
	}
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "results")

	scenario := writeFixture(t, in, "scenario.yml", fmt.Sprintf(`
name: test-area
inputs:
  network: %s
  stops: %s
  trips: %s
  matrix: %s
  houses: %s
  attractions: %s
`,
		writeFixture(t, in, "net.xml", pipelineNet),
		writeFixture(t, in, "stops.add.xml", pipelineStops),
		writeFixture(t, in, "trips.rou.xml", pipelineTrips()),
		writeFixture(t, in, "matrix.csv", "name,agents,07:00:00,08:00:00\nBlock A,10,1,1\n"),
		writeFixture(t, in, "houses.csv", "house_id,name_block,x,y\nh1,Block A,50,50\n"),
		writeFixture(t, in, "attractions.csv", "name,x,y\nLocal,950,50\nDistrict,950,-40\n"),
	))
	base := []string{"--scenario", scenario, "--output-dir", out}

	run(t, append(base, "split")...)
	local, err := readMatrix(filepath.Join(out, localMatrixFile))
	require.NoError(t, err)
	district, err := readMatrix(filepath.Join(out, districtMatrixFile))
	require.NoError(t, err)
	assert.Equal(t, 3.0, local.Rows[0].Total)
	assert.Equal(t, 7.0, district.Rows[0].Total)

	run(t, append(base, "plans", "--seed", "7")...)
	plans, err := tabular.ReadFile[demand.PersonPlan](filepath.Join(out, plansFile))
	require.NoError(t, err)
	require.Len(t, plans, 10)
	ods, err := tabular.ReadFile[demand.OD](filepath.Join(out, odFile))
	require.NoError(t, err)
	assert.Len(t, ods, 10)

	run(t, append(base, "assign", "--workers", "2")...)
	outbound, err := tabular.ReadFile[itinerary.Assignment](filepath.Join(out, outboundFile))
	require.NoError(t, err)
	require.Len(t, outbound, 10)
	for _, a := range outbound {
		assert.True(t, a.HasRoute(), a.PersonID)
		assert.Equal(t, "S1", a.BoardStop)
		assert.Equal(t, "S2", a.ExitStop)
		assert.GreaterOrEqual(t, a.VehicleDepartureStart, a.PersonArrivalAtStop)
	}
	assert.Equal(t, "t_0", outbound[0].PersonID)
	inbound, err := tabular.ReadFile[itinerary.Assignment](filepath.Join(out, returnFile))
	require.NoError(t, err)
	assert.Len(t, inbound, 10)

	run(t, append(base, "persons")...)
	persons, err := routes.LoadPersons(filepath.Join(out, busPersonsFile))
	require.NoError(t, err)
	assert.Len(t, persons, 20)
	assert.Equal(t, "p_t_0_out", persons[0].ID)

	run(t, append(base, "shuttle")...)
	shuttle, err := routes.LoadPersons(filepath.Join(out, shuttlePersonsFile))
	require.NoError(t, err)
	require.Len(t, shuttle, 10)
	assert.Len(t, shuttle[0].Rides(), 2)

	run(t, append(base, "kpi", "--shuttle-persons", filepath.Join(out, shuttlePersonsFile))...)
	rows, err := tabular.ReadFile[kpi.Row](filepath.Join(out, kpiFile))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Avg Walk Distance [m]", rows[0].Name)

	text := run(t, append(base, "rank", "--from", "50,50", "--to", "950,50", "--depart", "1:00:00", "--top", "2")...)
	assert.Contains(t, text, "RANK")
	assert.Contains(t, text, "out_2")
}
