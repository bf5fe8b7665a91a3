package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-demand/internal/itinerary"
	"transit-demand/internal/publisher"
)

var (
	_ itinerary.Observer         = (*Collector)(nil)
	_ publisher.PublisherMetrics = (*Collector)(nil)
)

func TestRankObserve(t *testing.T) {
	c := NewCollector(1.1, 600, 4)
	c.RankObserve(2*time.Millisecond, 3)
	c.RankObserve(time.Millisecond, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.QueriesRanked))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.OptionsFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EmptyQueries))
	assert.Equal(t, 1, testutil.CollectAndCount(c.RankDuration))
}

func TestAssignmentsAndRows(t *testing.T) {
	c := NewCollector(1.1, 600, 0)
	c.AssignmentObserve("outbound", true)
	c.AssignmentObserve("outbound", false)
	c.AssignmentObserve("outbound", true)
	c.RowsStoredAdd(5)
	c.RowsWrittenAdd("plans.csv", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Assignments.WithLabelValues("outbound", "route")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Assignments.WithLabelValues("outbound", "no_route")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.RowsStored))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.RowsWritten.WithLabelValues("plans.csv")))
}

func TestNATSGauge(t *testing.T) {
	c := NewCollector(1.1, 600, 0)
	c.NATSSetConnected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NATSConnected))
	c.NATSSetConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.NATSConnected))
}

func TestHandlerExposesStaticGauges(t *testing.T) {
	c := NewCollector(1.25, 450, 8)
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "demand_walk_speed_mps 1.25"))
	assert.True(t, strings.Contains(text, "demand_max_walk_meters 450"))
	assert.True(t, strings.Contains(text, "demand_rank_workers 8"))
}
