package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Collector struct {
	reg *prometheus.Registry

	QueriesRanked prometheus.Counter
	OptionsFound  prometheus.Counter
	EmptyQueries  prometheus.Counter
	RankDuration  prometheus.Histogram

	Assignments *prometheus.CounterVec // direction, outcome=route|no_route

	RowsStored  prometheus.Counter
	RowsWritten *prometheus.CounterVec // file label

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	WalkSpeed prometheus.Gauge // m/s
	MaxWalk   prometheus.Gauge // metres
	Workers   prometheus.Gauge
}

func NewCollector(walkSpeed, maxWalk float64, workers int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		QueriesRanked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_rank_queries_total",
			Help: "Total itinerary queries ranked.",
		}),
		OptionsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_rank_options_total",
			Help: "Total feasible options produced by ranking.",
		}),
		EmptyQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_rank_empty_queries_total",
			Help: "Queries that produced no feasible option.",
		}),
		RankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "demand_rank_duration_seconds",
			Help:    "Duration of a single ranking query.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 15),
		}),
		Assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "demand_assignments_total",
			Help: "Assigned legs by direction and outcome.",
		}, []string{"direction", "outcome"}),
		RowsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_db_rows_stored_total",
			Help: "Assignment rows inserted into the database.",
		}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "demand_rows_written_total",
			Help: "Rows written to output files.",
		}, []string{"file"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demand_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "demand_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "demand_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		WalkSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "demand_walk_speed_mps",
			Help: "Configured walking speed.",
		}),
		MaxWalk: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "demand_max_walk_meters",
			Help: "Configured maximum walking distance to or from a stop.",
		}),
		Workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "demand_rank_workers",
			Help: "Configured ranking worker count (0 = one per CPU).",
		}),
	}

	// Register
	reg.MustRegister(
		c.QueriesRanked, c.OptionsFound, c.EmptyQueries, c.RankDuration,
		c.Assignments, c.RowsStored, c.RowsWritten,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.WalkSpeed, c.MaxWalk, c.Workers,
	)

	// Set static gauges
	c.WalkSpeed.Set(walkSpeed)
	c.MaxWalk.Set(maxWalk)
	c.Workers.Set(float64(workers))

	return c
}

// RankObserve records one ranking query.
func (c *Collector) RankObserve(d time.Duration, options int) {
	c.QueriesRanked.Inc()
	c.OptionsFound.Add(float64(options))
	if options == 0 {
		c.EmptyQueries.Inc()
	}
	c.RankDuration.Observe(d.Seconds())
}

func (c *Collector) AssignmentObserve(direction string, routed bool) {
	outcome := "route"
	if !routed {
		outcome = "no_route"
	}
	c.Assignments.WithLabelValues(direction, outcome).Inc()
}

func (c *Collector) RowsStoredAdd(n int) { c.RowsStored.Add(float64(n)) }

func (c *Collector) RowsWrittenAdd(file string, n int) {
	c.RowsWritten.WithLabelValues(file).Add(float64(n))
}

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}
