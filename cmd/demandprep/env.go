package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"transit-demand/internal/config"
	"transit-demand/internal/itinerary"
	"transit-demand/internal/metrics"
	"transit-demand/internal/network"
	"transit-demand/internal/transit"
)

// env bundles what every command needs: process config, the scenario and
// the metrics collector.
type env struct {
	cfg       *config.Config
	sc        *config.Scenario
	metrics   *metrics.Collector
	walkSpeed float64
	maxWalk   float64
	stop      func()
}

// loadEnv merges configuration. Walking settings come from the scenario
// unless set in the environment; command flags override both.
func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	sc := config.DefaultScenario()
	scenarioPath := c.String("scenario")
	if scenarioPath == "" {
		scenarioPath = cfg.ScenarioFile
	}
	if scenarioPath != "" {
		loaded, err := config.LoadScenario(scenarioPath)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenarioPath, err)
		}
		sc = *loaded
		log.Info().Str("scenario", sc.Name).Str("file", scenarioPath).Msg("scenario loaded")
	}
	if dir := c.String("output-dir"); dir != "" {
		sc.Output = dir
	}

	e := &env{cfg: cfg, sc: &sc, walkSpeed: sc.Walk.Speed, maxWalk: sc.Walk.MaxDist, stop: func() {}}
	if _, ok := os.LookupEnv("WALK_SPEED_MPS"); ok || e.walkSpeed == 0 {
		e.walkSpeed = cfg.WalkSpeed
	}
	if _, ok := os.LookupEnv("MAX_WALK_METERS"); ok || e.maxWalk == 0 {
		e.maxWalk = cfg.MaxWalk
	}
	if c.IsSet("walk-speed") {
		e.walkSpeed = c.Float64("walk-speed")
	}
	if c.IsSet("max-walk") {
		e.maxWalk = c.Float64("max-walk")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}

	e.metrics = metrics.NewCollector(e.walkSpeed, e.maxWalk, cfg.Workers)
	if cfg.MetricsAddr != "" {
		srv := e.metrics.Serve(cfg.MetricsAddr)
		e.stop = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}
	}
	return e, nil
}

func (e *env) Close() { e.stop() }

// path returns the flag value, falling back to the scenario value. An empty
// result is an error naming the flag.
func (e *env) path(c *cli.Context, flag, scenarioValue string) (string, error) {
	if v := c.String(flag); v != "" {
		return v, nil
	}
	if scenarioValue != "" {
		return scenarioValue, nil
	}
	return "", fmt.Errorf("--%s is required (or set it in the scenario file)", flag)
}

// output resolves an output file: the flag value or name inside the output dir.
func (e *env) output(c *cli.Context, flag, name string) string {
	if v := c.String(flag); v != "" {
		return v
	}
	return filepath.Join(e.sc.Output, name)
}

var rankingFlags = []cli.Flag{
	&cli.StringFlag{Name: "network", Usage: "simulator network (net.xml)"},
	&cli.StringFlag{Name: "stops", Usage: "additional file with busStop definitions"},
	&cli.StringFlag{Name: "trips", Usage: "route file with scheduled bus trips"},
	&cli.Float64Flag{Name: "walk-speed", Usage: "walking speed in m/s"},
	&cli.Float64Flag{Name: "max-walk", Usage: "maximum walk to or from a stop in metres"},
}

// loadRanker reads the network, stops and trips and builds a ranker that
// reports to the env's metrics.
func (e *env) loadRanker(c *cli.Context) (*itinerary.Ranker, error) {
	netPath, err := e.path(c, "network", e.sc.Inputs.Network)
	if err != nil {
		return nil, err
	}
	stopsPath, err := e.path(c, "stops", e.sc.Inputs.Stops)
	if err != nil {
		return nil, err
	}
	tripsPath, err := e.path(c, "trips", e.sc.Inputs.Trips)
	if err != nil {
		return nil, err
	}

	net, err := network.Load(netPath)
	if err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	stops, err := transit.LoadStops(stopsPath)
	if err != nil {
		return nil, fmt.Errorf("load stops: %w", err)
	}
	resolved, err := transit.ResolveStops(stops, net)
	if err != nil {
		return nil, fmt.Errorf("resolve stops: %w", err)
	}
	trips, rejected, err := transit.LoadTrips(tripsPath)
	if err != nil {
		return nil, fmt.Errorf("load trips: %w", err)
	}
	if len(rejected) > 0 {
		log.Warn().Int("visits", len(rejected)).Msg("stop visits rejected while loading trips")
	}

	r, err := itinerary.NewRanker(resolved, transit.BuildSchedules(trips), itinerary.Settings{
		WalkSpeed: e.walkSpeed,
		Policy:    e.sc.Policy,
		Observer:  e.metrics,
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("edges", len(net.Edges)).
		Int("stops", r.StopCount()).
		Int("trips", r.TripCount()).
		Float64("walk_speed", e.walkSpeed).
		Msg("transit data loaded")
	return r, nil
}
