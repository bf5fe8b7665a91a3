package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"transit-demand/internal/db"
	"transit-demand/internal/demand"
	"transit-demand/internal/itinerary"
	"transit-demand/internal/publisher"
	"transit-demand/internal/tabular"
)

const (
	outboundFile = "home_shopping_person_info.csv"
	returnFile   = "shopping_home_person_info.csv"
)

func assignCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "plans", Usage: "person plans (CSV)"},
		&cli.StringFlag{Name: "outbound-out", Usage: "outbound assignment table"},
		&cli.StringFlag{Name: "return-out", Usage: "return assignment table"},
		&cli.IntFlag{Name: "workers", Usage: "parallel ranking workers (0 = one per CPU)"},
		&cli.BoolFlag{Name: "store", Usage: "store the run in Postgres (needs DATABASE_URL or PG* vars)"},
		&cli.StringFlag{Name: "database", Usage: "database name overriding the DSN path"},
		&cli.BoolFlag{Name: "publish", Usage: "publish assignments to NATS (needs NATS_URL)"},
	}, rankingFlags...)

	return &cli.Command{
		Name:  "assign",
		Usage: "assign each person the best outbound and return bus itinerary",
		Flags: flags,
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			r, err := e.loadRanker(c)
			if err != nil {
				return err
			}
			plansPath := e.output(c, "plans", plansFile)
			plans, err := readPlans(plansPath)
			if err != nil {
				return err
			}

			start := time.Now()
			trips, err := r.AssignRoundTrips(c.Context, demand.ItineraryPlans(plans), e.maxWalk, e.cfg.Workers)
			if err != nil {
				return err
			}
			outbound, inbound := itinerary.Records(trips)
			routed := 0
			for _, set := range [][]itinerary.Assignment{outbound, inbound} {
				for _, a := range set {
					e.metrics.AssignmentObserve(a.Direction, a.HasRoute())
					if a.HasRoute() {
						routed++
					}
				}
			}
			log.Info().
				Int("persons", len(plans)).
				Int("legs", len(outbound)+len(inbound)).
				Int("routed", routed).
				Dur("elapsed", time.Since(start)).
				Msg("itineraries assigned")

			for _, out := range []struct {
				flag, file string
				rows       []itinerary.Assignment
			}{
				{"outbound-out", outboundFile, outbound},
				{"return-out", returnFile, inbound},
			} {
				path := e.output(c, out.flag, out.file)
				if err := tabular.WriteFile(path, out.rows); err != nil {
					return err
				}
				e.metrics.RowsWrittenAdd(out.file, len(out.rows))
			}

			run := db.NewRun(e.sc.Name, len(plans))
			if c.Bool("store") {
				if err := storeRun(c.Context, e, c.String("database"), run, outbound, inbound); err != nil {
					return err
				}
			}
			if c.Bool("publish") {
				if err := publishRun(e, run, outbound, inbound); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func storeRun(ctx context.Context, e *env, database string, run db.Run, records ...[]itinerary.Assignment) error {
	dsn := e.cfg.DatabaseURL
	if dsn == "" {
		return fmt.Errorf("--store needs DATABASE_URL, PG_DSN or PGDATABASE")
	}
	if database != "" {
		var err error
		if dsn, err = db.WithDBName(dsn, database); err != nil {
			return fmt.Errorf("compose DSN: %w", err)
		}
	}
	sqlDB, err := db.Open(dsn)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		return err
	}
	n, err := db.InsertAssignments(ctx, sqlDB, run, records...)
	if err != nil {
		return err
	}
	e.metrics.RowsStoredAdd(n)
	log.Info().Str("run_id", run.ID.String()).Int("rows", n).Msg("assignments stored")
	return nil
}

func publishRun(e *env, run db.Run, outbound, inbound []itinerary.Assignment) error {
	if e.cfg.NATSURL == "" {
		return fmt.Errorf("--publish needs NATS_URL")
	}
	pub, err := publisher.NewNATSPublisher(e.cfg.NATSURL, e.cfg.NATSSubjectPrefix, e.cfg.LogNATSSubjects, e.metrics)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer pub.Close()

	total := 0
	for _, set := range [][]itinerary.Assignment{outbound, inbound} {
		n, err := pub.PublishAll(run.ID.String(), run.Scenario, set)
		total += n
		if err != nil {
			return err
		}
	}
	log.Info().Str("run_id", run.ID.String()).Int("messages", total).Str("prefix", e.cfg.NATSSubjectPrefix).Msg("assignments published")
	return nil
}
