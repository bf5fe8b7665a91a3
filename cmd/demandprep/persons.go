package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"transit-demand/internal/db"
	"transit-demand/internal/itinerary"
	"transit-demand/internal/routes"
	"transit-demand/internal/tabular"
)

const busPersonsFile = "persons.rou.xml"

func personsCommand() *cli.Command {
	return &cli.Command{
		Name:  "persons",
		Usage: "write the bus person route file from assignment tables",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "outbound", Usage: "outbound assignment table"},
			&cli.StringFlag{Name: "return", Usage: "return assignment table"},
			&cli.BoolFlag{Name: "from-db", Usage: "read the latest stored run of the scenario instead of the tables"},
			&cli.StringFlag{Name: "database", Usage: "database name overriding the DSN path"},
			&cli.StringFlag{Name: "out", Usage: "person route file output"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			var outbound, inbound []itinerary.Assignment
			if c.Bool("from-db") {
				outbound, inbound, err = loadLatestRun(c, e)
			} else {
				outbound, inbound, err = readAssignments(c, e)
			}
			if err != nil {
				return err
			}

			doc := routes.BusPersons(outbound, inbound)
			path := e.output(c, "out", busPersonsFile)
			if err := doc.WriteFile(path); err != nil {
				return err
			}
			e.metrics.RowsWrittenAdd(busPersonsFile, len(doc.Persons))
			log.Info().Int("persons", len(doc.Persons)).Str("file", path).Msg("bus person file written")
			return nil
		},
	}
}

func readAssignments(c *cli.Context, e *env) (outbound, inbound []itinerary.Assignment, err error) {
	outbound, err = tabular.ReadFile[itinerary.Assignment](e.output(c, "outbound", outboundFile))
	if err != nil {
		return nil, nil, err
	}
	inbound, err = tabular.ReadFile[itinerary.Assignment](e.output(c, "return", returnFile))
	if err != nil {
		return nil, nil, err
	}
	return outbound, inbound, nil
}

func loadLatestRun(c *cli.Context, e *env) (outbound, inbound []itinerary.Assignment, err error) {
	dsn := e.cfg.DatabaseURL
	if dsn == "" {
		return nil, nil, fmt.Errorf("--from-db needs DATABASE_URL, PG_DSN or PGDATABASE")
	}
	if name := c.String("database"); name != "" {
		if dsn, err = db.WithDBName(dsn, name); err != nil {
			return nil, nil, err
		}
	}
	sqlDB, err := db.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	defer sqlDB.Close()
	if err := db.Ping(c.Context, sqlDB); err != nil {
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	run, err := db.LatestRun(c.Context, sqlDB, e.sc.Name)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("run_id", run.ID.String()).Int("persons", run.Persons).Msg("using stored run")
	return db.LoadAssignments(c.Context, sqlDB, run.ID)
}
