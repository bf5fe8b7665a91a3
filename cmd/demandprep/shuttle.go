package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"transit-demand/internal/demand"
	"transit-demand/internal/network"
	"transit-demand/internal/routes"
	"transit-demand/internal/tabular"
)

const (
	shuttlePersonsFile = "shuttle_persons.rou.xml"
	shuttleEdgesFile   = "shuttle_edges.csv"
)

func shuttleCommand() *cli.Command {
	return &cli.Command{
		Name:  "shuttle",
		Usage: "write on-demand shuttle round trips for every person plan",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "network", Usage: "simulator network (net.xml)"},
			&cli.StringFlag{Name: "plans", Usage: "person plans (CSV)"},
			&cli.StringFlag{Name: "out", Usage: "person route file output"},
			&cli.StringFlag{Name: "edges-out", Usage: "chosen pickup and drop-off edges (CSV)"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			netPath, err := e.path(c, "network", e.sc.Inputs.Network)
			if err != nil {
				return err
			}
			net, err := network.Load(netPath)
			if err != nil {
				return fmt.Errorf("load network: %w", err)
			}
			plans, err := readPlans(e.output(c, "plans", plansFile))
			if err != nil {
				return err
			}

			departs := make([]float64, len(plans))
			for i, p := range plans {
				departs[i] = p.HomeDeparture
			}
			trips, err := routes.MatchShuttleTrips(net.Segments(), demand.ODTable(plans), departs)
			if err != nil {
				return err
			}

			edgesPath := e.output(c, "edges-out", shuttleEdgesFile)
			if err := tabular.WriteFile(edgesPath, trips); err != nil {
				return err
			}
			path := e.output(c, "out", shuttlePersonsFile)
			if err := routes.ShuttlePersons(trips).WriteFile(path); err != nil {
				return err
			}
			e.metrics.RowsWrittenAdd(shuttlePersonsFile, len(trips))
			log.Info().Int("persons", len(trips)).Str("file", path).Msg("shuttle person file written")
			return nil
		},
	}
}
