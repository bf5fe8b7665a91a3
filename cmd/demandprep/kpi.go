package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"transit-demand/internal/demand"
	"transit-demand/internal/kpi"
	"transit-demand/internal/network"
	"transit-demand/internal/routes"
	"transit-demand/internal/tabular"
)

const kpiFile = "consolidated_kpis.csv"

func kpiCommand() *cli.Command {
	return &cli.Command{
		Name:  "kpi",
		Usage: "condense assignment tables and simulator outputs into one KPI table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "outbound", Usage: "outbound assignment table"},
			&cli.StringFlag{Name: "return", Usage: "return assignment table"},
			&cli.StringFlag{Name: "tripinfo", Usage: "simulator tripinfo output"},
			&cli.StringFlag{Name: "statistics", Usage: "simulator statistics output"},
			&cli.StringFlag{Name: "fleet", Usage: "vehicle id fragment of the on-demand fleet"},
			&cli.StringFlag{Name: "shuttle-persons", Usage: "shuttle person route file for walking metrics"},
			&cli.StringFlag{Name: "network", Usage: "simulator network, needed for walking metrics"},
			&cli.StringFlag{Name: "od", Usage: "origin/destination table"},
			&cli.StringFlag{Name: "out", Usage: "KPI table output"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			report := &kpi.Report{}

			outPath, retPath := e.output(c, "outbound", outboundFile), e.output(c, "return", returnFile)
			if exists(outPath) && exists(retPath) {
				outbound, inbound, err := readAssignments(c, e)
				if err != nil {
					return err
				}
				report.Add(kpi.DemandKPIs(outbound, inbound))
			} else {
				log.Warn().Str("outbound", outPath).Str("return", retPath).Msg("assignment tables not found, skipping accessibility KPIs")
			}

			if path := firstNonEmpty(c.String("tripinfo"), e.sc.Inputs.TripInfo); path != "" {
				out, err := kpi.LoadTripOutput(path)
				if err != nil {
					return err
				}
				report.Add(kpi.PerformanceKPIs(out.Trips))

				fleet := firstNonEmpty(c.String("fleet"), e.sc.Fleet)
				od := kpi.OnDemandKPIs(out.Persons, fleet)
				if stats := firstNonEmpty(c.String("statistics"), e.sc.Inputs.Statistics); stats != "" && exists(stats) {
					if v, ok, err := kpi.LoadRideWaiting(stats); err != nil {
						return err
					} else if ok {
						od.SystemDelaySec = v
					}
				}
				if od.Rides > 0 {
					report.Add(od)
				}
			}

			if persons := c.String("shuttle-persons"); persons != "" {
				w, err := walkingKPIs(c, e, persons)
				if err != nil {
					return err
				}
				report.Add(w)
			}

			path := e.output(c, "out", kpiFile)
			if err := report.WriteFile(path); err != nil {
				return err
			}
			for _, r := range report.Rows {
				log.Info().Str("category", r.Category).Float64("value", r.Value).Msg(r.Name)
			}
			log.Info().Int("rows", len(report.Rows)).Str("file", path).Msg("KPI table written")
			return nil
		},
	}
}

func walkingKPIs(c *cli.Context, e *env, personsPath string) (kpi.Walking, error) {
	netPath, err := e.path(c, "network", e.sc.Inputs.Network)
	if err != nil {
		return kpi.Walking{}, err
	}
	net, err := network.Load(netPath)
	if err != nil {
		return kpi.Walking{}, err
	}
	persons, err := routes.LoadPersons(personsPath)
	if err != nil {
		return kpi.Walking{}, err
	}
	ods, err := tabular.ReadFile[demand.OD](e.output(c, "od", odFile))
	if err != nil {
		return kpi.Walking{}, err
	}
	return kpi.WalkingKPIs(persons, ods, net.Segments(), e.walkSpeed), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
