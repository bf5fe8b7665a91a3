package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"transit-demand/internal/demand"
	"transit-demand/internal/tabular"
)

const (
	localMatrixFile    = "trips_local_center.csv"
	districtMatrixFile = "trips_district_center.csv"
	plansFile          = "person_plans.csv"
	odFile             = "od.csv"
)

func splitCommand() *cli.Command {
	return &cli.Command{
		Name:  "split",
		Usage: "split block demand between the local and the district centre",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "matrix", Usage: "hourly demand per block (CSV)"},
			&cli.StringFlag{Name: "local-out", Usage: "local centre matrix output"},
			&cli.StringFlag{Name: "district-out", Usage: "district centre matrix output"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			path, err := e.path(c, "matrix", e.sc.Inputs.Matrix)
			if err != nil {
				return err
			}
			m, err := readMatrix(path)
			if err != nil {
				return err
			}
			shares := demand.SharesFromAreas(e.sc.Demand.LocalArea, e.sc.Demand.DistrictArea)
			local, district := demand.Split(m, shares)

			for _, out := range []struct {
				path string
				m    *demand.Matrix
			}{
				{e.output(c, "local-out", localMatrixFile), local},
				{e.output(c, "district-out", districtMatrixFile), district},
			} {
				if err := writeMatrix(out.path, out.m); err != nil {
					return err
				}
				e.metrics.RowsWrittenAdd(filepath.Base(out.path), len(out.m.Rows))
			}
			log.Info().
				Int("blocks", len(m.Rows)).
				Float64("local_share", shares.Local).
				Float64("district_share", shares.District).
				Msg("demand split")
			return nil
		},
	}
}

func plansCommand() *cli.Command {
	return &cli.Command{
		Name:  "plans",
		Usage: "generate individual person plans from the split matrices",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "local", Usage: "local centre matrix"},
			&cli.StringFlag{Name: "district", Usage: "district centre matrix"},
			&cli.StringFlag{Name: "houses", Usage: "house locations per block (CSV)"},
			&cli.StringFlag{Name: "attractions", Usage: "attraction coordinates (CSV)"},
			&cli.StringFlag{Name: "out", Usage: "person plans output"},
			&cli.StringFlag{Name: "od-out", Usage: "origin/destination table output"},
			&cli.Uint64Flag{Name: "seed", Usage: "random seed (defaults to RANDOM_SEED)"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			housesPath, err := e.path(c, "houses", e.sc.Inputs.Houses)
			if err != nil {
				return err
			}
			attractionsPath, err := e.path(c, "attractions", e.sc.Inputs.Attractions)
			if err != nil {
				return err
			}
			houses, err := tabular.ReadFile[demand.House](housesPath)
			if err != nil {
				return err
			}
			attractions, err := tabular.ReadFile[demand.Attraction](attractionsPath)
			if err != nil {
				return err
			}

			d := e.sc.Demand
			var targets []demand.Target
			for _, t := range []struct{ flag, file, name, key string }{
				{"local", localMatrixFile, d.LocalName, d.LocalKey},
				{"district", districtMatrixFile, d.DistrictName, d.DistrictKey},
			} {
				m, err := readMatrix(e.output(c, t.flag, t.file))
				if err != nil {
					return err
				}
				targets = append(targets, demand.Target{Name: t.name, Key: t.key, Matrix: m})
			}

			seed := e.cfg.Seed
			if c.IsSet("seed") {
				seed = c.Uint64("seed")
			}
			plans, err := demand.GeneratePlans(targets, houses, attractions, demand.PlanOptions{
				StartHour:        d.StartHour,
				ActivityDuration: d.ActivityDuration,
				Rand:             rand.New(rand.NewPCG(seed, seed)),
			})
			if err != nil {
				return err
			}

			plansPath := e.output(c, "out", plansFile)
			if err := tabular.WriteFile(plansPath, plans); err != nil {
				return err
			}
			odPath := e.output(c, "od-out", odFile)
			if err := tabular.WriteFile(odPath, demand.ODTable(plans)); err != nil {
				return err
			}
			e.metrics.RowsWrittenAdd(plansFile, len(plans))
			log.Info().Int("persons", len(plans)).Uint64("seed", seed).Str("plans", plansPath).Str("od", odPath).Msg("plans generated")
			return nil
		},
	}
}

func readMatrix(path string) (*demand.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := demand.ReadMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func writeMatrix(path string, m *demand.Matrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := demand.WriteMatrix(f, m); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func readPlans(path string) ([]demand.PersonPlan, error) {
	plans, err := tabular.ReadFile[demand.PersonPlan](path)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%s: no plans", path)
	}
	return plans, nil
}
