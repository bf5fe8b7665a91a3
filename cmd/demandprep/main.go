package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if os.Getenv("DEMAND_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if os.Getenv("DEMAND_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "demandprep",
		Usage:       "prepare travel demand for bus and shuttle simulations",
		Description: "Splits block demand between attractions, generates person plans, assigns bus itineraries and writes simulator person files and KPI tables.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "scenario",
				Usage:   "scenario YAML file",
				EnvVars: []string{"SCENARIO_FILE"},
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "directory for generated files (overrides the scenario)",
			},
		},
		Commands: []*cli.Command{
			splitCommand(),
			plansCommand(),
			assignCommand(),
			personsCommand(),
			shuttleCommand(),
			kpiCommand(),
			rankCommand(),
		},
	}
}
