package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"transit-demand/internal/geom"
	"transit-demand/internal/itinerary"
	"transit-demand/internal/transit"
)

func rankCommand() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{Name: "from", Usage: "origin as x,y", Required: true},
		&cli.StringFlag{Name: "to", Usage: "destination as x,y", Required: true},
		&cli.StringFlag{Name: "depart", Usage: "departure time in seconds or H:MM:SS", Value: "0"},
		&cli.IntFlag{Name: "top", Usage: "options to print (0 = all)", Value: 5},
	}, rankingFlags...)

	return &cli.Command{
		Name:  "rank",
		Usage: "rank the itineraries of a single trip and print the best ones",
		Flags: flags,
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			defer e.Close()

			from, err := parsePoint(c.String("from"))
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			to, err := parsePoint(c.String("to"))
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			depart, err := transit.ParseTime(c.String("depart"))
			if err != nil {
				return fmt.Errorf("--depart: %w", err)
			}

			r, err := e.loadRanker(c)
			if err != nil {
				return err
			}
			options := r.Rank(itinerary.Query{Origin: from, Destination: to, Depart: depart, MaxWalk: e.maxWalk})
			if n := c.Int("top"); n > 0 && len(options) > n {
				options = options[:n]
			}
			return printOptions(c, options)
		},
	}
}

func parsePoint(s string) (geom.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geom.Point{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geom.Point{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Point{X: x, Y: y}, nil
}

func printOptions(c *cli.Context, options []itinerary.Option) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tTRIP\tLINE\tBOARD\tEXIT\tSTOPS\tWALK1 m\tWAIT s\tRIDE s\tWALK2 m\tTOTAL s\tSCORE")
	for i, o := range options {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%.1f\t%.0f\t%.0f\t%.1f\t%.1f\t%.1f\n",
			i+1, o.TripID, o.Line, o.BoardStop, o.ExitStop, o.StopsRidden,
			o.WalkToStopDist, o.WaitTime, o.RideTime, o.WalkFromStopDist, o.TotalTime, o.Score)
	}
	if len(options) == 0 {
		fmt.Fprintln(w, "-\tno feasible itinerary")
	}
	return w.Flush()
}
