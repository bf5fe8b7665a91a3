package transit

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"transit-demand/internal/simxml"
)

var ErrMalformedSchedule = errors.New("malformed schedule value")

// VisitError describes a stop visit that was dropped while loading trips.
type VisitError struct {
	TripID string
	Index  int
	StopID string
	Err    error
}

func (e *VisitError) Error() string {
	return fmt.Sprintf("trip %s visit %d (stop %s): %v", e.TripID, e.Index, e.StopID, e.Err)
}

func (e *VisitError) Unwrap() error { return e.Err }

type xmlBusStop struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name,attr"`
	Lane     string `xml:"lane,attr"`
	StartPos string `xml:"startPos,attr"`
	EndPos   string `xml:"endPos,attr"`
}

type xmlStop struct {
	BusStop  string `xml:"busStop,attr"`
	Until    string `xml:"until,attr"`
	Duration string `xml:"duration,attr"`
}

type xmlTrip struct {
	ID     string    `xml:"id,attr"`
	Type   string    `xml:"type,attr"`
	Line   string    `xml:"line,attr"`
	Depart string    `xml:"depart,attr"`
	Stops  []xmlStop `xml:"stop"`
}

// ParseStops reads busStop records from an additional file.
func ParseStops(r io.Reader) ([]Stop, error) {
	var raw []xmlBusStop
	if err := simxml.Walk(r, map[string]simxml.ElementFunc{"busStop": simxml.Collect(&raw)}); err != nil {
		return nil, err
	}
	return convertStops(raw)
}

func LoadStops(path string) ([]Stop, error) {
	var raw []xmlBusStop
	if err := simxml.WalkFile(path, map[string]simxml.ElementFunc{"busStop": simxml.Collect(&raw)}); err != nil {
		return nil, err
	}
	return convertStops(raw)
}

func convertStops(raw []xmlBusStop) ([]Stop, error) {
	stops := make([]Stop, 0, len(raw))
	for _, r := range raw {
		start, err := parseOptionalFloat(r.StartPos)
		if err != nil {
			return nil, fmt.Errorf("stop %s startPos: %w", r.ID, err)
		}
		end, err := parseOptionalFloat(r.EndPos)
		if err != nil {
			return nil, fmt.Errorf("stop %s endPos: %w", r.ID, err)
		}
		stops = append(stops, Stop{
			ID:       r.ID,
			Name:     r.Name,
			LaneID:   r.Lane,
			StartPos: start,
			EndPos:   end,
			OpenEnd:  strings.TrimSpace(r.EndPos) == "",
		})
	}
	return stops, nil
}

// ParseTrips reads trip and vehicle records with their stop children. Visits
// whose schedule fields cannot be parsed are dropped from the trip and
// returned as VisitErrors; the rest of the trip is kept.
func ParseTrips(r io.Reader) ([]Trip, []*VisitError, error) {
	var raw []xmlTrip
	h := simxml.Collect(&raw)
	if err := simxml.Walk(r, map[string]simxml.ElementFunc{"trip": h, "vehicle": h}); err != nil {
		return nil, nil, err
	}
	trips, rejected := convertTrips(raw)
	return trips, rejected, nil
}

func LoadTrips(path string) ([]Trip, []*VisitError, error) {
	var raw []xmlTrip
	h := simxml.Collect(&raw)
	if err := simxml.WalkFile(path, map[string]simxml.ElementFunc{"trip": h, "vehicle": h}); err != nil {
		return nil, nil, err
	}
	trips, rejected := convertTrips(raw)
	return trips, rejected, nil
}

func convertTrips(raw []xmlTrip) ([]Trip, []*VisitError) {
	var rejected []*VisitError
	trips := make([]Trip, 0, len(raw))
	for _, rt := range raw {
		t := Trip{ID: rt.ID, Line: rt.Type}
		if t.Line == "" {
			t.Line = rt.Line
		}
		if dep, err := ParseTime(rt.Depart); err == nil {
			t.Depart = dep
		}
		for i, rs := range rt.Stops {
			v, err := convertVisit(rs)
			if err != nil {
				ve := &VisitError{TripID: rt.ID, Index: i, StopID: rs.BusStop, Err: err}
				log.Warn().Str("trip", rt.ID).Str("stop", rs.BusStop).Err(err).Msg("rejected stop visit")
				rejected = append(rejected, ve)
				continue
			}
			t.Visits = append(t.Visits, v)
		}
		trips = append(trips, t)
	}
	return trips, rejected
}

func convertVisit(rs xmlStop) (Visit, error) {
	if rs.BusStop == "" {
		return Visit{}, errors.New("stop has no busStop reference")
	}
	until, err := ParseTime(rs.Until)
	if err != nil {
		return Visit{}, fmt.Errorf("until: %w", err)
	}
	dur := 0.0
	if strings.TrimSpace(rs.Duration) != "" {
		dur, err = ParseTime(rs.Duration)
		if err != nil {
			return Visit{}, fmt.Errorf("duration: %w", err)
		}
	}
	return Visit{StopID: rs.BusStop, Until: until, Duration: dur}, nil
}

// ParseTime parses a simulation time given either as seconds ("3660",
// "3660.5") or as clock notation "HH:MM:SS" / "D:HH:MM:SS". Hours may exceed 24.
func ParseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrMalformedSchedule)
	}
	if !strings.Contains(s, ":") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrMalformedSchedule, s)
		}
		return v, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 && len(parts) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedSchedule, s)
	}
	units := []float64{86400, 3600, 60, 1}[4-len(parts):]
	total := 0.0
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %q", ErrMalformedSchedule, s)
		}
		total += v * units[i]
	}
	return total, nil
}

func parseOptionalFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
