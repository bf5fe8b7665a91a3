package transit

import (
	"errors"
	"fmt"

	"transit-demand/internal/network"
)

var (
	ErrUnknownEdge = errors.New("unknown edge")
	ErrUnknownLane = errors.New("unknown lane")
)

// EdgeSource is the slice of the road network the resolver needs.
type EdgeSource interface {
	Edge(id string) (*network.Edge, bool)
}

// ResolveStops places every stop at the midpoint of its lane span. The result
// keeps the input order. Any stop whose lane or edge cannot be found fails the
// whole resolution; the returned error lists every such stop.
func ResolveStops(stops []Stop, net EdgeSource) ([]ResolvedStop, error) {
	out := make([]ResolvedStop, 0, len(stops))
	var errs []error
	for _, s := range stops {
		rs, err := resolveStop(s, net)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, rs)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func resolveStop(s Stop, net EdgeSource) (ResolvedStop, error) {
	edgeID, idx, err := network.SplitLaneID(s.LaneID)
	if err != nil {
		return ResolvedStop{}, fmt.Errorf("stop %s: %w: %v", s.ID, ErrUnknownLane, err)
	}
	edge, ok := net.Edge(edgeID)
	if !ok {
		return ResolvedStop{}, fmt.Errorf("stop %s: %w %q", s.ID, ErrUnknownEdge, edgeID)
	}
	lane, ok := edge.Lane(idx)
	if !ok {
		return ResolvedStop{}, fmt.Errorf("stop %s: %w %q (edge %s has %d lanes)", s.ID, ErrUnknownLane, s.LaneID, edgeID, len(edge.Lanes))
	}
	length := lane.ShapeLength()
	start := lanePos(s.StartPos, length)
	end := length
	if !s.OpenEnd {
		end = lanePos(s.EndPos, length)
	}
	return ResolvedStop{ID: s.ID, Point: lane.PositionAt((start + end) / 2)}, nil
}

// lanePos maps a lane position to an offset from the lane start; negative
// positions count back from the lane end.
func lanePos(pos, length float64) float64 {
	if pos < 0 {
		return length + pos
	}
	return pos
}
