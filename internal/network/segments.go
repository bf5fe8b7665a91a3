package network

import (
	"sort"

	"transit-demand/internal/geom"
)

// DefaultCandidates is how many nearby segments NearestDirectional weighs by heading.
const DefaultCandidates = 5

// Segment summarises a drivable edge for point matching: the middle vertex of
// its first lane and the heading from the lane's first to last vertex.
type Segment struct {
	EdgeID  string
	Mid     geom.Point
	Heading float64
}

type SegmentIndex struct {
	segments []Segment
}

// Segments builds the index over all non-internal edges that carry a lane shape.
func (n *Network) Segments() *SegmentIndex {
	idx := &SegmentIndex{}
	for _, e := range n.Edges {
		if e.ID == "" || e.Internal() || len(e.Lanes) == 0 {
			continue
		}
		shape := e.Lanes[0].Shape
		if len(shape) == 0 {
			continue
		}
		idx.segments = append(idx.segments, Segment{
			EdgeID:  e.ID,
			Mid:     shape[len(shape)/2],
			Heading: geom.Heading(shape[0], shape[len(shape)-1]),
		})
	}
	return idx
}

func (s *SegmentIndex) Len() int { return len(s.segments) }

// Lookup returns the segment of the given edge.
func (s *SegmentIndex) Lookup(edgeID string) (Segment, bool) {
	for _, seg := range s.segments {
		if seg.EdgeID == edgeID {
			return seg, true
		}
	}
	return Segment{}, false
}

// Nearest returns the segment whose midpoint is closest to p. Ties keep the
// earlier segment.
func (s *SegmentIndex) Nearest(p geom.Point) (Segment, bool) {
	if len(s.segments) == 0 {
		return Segment{}, false
	}
	best := 0
	bestD := geom.Distance(p, s.segments[0].Mid)
	for i := 1; i < len(s.segments); i++ {
		if d := geom.Distance(p, s.segments[i].Mid); d < bestD {
			best, bestD = i, d
		}
	}
	return s.segments[best], true
}

// NearestDirectional picks, among the k segments closest to origin, the one
// whose heading is best aligned with the direction origin -> toward.
func (s *SegmentIndex) NearestDirectional(origin, toward geom.Point, k int) (Segment, bool) {
	if len(s.segments) == 0 {
		return Segment{}, false
	}
	if k <= 0 {
		k = DefaultCandidates
	}
	order := make([]int, len(s.segments))
	dist := make([]float64, len(s.segments))
	for i, seg := range s.segments {
		order[i] = i
		dist[i] = geom.Distance(origin, seg.Mid)
	}
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })
	if k > len(order) {
		k = len(order)
	}
	want := geom.Heading(origin, toward)
	best := order[0]
	bestDiff := geom.AngleDiff(s.segments[best].Heading, want)
	for _, i := range order[1:k] {
		if d := geom.AngleDiff(s.segments[i].Heading, want); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return s.segments[best], true
}

// NearestCache memoises Nearest by query point; destinations repeat heavily
// in generated demand.
type NearestCache struct {
	idx   *SegmentIndex
	cache map[geom.Point]Segment
}

func NewNearestCache(idx *SegmentIndex) *NearestCache {
	return &NearestCache{idx: idx, cache: make(map[geom.Point]Segment)}
}

func (c *NearestCache) Nearest(p geom.Point) (Segment, bool) {
	if seg, ok := c.cache[p]; ok {
		return seg, true
	}
	seg, ok := c.idx.Nearest(p)
	if ok {
		c.cache[p] = seg
	}
	return seg, ok
}
