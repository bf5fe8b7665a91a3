package network

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"transit-demand/internal/geom"
	"transit-demand/internal/simxml"
)

var ErrBadShape = errors.New("malformed lane shape")

type Lane struct {
	ID     string
	Index  int
	Length float64
	Shape  []geom.Point
}

// PositionAt projects a longitudinal offset onto the lane geometry.
func (l *Lane) PositionAt(offset float64) geom.Point {
	return geom.PositionAtShapeOffset(l.Shape, offset)
}

// ShapeLength returns the declared lane length, or the geometric length when
// the network file does not carry one.
func (l *Lane) ShapeLength() float64 {
	if l.Length > 0 {
		return l.Length
	}
	return geom.Length(l.Shape)
}

type Edge struct {
	ID       string
	Function string
	Lanes    []*Lane // ordered by index
}

// Internal reports whether the edge is a junction-internal connector.
func (e *Edge) Internal() bool {
	return e.Function == "internal" || strings.HasPrefix(e.ID, ":")
}

// Lane returns the lane with the given index.
func (e *Edge) Lane(index int) (*Lane, bool) {
	if index < 0 || index >= len(e.Lanes) {
		return nil, false
	}
	return e.Lanes[index], true
}

// Network is a read-only road network: edges in file order plus an id index.
type Network struct {
	Edges []*Edge
	byID  map[string]*Edge
}

func (n *Network) Edge(id string) (*Edge, bool) {
	e, ok := n.byID[id]
	return e, ok
}

type xmlLane struct {
	ID     string  `xml:"id,attr"`
	Index  int     `xml:"index,attr"`
	Length float64 `xml:"length,attr"`
	Shape  string  `xml:"shape,attr"`
}

type xmlEdge struct {
	ID       string    `xml:"id,attr"`
	Function string    `xml:"function,attr"`
	Lanes    []xmlLane `xml:"lane"`
}

// Parse reads a network file. Only edges and their lanes are kept.
func Parse(r io.Reader) (*Network, error) {
	var raw []xmlEdge
	if err := simxml.Walk(r, map[string]simxml.ElementFunc{"edge": simxml.Collect(&raw)}); err != nil {
		return nil, err
	}
	return build(raw)
}

// Load reads the network file at path.
func Load(path string) (*Network, error) {
	var raw []xmlEdge
	if err := simxml.WalkFile(path, map[string]simxml.ElementFunc{"edge": simxml.Collect(&raw)}); err != nil {
		return nil, err
	}
	return build(raw)
}

func build(raw []xmlEdge) (*Network, error) {
	n := &Network{byID: make(map[string]*Edge, len(raw))}
	for _, re := range raw {
		e := &Edge{ID: re.ID, Function: re.Function}
		for _, rl := range re.Lanes {
			shape, err := ParseShape(rl.Shape)
			if err != nil {
				return nil, fmt.Errorf("lane %s: %w", rl.ID, err)
			}
			e.Lanes = append(e.Lanes, &Lane{ID: rl.ID, Index: rl.Index, Length: rl.Length, Shape: shape})
		}
		sort.SliceStable(e.Lanes, func(i, j int) bool { return e.Lanes[i].Index < e.Lanes[j].Index })
		n.Edges = append(n.Edges, e)
		n.byID[e.ID] = e
	}
	return n, nil
}

// ParseShape parses a "x,y x,y ..." coordinate list. Extra components such as
// elevation are ignored.
func ParseShape(s string) ([]geom.Point, error) {
	fields := strings.Fields(s)
	pts := make([]geom.Point, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: %q", ErrBadShape, f)
		}
		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadShape, f)
		}
		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadShape, f)
		}
		pts = append(pts, geom.Point{X: x, Y: y})
	}
	return pts, nil
}

// SplitLaneID splits a lane reference "<edge>_<index>" on its last underscore.
func SplitLaneID(laneID string) (edgeID string, index int, err error) {
	i := strings.LastIndex(laneID, "_")
	if i <= 0 || i == len(laneID)-1 {
		return "", 0, fmt.Errorf("lane reference %q has no index suffix", laneID)
	}
	index, err = strconv.Atoi(laneID[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("lane reference %q: bad index: %w", laneID, err)
	}
	return laneID[:i], index, nil
}

// New builds a network from already-constructed edges. Used by callers that
// assemble geometry in code.
func New(edges ...*Edge) *Network {
	n := &Network{byID: make(map[string]*Edge, len(edges))}
	for _, e := range edges {
		n.Edges = append(n.Edges, e)
		n.byID[e.ID] = e
	}
	return n
}
