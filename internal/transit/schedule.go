package transit

// Schedule is a trip with its stop lookups precomputed. Trips are immutable,
// so a schedule is built once at load time and shared by every query.
type Schedule struct {
	Trip  Trip
	first map[string]int // stop id -> index of its first visit
}

// NewSchedule indexes the visits of t.
func NewSchedule(t Trip) *Schedule {
	s := &Schedule{Trip: t, first: make(map[string]int, len(t.Visits))}
	for i, v := range t.Visits {
		if _, seen := s.first[v.StopID]; !seen {
			s.first[v.StopID] = i
		}
	}
	return s
}

// BuildSchedules indexes every trip, keeping input order.
func BuildSchedules(trips []Trip) []*Schedule {
	out := make([]*Schedule, len(trips))
	for i, t := range trips {
		out[i] = NewSchedule(t)
	}
	return out
}

// FirstVisit returns the index of the first call at stopID.
func (s *Schedule) FirstVisit(stopID string) (int, bool) {
	i, ok := s.first[stopID]
	return i, ok
}

// VisitAfter returns the index of the first call at stopID strictly after
// position after. Loop routes can call at a stop more than once.
func (s *Schedule) VisitAfter(stopID string, after int) (int, bool) {
	i, ok := s.first[stopID]
	if !ok {
		return 0, false
	}
	if i > after {
		return i, true
	}
	for j := after + 1; j < len(s.Trip.Visits); j++ {
		if s.Trip.Visits[j].StopID == stopID {
			return j, true
		}
	}
	return 0, false
}

// Serves reports whether the trip calls at stopID at all.
func (s *Schedule) Serves(stopID string) bool {
	_, ok := s.first[stopID]
	return ok
}
