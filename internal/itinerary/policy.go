package itinerary

// ScorePolicy turns a feasible option into the scalar used for ranking.
// Lower is better.
type ScorePolicy struct {
	TimeWeight       float64 `yaml:"time_weight" validate:"gte=0"`
	FirstWalkWeight  float64 `yaml:"first_walk_weight" validate:"gte=0"`  // per meter walked to the boarding stop
	SecondWalkWeight float64 `yaml:"second_walk_weight" validate:"gte=0"` // per meter walked from the exit stop
	StopCountWeight  float64 `yaml:"stop_count_weight" validate:"gte=0"`  // per stop ridden
}

// DefaultPolicy ranks by total elapsed time with half a second of penalty per
// meter of access walk.
func DefaultPolicy() ScorePolicy {
	return ScorePolicy{TimeWeight: 1, FirstWalkWeight: 0.5}
}

func (p ScorePolicy) Score(o Option) float64 {
	return p.TimeWeight*o.TotalTime +
		p.FirstWalkWeight*o.WalkToStopDist +
		p.SecondWalkWeight*o.WalkFromStopDist +
		p.StopCountWeight*float64(o.StopsRidden)
}
