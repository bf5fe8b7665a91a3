package kpi

import (
	"transit-demand/internal/tabular"
)

// Report accumulates KPI rows in the order sections are added.
type Report struct {
	Rows []Row
}

type section interface {
	Rows() []Row
}

func (r *Report) Add(s section) *Report {
	r.Rows = append(r.Rows, s.Rows()...)
	return r
}

func (r *Report) WriteFile(path string) error {
	return tabular.WriteFile(path, r.Rows)
}
