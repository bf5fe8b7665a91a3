package demand

import (
	"math"
	"sort"
)

// Allocate distributes round(total) across bins in proportion to weights
// using the largest remainder method: floor every share, then hand the
// leftover units to the bins with the largest fractional parts (earlier bin
// first on ties). The result always sums to the rounded total unless total or
// the weight sum is zero, in which case every bin gets zero.
func Allocate(total float64, weights []float64) []int {
	out := make([]int, len(weights))
	target := int(math.RoundToEven(total))
	if target <= 0 || len(weights) == 0 {
		return out
	}
	w := make([]float64, len(weights))
	sum := 0.0
	for i, v := range weights {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			v = 0
		}
		w[i] = v
		sum += v
	}
	if sum == 0 {
		return out
	}

	fracs := make([]float64, len(w))
	assigned := 0
	for i, v := range w {
		scaled := v / sum * float64(target)
		out[i] = int(math.Floor(scaled))
		fracs[i] = scaled - float64(out[i])
		assigned += out[i]
	}

	remainder := target - assigned
	if remainder > 0 {
		order := make([]int, len(w))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return fracs[order[a]] > fracs[order[b]] })
		for _, i := range order[:remainder] {
			out[i]++
		}
	}
	return out
}

// Shares are the fractions of demand attracted by the local and the district
// centre, derived from their floor areas.
type Shares struct {
	Local    float64
	District float64
}

func SharesFromAreas(localArea, districtArea float64) Shares {
	total := localArea + districtArea
	if total <= 0 {
		return Shares{}
	}
	return Shares{Local: localArea / total, District: districtArea / total}
}

// Split divides every block of m between the two attractions. Each block's
// total is rounded, the local part is rounded from its share and the district
// takes the rest; both parts are then spread over the hourly profile.
func Split(m *Matrix, s Shares) (local, district *Matrix) {
	local = &Matrix{Header: m.Header}
	district = &Matrix{Header: m.Header}
	for _, row := range m.Rows {
		n := 0
		if !math.IsNaN(row.Total) {
			n = int(math.RoundToEven(row.Total))
		}
		nLocal := int(math.RoundToEven(float64(n) * s.Local))
		nDistrict := n - nLocal

		local.Rows = append(local.Rows, MatrixRow{
			Name:  row.Name,
			Total: float64(nLocal),
			Hours: toFloats(Allocate(float64(nLocal), row.Hours)),
		})
		district.Rows = append(district.Rows, MatrixRow{
			Name:  row.Name,
			Total: float64(nDistrict),
			Hours: toFloats(Allocate(float64(nDistrict), row.Hours)),
		})
	}
	return local, district
}

func toFloats(v []int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
