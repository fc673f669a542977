// Package report derives statistics and human-readable summaries from a
// converged layout: area and density, how many components reached their
// wiring-optimal position, and how components distribute around the
// chip.
package report

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/schemalab/circuitlay/pkg/layout"
)

// OptimalThreshold is the displacement below which a component is
// considered to have kept its wiring-optimal position.
const OptimalThreshold = 0.5

// Distance band edges for the by-distance distribution.
const (
	nearDistance   = 3.0
	mediumDistance = 6.0
)

// Area describes the overall layout extent.
type Area struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Total  float64 `json:"total_area"`
}

// Distribution buckets components by side of the chip, by distance from
// the chip center, and by type.
type Distribution struct {
	BySide     map[string]int `json:"by_side"`
	ByDistance map[string]int `json:"by_distance"`
	ByType     map[string]int `json:"by_type"`
}

// Displacement summarizes how far convergence moved components from
// their placement targets.
type Displacement struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Max    float64 `json:"max"`
}

// Stats is the complete statistics block for one layout.
type Stats struct {
	TotalComponents int     `json:"total_components"`
	Status          string  `json:"status"`
	Attempts        int     `json:"attempts"`
	Unresolved      int     `json:"unresolved"`
	LayoutArea      Area    `json:"layout_area"`
	DensityPercent  float64 `json:"layout_density_percentage"`
	OptimalPercent  float64 `json:"optimal_position_rate_percentage"`

	Distribution Distribution `json:"component_distribution"`
	Displacement Displacement `json:"displacement"`
}

// Compute derives statistics from a convergence result.
func Compute(res *layout.Result) *Stats {
	l := res.Layout
	bounds := l.Bounds()

	s := &Stats{
		TotalComponents: len(l.Items),
		Status:          string(res.Status),
		Attempts:        res.Attempts,
		LayoutArea: Area{
			Width:  round2(bounds.Width()),
			Height: round2(bounds.Height()),
			Total:  round2(bounds.Area()),
		},
		Distribution: Distribution{
			BySide:     map[string]int{"left": 0, "right": 0, "top": 0, "bottom": 0},
			ByDistance: map[string]int{"near": 0, "medium": 0, "far": 0},
			ByType:     map[string]int{},
		},
	}

	componentArea := lo.SumBy(l.Items, func(it *layout.Item) float64 {
		return it.BBox.Area()
	})
	if bounds.Area() > 0 {
		s.DensityPercent = round2(componentArea / bounds.Area() * 100)
	}

	optimal := 0
	displacements := make([]float64, 0, len(l.Items))
	for _, it := range l.Items {
		if !it.Resolved {
			s.Unresolved++
		}

		d := it.Displacement()
		displacements = append(displacements, d)
		if d < OptimalThreshold {
			optimal++
		}

		// The chip center is the origin, so signs of the position give
		// the side directly.
		if it.Pos.X < 0 {
			s.Distribution.BySide["left"]++
		} else {
			s.Distribution.BySide["right"]++
		}
		if it.Pos.Y > 0 {
			s.Distribution.BySide["top"]++
		} else {
			s.Distribution.BySide["bottom"]++
		}

		dist := math.Hypot(it.Pos.X, it.Pos.Y)
		switch {
		case dist < nearDistance:
			s.Distribution.ByDistance["near"]++
		case dist < mediumDistance:
			s.Distribution.ByDistance["medium"]++
		default:
			s.Distribution.ByDistance["far"]++
		}

		s.Distribution.ByType[string(it.Comp.Type)]++
	}

	if len(l.Items) > 0 {
		s.OptimalPercent = round2(float64(optimal) / float64(len(l.Items)) * 100)
		s.Displacement = Displacement{
			Mean:   round2(stat.Mean(displacements, nil)),
			Max:    round2(lo.Max(displacements)),
		}
		if len(displacements) > 1 {
			s.Displacement.StdDev = round2(stat.StdDev(displacements, nil))
		}
	}

	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
