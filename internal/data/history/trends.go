package history

import (
	"fmt"
	"math"
	"sort"
	"time"
)

type TrendPoint struct {
	StartedAt  time.Time `json:"started_at"`
	RunID      string    `json:"run_id"`
	Targets    int       `json:"targets"`
	Errors     int       `json:"errors"`
	Hints      int       `json:"hints"`
	DeltaErrs  int       `json:"delta_errors"`
	DeltaHints int       `json:"delta_hints"`
	AvgErrors  float64   `json:"avg_errors"`
}

type TrendReport struct {
	Document string       `json:"document"`
	Since    time.Time    `json:"since"`
	Until    time.Time    `json:"until"`
	Window   string       `json:"window"`
	RunCount int          `json:"run_count"`
	Points   []TrendPoint `json:"points"`
}

// BuildTrendReport orders runs oldest first and attaches per-run deltas plus a
// moving average of errors over window.
func BuildTrendReport(document string, runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded for %q", document)
	}

	ordered := append([]Run(nil), runs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartedAt.Before(ordered[j].StartedAt)
	})

	points := make([]TrendPoint, 0, len(ordered))
	for i, current := range ordered {
		point := TrendPoint{
			StartedAt: current.StartedAt,
			RunID:     current.ID,
			Targets:   current.Targets,
			Errors:    current.Errors,
			Hints:     current.Hints,
		}
		if i > 0 {
			prev := ordered[i-1]
			point.DeltaErrs = current.Errors - prev.Errors
			point.DeltaHints = current.Hints - prev.Hints
		}
		point.AvgErrors = round2(movingErrors(ordered, i, window))
		points = append(points, point)
	}

	return TrendReport{
		Document: document,
		Since:    ordered[0].StartedAt,
		Until:    ordered[len(ordered)-1].StartedAt,
		Window:   window.String(),
		RunCount: len(points),
		Points:   points,
	}, nil
}

func movingErrors(runs []Run, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(runs[index].Errors)
	}
	cutoff := runs[index].StartedAt.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if runs[i].StartedAt.Before(cutoff) {
			break
		}
		total += runs[i].Errors
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
