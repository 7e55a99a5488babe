package grader

import (
	"math"
	"sort"
)

// Distribution holds summary statistics over a set of scores.
type Distribution struct {
	Mean   float64
	Median float64
	Std    float64
	Min    float64
	Max    float64
}

// Stats summarises all learners' best scores for one homework.
type Stats struct {
	TotalLearners    int
	TotalSubmissions int
	Score            Distribution
	Percentage       Distribution
}

// Summarize derives best-score statistics across the given ledger entries.
// The second return value is false when there are no entries, so callers can
// report an explicit "no submissions yet" state instead of dividing by zero.
func Summarize(entries []LearnerGradeEntry, maxScore float64) (Stats, bool) {
	if len(entries) == 0 {
		return Stats{}, false
	}

	stats := Stats{TotalLearners: len(entries)}
	scores := make([]float64, 0, len(entries))
	for _, entry := range entries {
		scores = append(scores, entry.BestScore)
		stats.TotalSubmissions += len(entry.Submissions)
	}

	stats.Score = describe(scores)
	if maxScore > 0 {
		stats.Percentage = Distribution{
			Mean:   stats.Score.Mean / maxScore * 100,
			Median: stats.Score.Median / maxScore * 100,
			Std:    stats.Score.Std / maxScore * 100,
			Min:    stats.Score.Min / maxScore * 100,
			Max:    stats.Score.Max / maxScore * 100,
		}
	}

	return stats, true
}

func describe(scores []float64) Distribution {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	dist := Distribution{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: median(sorted),
	}

	var sum float64
	for _, score := range sorted {
		sum += score
	}
	dist.Mean = sum / float64(len(sorted))

	// Population standard deviation, matching the exported summaries this
	// replaces.
	var variance float64
	for _, score := range sorted {
		delta := score - dist.Mean
		variance += delta * delta
	}
	dist.Std = math.Sqrt(variance / float64(len(sorted)))

	return dist
}

func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
