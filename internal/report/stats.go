package report

import (
	"github.com/montanaflynn/stats"
)

// summary holds the central tendency of one series. Nil means the series was empty.
type summary struct {
	Mean   *float64
	Median *float64
	Mode   *float64
	Std    float64
}

func describe(values []float64) summary {
	var s summary
	if len(values) == 0 {
		return s
	}
	data := stats.Float64Data(values)
	if mean, err := data.Mean(); err == nil {
		s.Mean = &mean
	}
	if median, err := data.Median(); err == nil {
		s.Median = &median
	}
	mode := firstMode(values)
	s.Mode = &mode
	if len(values) > 1 {
		if std, err := data.StandardDeviationPopulation(); err == nil {
			s.Std = std
		}
	}
	return s
}

// firstMode returns the most frequent value, preferring the one seen first on a
// tie. All-distinct input yields the first element.
func firstMode(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	top := 0
	for _, v := range values {
		counts[v]++
		top = max(top, counts[v])
	}
	for _, v := range values {
		if counts[v] == top {
			return v
		}
	}
	return values[0]
}

func ints(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
