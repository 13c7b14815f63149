package game

import (
	"math"
	"sort"
)

// Samples collects float samples, such as the per tick distance between a predicted and an authoritative
// location, and summarises them.
type Samples struct {
	data []float64
}

// Add records a sample.
func (s *Samples) Add(v float64) {
	s.data = append(s.data, v)
}

// Len returns the number of samples.
func (s *Samples) Len() int {
	return len(s.data)
}

// Sum ...
func (s *Samples) Sum() (result float64) {
	for _, v := range s.data {
		result += v
	}
	return result
}

// Mean ...
func (s *Samples) Mean() float64 {
	if len(s.data) == 0 {
		return 0
	}
	return s.Sum() / float64(len(s.data))
}

// Max returns the largest sample, or zero if there are none.
func (s *Samples) Max() float64 {
	var m float64
	for i, v := range s.data {
		if i == 0 || v > m {
			m = v
		}
	}
	return m
}

// Percentile returns the sample below which p percent of the samples fall.
func (s *Samples) Percentile(p float64) float64 {
	if len(s.data) == 0 {
		return 0
	}
	sorted := append([]float64(nil), s.data...)
	sort.Float64s(sorted)
	i := int(math.Ceil(Clamp(p, 0, 100)/100*float64(len(sorted)))) - 1
	return sorted[max(i, 0)]
}

// StandardDeviation ...
func (s *Samples) StandardDeviation() float64 {
	if len(s.data) == 0 {
		return 0
	}
	mean := s.Mean()
	var variance float64
	for _, v := range s.data {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(s.data)))
}
