package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ConfidenceLevel is the confidence, in percent, of a diversion interval.
type ConfidenceLevel int

const (
	Confidence90 ConfidenceLevel = 90
	Confidence95 ConfidenceLevel = 95
	Confidence99 ConfidenceLevel = 99

	DefaultConfidence = Confidence95
)

// ZValue returns the standard normal quantile of the level. Only 90, 95 and
// 99 are supported; any other level is a programming error and panics.
func (c ConfidenceLevel) ZValue() float64 {
	switch c {
	case Confidence90:
		return 1.645
	case Confidence95:
		return 1.96
	case Confidence99:
		return 2.576
	}
	panic(fmt.Sprintf("unsupported confidence level %d", int(c)))
}

// Valid reports whether the level is supported.
func (c ConfidenceLevel) Valid() bool {
	return c == Confidence90 || c == Confidence95 || c == Confidence99
}

// ParseConfidenceLevel validates a level read from configuration or a
// request. The empty string yields the default level.
func ParseConfidenceLevel(s string) (ConfidenceLevel, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return DefaultConfidence, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid confidence level %q", s)
	}
	c := ConfidenceLevel(n)
	if !c.Valid() {
		return 0, fmt.Errorf("unsupported confidence level %d (want 90, 95 or 99)", n)
	}
	return c, nil
}

// Estimate is a Wilson score interval, with finite population correction,
// for the rate at which an outcome occurs in a population of which only a
// sample has a known outcome.
type Estimate struct {
	Level      ConfidenceLevel `json:"confidence_level"`
	Observed   int             `json:"observed_count"`
	Sample     int             `json:"sample_size"`
	Population int             `json:"population_size"`

	// SampleRate is Sample/Population. Zero means there is no data and the
	// estimate must be shown as such rather than as 0%.
	SampleRate   float64 `json:"sample_rate"`
	ObservedRate float64 `json:"observed_rate"`
	AdjustedRate float64 `json:"adjusted_rate"`
	LowerBound   float64 `json:"lower_bound"`
	UpperBound   float64 `json:"upper_bound"`

	EstimatedCount  int `json:"estimated_count"`
	LowerBoundCount int `json:"lower_bound_count"`
	UpperBoundCount int `json:"upper_bound_count"`
}

// HasData reports whether any outcome was observed.
func (e Estimate) HasData() bool {
	return e.SampleRate > 0
}

// NewEstimate computes the interval for observed occurrences in a sample
// drawn from population. Inputs are clamped so 0 <= observed <= sample <= population.
func NewEstimate(observed, sample, population int, level ConfidenceLevel) Estimate {
	z := level.ZValue()
	population = max(population, 0)
	sample = min(max(sample, 0), population)
	observed = min(max(observed, 0), sample)
	eol := sample - observed

	e := Estimate{Level: level, Observed: observed, Sample: sample, Population: population}
	if population > 0 {
		e.SampleRate = float64(sample) / float64(population)
	}

	var pHat float64
	if sample > 0 {
		pHat = float64(observed) / float64(sample)
	}
	e.ObservedRate = pHat

	n := float64(sample)
	exact := sample >= population
	if sample > 0 && population > 1 && !exact {
		n = float64(sample) / (float64(population-sample) / float64(population-1))
	}

	z2 := z * z
	var adjusted, stddev float64
	switch {
	case exact:
		adjusted = pHat
	case n > 0:
		adjusted = (pHat + z2/(2*n)) / (1 + z2/n)
		stddev = math.Sqrt(pHat*(1-pHat)/n+z2/(4*n*n)) / (1 + z2/n)
	}
	e.AdjustedRate = adjusted

	if exact {
		e.LowerBound, e.UpperBound = pHat, pHat
	} else {
		e.LowerBound = math.Abs(adjusted - z*stddev)
		e.UpperBound = adjusted + z*stddev
	}

	floor, ceiling := observed, population-eol
	clamp := func(v int) int { return min(max(v, floor), ceiling) }
	pop := float64(population)
	e.EstimatedCount = clamp(int(math.Round(adjusted * pop)))
	e.LowerBoundCount = clamp(int(math.Round(e.LowerBound * pop)))
	e.UpperBoundCount = clamp(int(math.Round(e.UpperBound * pop)))
	return e
}
