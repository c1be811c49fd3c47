// Package scoring holds the pure functions behind the Edusight Prism
// Rating: per-domain composite scoring of raw assessment records and the
// weighted combination into the final 0-100 score and performance band.
// Nothing in this package touches storage; callers pass immutable record
// snapshots in and persist the outputs explicitly.
package scoring

import (
	"fmt"
	"math"

	appErrors "github.com/edusight/prism/pkg/errors"
)

const (
	dassMax     = 42.0
	sdqTotalMax = 40.0
)

// Round2 rounds to two decimal places using banker's rounding (round half
// to even). Applied once at each persisted score.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// scaleTen maps a 1-10 (or 0-10) instrument onto the common 0-100 scale.
// PERMA intentionally maps 1 to 10 rather than 0, preserving the upstream
// instrument behaviour; see the review note in the repository docs.
func scaleTen(v float64) float64 {
	return v * 10
}

// normalizeDASS inverts a DASS-21 subscale (0-42, lower is better) onto the
// higher-is-better 0-100 scale.
func normalizeDASS(d float64) float64 {
	return math.Max(0, 100-d*100/dassMax)
}

// normalizeSDQTotal inverts an SDQ total difficulties score (0-40, lower is
// better) onto the higher-is-better 0-100 scale.
func normalizeSDQTotal(t float64) float64 {
	return math.Max(0, 100-t*2.5)
}

// checkRange rejects out-of-range raw values. Values are never silently
// clamped; a violation invalidates the whole record.
func checkRange(field string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return appErrors.Clone(appErrors.ErrMetricOutOfRange,
			fmt.Sprintf("%s must be within [%g, %g], got %g", field, lo, hi, v))
	}
	return nil
}

// accumulator collects normalized samples and yields their mean. The mean
// of a fixed sample set does not depend on insertion order beyond float
// summation, which is stable for the field counts involved.
type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.count++
}

// mean returns the composite, or nil when no samples were collected.
func (a *accumulator) mean() *float64 {
	if a.count == 0 {
		return nil
	}
	m := Round2(a.sum / float64(a.count))
	return &m
}
