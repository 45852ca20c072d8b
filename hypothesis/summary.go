// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package hypothesis

import (
	"fmt"
	"math"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Summary describes an observation distribution: the companion detail to a
// Result for reporting and trend analysis.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P95    float64
	P99    float64
}

// summaryScale converts observations (typically percentages) to the integer
// domain of the histogram with three decimal places of resolution.
const summaryScale = 1000

// Summarize computes a Summary over the observations. Percentiles come from
// an HDR histogram at three significant figures; mean and standard
// deviation are computed exactly. An empty set yields a zero Summary.
func Summarize(observations []float64) Summary {
	if len(observations) == 0 {
		return Summary{}
	}
	mean := meanOf(observations)
	s := Summary{
		N:      len(observations),
		Mean:   mean,
		StdDev: math.Sqrt(sampleVariance(observations, mean)),
		Min:    math.Inf(1),
		Max:    math.Inf(-1),
	}
	h := hdrhistogram.New(1, 100*summaryScale, 3)
	for _, o := range observations {
		s.Min = math.Min(s.Min, o)
		s.Max = math.Max(s.Max, o)
		// Out-of-range observations still count toward Min/Max/Mean; the
		// histogram only backs the percentiles.
		_ = h.RecordValue(int64(math.Round(o * summaryScale)))
	}
	s.P95 = float64(h.ValueAtQuantile(95)) / summaryScale
	s.P99 = float64(h.ValueAtQuantile(99)) / summaryScale
	return s
}

// String implements fmt.Stringer.
func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%.3f stddev=%.3f min=%.3f max=%.3f p95=%.3f p99=%.3f",
		s.N, s.Mean, s.StdDev, s.Min, s.Max, s.P95, s.P99)
}
