// Copyright 2026 The Covtrace Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package covtrace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestClassifyFixedMapping checks the jidoka table: the mapping is
// deterministic, total over all violation kinds, and not configurable.
func TestClassifyFixedMapping(t *testing.T) {
	cases := []struct {
		v    Violation
		want Disposition
	}{
		{UninstrumentedExecution{Block: 1}, Stop},
		{ImpossibleEdge{From: 1, To: 2}, Stop},
		{CounterOverflow{Block: 1}, LogAndContinue},
		{CoverageRegression{ExpectedPercent: 90, ActualPercent: 70}, LogAndContinue},
	}
	for _, tc := range cases {
		t.Run(tc.v.String(), func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.v))
			// Deterministic on repeat.
			require.Equal(t, tc.want, Classify(tc.v))
		})
	}
}

func TestViolationStrings(t *testing.T) {
	require.Equal(t, "uninstrumented execution of b7",
		UninstrumentedExecution{Block: 7}.String())
	require.Equal(t, "counter overflow on b3",
		CounterOverflow{Block: 3}.String())
	require.Equal(t, "impossible edge b1->b2",
		ImpossibleEdge{From: 1, To: 2}.String())
	require.Equal(t, "coverage regression: expected 90.00%, got 72.50%",
		CoverageRegression{ExpectedPercent: 90, ActualPercent: 72.5}.String())

	require.Equal(t, "stop", Stop.String())
	require.Equal(t, "log-and-continue", LogAndContinue.String())
	require.Equal(t, "warn", Warn.String())
}

func TestViolationTaintTargets(t *testing.T) {
	b, ok := UninstrumentedExecution{Block: 5}.TaintTarget()
	require.True(t, ok)
	require.Equal(t, BlockID(5), b)

	b, ok = CounterOverflow{Block: 6}.TaintTarget()
	require.True(t, ok)
	require.Equal(t, BlockID(6), b)

	// An impossible edge taints its destination.
	b, ok = ImpossibleEdge{From: 1, To: 9}.TaintTarget()
	require.True(t, ok)
	require.Equal(t, BlockID(9), b)

	// A regression carries no block and is logged globally only.
	_, ok = CoverageRegression{}.TaintTarget()
	require.False(t, ok)
}
